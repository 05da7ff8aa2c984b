package object

import (
	"sort"

	"github.com/JamesChan/ngit/ngit_errors"
)

// MemStore is an in-memory object pool. It backs tests, fixtures and
// the REPL; it is not an object database.
type MemStore struct {
	objects map[ID]Object
}

func NewMemStore() *MemStore {
	return &MemStore{objects: make(map[ID]Object)}
}

func (s *MemStore) Put(obj Object) {
	s.objects[obj.ID()] = obj
}

func (s *MemStore) Len() int {
	return len(s.objects)
}

func (s *MemStore) ParseAny(id ID) (Object, error) {
	obj, ok := s.objects[id]
	if !ok {
		return nil, ngit_errors.ErrObjectUnknown
	}
	return obj, nil
}

func (s *MemStore) ParseHeaders(obj Object) error {
	// in-memory objects are born fully parsed
	return nil
}

// AdditionalHaves yields every stored id in ascending hex order, the
// shape an alternate object source presents to the advertiser.
func (s *MemStore) AdditionalHaves() []ID {
	ids := make([]ID, 0, len(s.objects))
	for id := range s.objects {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})
	return ids
}
