package object

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// CachingResolver keeps recently parsed objects in an LRU in front of
// a slower resolver. Lookup failures are not cached; a ref that
// vanishes and reappears between advertisements resolves again.
type CachingResolver struct {
	next  Resolver
	cache *lru.Cache[ID, Object]
}

func NewCachingResolver(next Resolver, size int) (*CachingResolver, error) {
	cache, err := lru.New[ID, Object](size)
	if err != nil {
		return nil, err
	}
	return &CachingResolver{next: next, cache: cache}, nil
}

func (r *CachingResolver) ParseAny(id ID) (Object, error) {
	if obj, ok := r.cache.Get(id); ok {
		return obj, nil
	}
	obj, err := r.next.ParseAny(id)
	if err != nil {
		return nil, err
	}
	r.cache.Add(id, obj)
	return obj, nil
}

func (r *CachingResolver) ParseHeaders(obj Object) error {
	return r.next.ParseHeaders(obj)
}
