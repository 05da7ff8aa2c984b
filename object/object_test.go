package object

import (
	"strings"
	"testing"

	"github.com/JamesChan/ngit/ngit_errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDRoundTrip(t *testing.T) {
	id := Sum(TypeBlob, []byte("hello"))
	s := id.String()
	assert.Len(t, s, HexLen)
	assert.Equal(t, strings.ToLower(s), s)

	back, err := ParseID(s)
	require.NoError(t, err)
	assert.Equal(t, id, back)

	_, err = ParseID("abcd")
	assert.Error(t, err)
	_, err = ParseID(strings.Repeat("zz", 20))
	assert.Error(t, err)
}

func TestMarkSet(t *testing.T) {
	m := MarkSet{}
	id := Sum(TypeCommit, []byte("c1"))
	assert.True(t, m.TryMark(id))
	assert.False(t, m.TryMark(id))
	assert.True(t, m.TryMark(Sum(TypeCommit, []byte("c2"))))
}

func TestMemStore(t *testing.T) {
	s := NewMemStore()
	c := &Commit{Name: Sum(TypeCommit, []byte("c1"))}
	s.Put(c)

	obj, err := s.ParseAny(c.Name)
	require.NoError(t, err)
	assert.Equal(t, c, obj)
	assert.NoError(t, s.ParseHeaders(obj))

	_, err = s.ParseAny(Sum(TypeCommit, []byte("absent")))
	assert.ErrorIs(t, err, ngit_errors.ErrObjectUnknown)
}

func TestMemStoreAdditionalHaves(t *testing.T) {
	s := NewMemStore()
	for _, seed := range []string{"a", "b", "c"} {
		s.Put(&Blob{Name: Sum(TypeBlob, []byte(seed))})
	}
	haves := s.AdditionalHaves()
	require.Len(t, haves, 3)
	assert.True(t, haves[0].String() < haves[1].String())
	assert.True(t, haves[1].String() < haves[2].String())
}

type countingResolver struct {
	next  Resolver
	calls int
}

func (r *countingResolver) ParseAny(id ID) (Object, error) {
	r.calls++
	return r.next.ParseAny(id)
}

func (r *countingResolver) ParseHeaders(obj Object) error {
	return r.next.ParseHeaders(obj)
}

func TestCachingResolver(t *testing.T) {
	s := NewMemStore()
	c := &Commit{Name: Sum(TypeCommit, []byte("c1"))}
	s.Put(c)

	counting := &countingResolver{next: s}
	r, err := NewCachingResolver(counting, 16)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		obj, err := r.ParseAny(c.Name)
		require.NoError(t, err)
		assert.Equal(t, c, obj)
	}
	assert.Equal(t, 1, counting.calls)

	// misses are not cached
	missing := Sum(TypeCommit, []byte("absent"))
	_, err = r.ParseAny(missing)
	assert.Error(t, err)
	_, err = r.ParseAny(missing)
	assert.Error(t, err)
	assert.Equal(t, 3, counting.calls)
}
