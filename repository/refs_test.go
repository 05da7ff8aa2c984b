package repository

import (
	"testing"

	"github.com/JamesChan/ngit/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefMapOrder(t *testing.T) {
	m := NewRefMap()
	m.Set("refs/tags/v1", object.Sum(object.TypeTag, []byte("v1")))
	m.Set("HEAD", object.Sum(object.TypeCommit, []byte("head")))
	m.Set("refs/heads/master", object.Sum(object.TypeCommit, []byte("master")))

	all := m.All()
	require.Len(t, all, 3)
	assert.Equal(t, "HEAD", all[0].Name)
	assert.Equal(t, "refs/heads/master", all[1].Name)
	assert.Equal(t, "refs/tags/v1", all[2].Name)
}

func TestRefMapReplace(t *testing.T) {
	m := NewRefMap()
	old := object.Sum(object.TypeCommit, []byte("old"))
	next := object.Sum(object.TypeCommit, []byte("new"))

	m.Set("refs/heads/master", old)
	m.Set("refs/heads/master", next)

	assert.Equal(t, 1, m.Len())
	id, ok := m.Get("refs/heads/master")
	require.True(t, ok)
	assert.Equal(t, next, id)

	_, ok = m.Get("refs/heads/missing")
	assert.False(t, ok)
}

func TestValidName(t *testing.T) {
	assert.True(t, ValidName("refs/heads/master"))
	assert.True(t, ValidName(".have"))
	assert.False(t, ValidName(""))
	assert.False(t, ValidName("refs/he\x00ads"))
}

func TestSortedNames(t *testing.T) {
	names := SortedNames(map[string]object.ID{
		"refs/tags/v2":      {},
		"refs/heads/master": {},
		"refs/heads/dev":    {},
	})
	assert.Equal(t, []string{"refs/heads/dev", "refs/heads/master", "refs/tags/v2"}, names)
}
