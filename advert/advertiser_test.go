package advert

import (
	"errors"
	"testing"

	"github.com/JamesChan/ngit/ngit_errors"
	"github.com/JamesChan/ngit/object"
	"github.com/JamesChan/ngit/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBrokenPipe = errors.New("broken pipe")

type captureSink struct {
	lines []string
	ended bool
	fail  bool
}

func (s *captureSink) WriteLine(line string) error {
	if s.fail {
		return errBrokenPipe
	}
	s.lines = append(s.lines, line)
	return nil
}

func (s *captureSink) End() error {
	s.ended = true
	return nil
}

func fixture() (*object.MemStore, *object.Commit, *object.Tag) {
	store := object.NewMemStore()
	commit := &object.Commit{Name: object.Sum(object.TypeCommit, []byte("tip"))}
	store.Put(commit)
	tag := &object.Tag{
		Name:    object.Sum(object.TypeTag, []byte("v1")),
		Target:  commit.Name,
		TagName: "v1",
	}
	store.Put(tag)
	return store, commit, tag
}

func TestCapabilityFirstLine(t *testing.T) {
	store, commit, _ := fixture()
	sink := &captureSink{}
	a := New(sink, store, object.MarkSet{})

	require.NoError(t, a.AdvertiseCapability("multi_ack"))
	require.NoError(t, a.AdvertiseCapability("side-band-64k"))
	require.NoError(t, a.AdvertiseCapability("multi_ack")) // deduplicated

	refs := repository.NewRefMap()
	refs.Set("master", commit.Name)
	require.NoError(t, a.Send(refs))
	require.NoError(t, a.End())

	require.Len(t, sink.lines, 1)
	assert.Equal(t, commit.Name.String()+" master\x00 multi_ack side-band-64k \n", sink.lines[0])
	assert.True(t, sink.ended)
	assert.False(t, a.IsEmpty())
}

func TestNoCapabilitiesNoNUL(t *testing.T) {
	store, commit, _ := fixture()
	sink := &captureSink{}
	a := New(sink, store, object.MarkSet{})

	require.NoError(t, a.SendMap(map[string]object.ID{"master": commit.Name}))

	require.Len(t, sink.lines, 1)
	assert.Equal(t, commit.Name.String()+" master\n", sink.lines[0])
	assert.NotContains(t, sink.lines[0], "\x00")
}

func TestCapabilitySectionOnFirstLineOnly(t *testing.T) {
	store, commit, tag := fixture()
	sink := &captureSink{}
	a := New(sink, store, object.MarkSet{})
	require.NoError(t, a.AdvertiseCapability("report-status"))

	require.NoError(t, a.SendMap(map[string]object.ID{
		"refs/heads/master": commit.Name,
		"refs/tags/v1":      tag.Name,
	}))

	require.Len(t, sink.lines, 2)
	assert.Contains(t, sink.lines[0], "\x00")
	assert.NotContains(t, sink.lines[1], "\x00")
}

func TestTagPeel(t *testing.T) {
	store, commit, tag := fixture()
	sink := &captureSink{}
	a := New(sink, store, object.MarkSet{})
	require.NoError(t, a.SetDerefTags(true))

	require.NoError(t, a.SendMap(map[string]object.ID{"refs/tags/v1": tag.Name}))

	require.Len(t, sink.lines, 2)
	assert.Equal(t, tag.Name.String()+" refs/tags/v1\n", sink.lines[0])
	assert.Equal(t, commit.Name.String()+" refs/tags/v1^{}\n", sink.lines[1])
}

func TestNestedTagPeel(t *testing.T) {
	store, commit, tag := fixture()
	outer := &object.Tag{
		Name:    object.Sum(object.TypeTag, []byte("v1-signed")),
		Target:  tag.Name,
		TagName: "v1-signed",
	}
	store.Put(outer)

	sink := &captureSink{}
	marks := object.MarkSet{}
	a := New(sink, store, marks)
	require.NoError(t, a.SetDerefTags(true))

	require.NoError(t, a.SendMap(map[string]object.ID{"refs/tags/v1-signed": outer.Name}))

	require.Len(t, sink.lines, 2)
	assert.Equal(t, commit.Name.String()+" refs/tags/v1-signed^{}\n", sink.lines[1])

	// every intermediate target got marked along the chase
	assert.False(t, marks.TryMark(outer.Name))
	assert.False(t, marks.TryMark(tag.Name))
	assert.False(t, marks.TryMark(commit.Name))
}

func TestPeelAbortsSilently(t *testing.T) {
	store := object.NewMemStore()
	dangling := &object.Tag{
		Name:   object.Sum(object.TypeTag, []byte("dangling")),
		Target: object.Sum(object.TypeCommit, []byte("gone")),
	}
	store.Put(dangling)

	sink := &captureSink{}
	a := New(sink, store, object.MarkSet{})
	require.NoError(t, a.SetDerefTags(true))

	require.NoError(t, a.SendMap(map[string]object.ID{"refs/tags/dangling": dangling.Name}))

	require.Len(t, sink.lines, 1)
	assert.Equal(t, dangling.Name.String()+" refs/tags/dangling\n", sink.lines[0])
}

func TestUnresolvableRefSkipped(t *testing.T) {
	store, commit, _ := fixture()
	sink := &captureSink{}
	a := New(sink, store, object.MarkSet{})

	require.NoError(t, a.SendMap(map[string]object.ID{
		"refs/heads/gone":   object.Sum(object.TypeCommit, []byte("gone")),
		"refs/heads/master": commit.Name,
	}))

	require.Len(t, sink.lines, 1)
	assert.Equal(t, commit.Name.String()+" refs/heads/master\n", sink.lines[0])
}

func TestSendMapSortsByName(t *testing.T) {
	store := object.NewMemStore()
	ids := map[string]object.ID{}
	for _, name := range []string{"refs/tags/v9", "HEAD", "refs/heads/dev"} {
		c := &object.Commit{Name: object.Sum(object.TypeCommit, []byte(name))}
		store.Put(c)
		ids[name] = c.Name
	}

	for run := 0; run < 2; run++ {
		sink := &captureSink{}
		a := New(sink, store, object.MarkSet{})
		require.NoError(t, a.SendMap(ids))
		require.Len(t, sink.lines, 3)
		assert.Equal(t, ids["HEAD"].String()+" HEAD\n", sink.lines[0])
		assert.Equal(t, ids["refs/heads/dev"].String()+" refs/heads/dev\n", sink.lines[1])
		assert.Equal(t, ids["refs/tags/v9"].String()+" refs/tags/v9\n", sink.lines[2])
	}
}

func TestConfigurationFrozenAfterFirstLine(t *testing.T) {
	store, commit, _ := fixture()
	sink := &captureSink{}
	a := New(sink, store, object.MarkSet{})

	require.NoError(t, a.SendMap(map[string]object.ID{"master": commit.Name}))

	assert.ErrorIs(t, a.AdvertiseCapability("ofs-delta"), ngit_errors.ErrAfterFirstLine)
	assert.ErrorIs(t, a.SetDerefTags(true), ngit_errors.ErrAfterFirstLine)
}

func TestAdvertiseHaveDedup(t *testing.T) {
	store, commit, _ := fixture()
	sink := &captureSink{}
	a := New(sink, store, object.MarkSet{})

	require.NoError(t, a.AdvertiseHave(commit.Name))
	require.NoError(t, a.AdvertiseHave(commit.Name))

	require.Len(t, sink.lines, 1)
	assert.Equal(t, commit.Name.String()+" .have\n", sink.lines[0])
}

func TestAdvertiseHaveTagTarget(t *testing.T) {
	store, commit, tag := fixture()
	sink := &captureSink{}
	a := New(sink, store, object.MarkSet{})

	require.NoError(t, a.AdvertiseHave(tag.Name))

	require.Len(t, sink.lines, 2)
	assert.Equal(t, tag.Name.String()+" .have\n", sink.lines[0])
	assert.Equal(t, commit.Name.String()+" .have\n", sink.lines[1])

	// both are advertised now, a second round emits nothing
	require.NoError(t, a.AdvertiseHave(tag.Name))
	require.NoError(t, a.AdvertiseHave(commit.Name))
	assert.Len(t, sink.lines, 2)
}

func TestHaveSkippedAfterRefAdvertised(t *testing.T) {
	store, commit, _ := fixture()
	sink := &captureSink{}
	a := New(sink, store, object.MarkSet{})

	require.NoError(t, a.SendMap(map[string]object.ID{"master": commit.Name}))
	require.NoError(t, a.AdvertiseHave(commit.Name))

	assert.Len(t, sink.lines, 1)
}

func TestIncludeAdditionalHaves(t *testing.T) {
	store, commit, _ := fixture()
	alternate := object.NewMemStore()
	shared := &object.Commit{Name: commit.Name}
	alternate.Put(shared)
	extra := &object.Commit{Name: object.Sum(object.TypeCommit, []byte("alternate-only"))}
	alternate.Put(extra)
	store.Put(extra) // resolvable through the session resolver too

	sink := &captureSink{}
	a := New(sink, store, object.MarkSet{})
	require.NoError(t, a.SendMap(map[string]object.ID{"master": commit.Name}))
	require.NoError(t, a.IncludeAdditionalHaves(alternate))

	// the ref line plus one .have; the shared commit is deduplicated
	require.Len(t, sink.lines, 2)
	assert.Equal(t, extra.Name.String()+" .have\n", sink.lines[1])
}

func TestUnknownAlternateIDsDropped(t *testing.T) {
	store, _, _ := fixture()
	alternate := object.NewMemStore()
	alternate.Put(&object.Blob{Name: object.Sum(object.TypeBlob, []byte("foreign"))})

	sink := &captureSink{}
	a := New(sink, store, object.MarkSet{})
	require.NoError(t, a.IncludeAdditionalHaves(alternate))
	assert.Len(t, sink.lines, 0)
	assert.True(t, a.IsEmpty())
}

func TestInvalidRefName(t *testing.T) {
	store, commit, _ := fixture()
	sink := &captureSink{}
	a := New(sink, store, object.MarkSet{})

	err := a.AdvertiseID(commit.Name, "refs/he\x00ads")
	assert.ErrorIs(t, err, ngit_errors.ErrInvalidRefName)
	assert.Len(t, sink.lines, 0)
	assert.True(t, a.IsEmpty())
}

func TestEndClosesStream(t *testing.T) {
	store, commit, _ := fixture()
	sink := &captureSink{}
	a := New(sink, store, object.MarkSet{})

	require.NoError(t, a.End())
	assert.True(t, sink.ended)
	assert.NoError(t, a.End()) // idempotent

	err := a.AdvertiseID(commit.Name, "master")
	assert.ErrorIs(t, err, ngit_errors.ErrSinkClosed)
}

func TestSinkErrorPropagates(t *testing.T) {
	store, commit, _ := fixture()
	sink := &captureSink{fail: true}
	a := New(sink, store, object.MarkSet{})

	err := a.SendMap(map[string]object.ID{"master": commit.Name})
	assert.ErrorIs(t, err, errBrokenPipe)
	// the stream is dirty once bytes may have hit the wire
	assert.False(t, a.IsEmpty())
}

func TestMarkedOncePerSession(t *testing.T) {
	store, commit, _ := fixture()
	marks := object.MarkSet{}
	sink := &captureSink{}
	a := New(sink, store, marks)

	require.NoError(t, a.SendMap(map[string]object.ID{
		"refs/heads/master": commit.Name,
		"refs/heads/alias":  commit.Name,
	}))

	// two names, two lines, one mark
	assert.Len(t, sink.lines, 2)
	assert.Len(t, marks, 1)
	assert.False(t, marks.TryMark(commit.Name))
}
