package ngit

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/JamesChan/ngit/object"
	"github.com/JamesChan/ngit/plot"
	"github.com/JamesChan/ngit/repository"
	"github.com/JamesChan/ngit/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRepo() (*object.MemStore, *repository.RefMap, *object.Commit) {
	store := object.NewMemStore()
	commit := &object.Commit{Name: object.Sum(object.TypeCommit, []byte("tip"))}
	store.Put(commit)
	refs := repository.NewRefMap()
	refs.Set("refs/heads/master", commit.Name)
	return store, refs, commit
}

func TestServeAdvertisement(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log := utils.NewDefaultLogger(slog.LevelError)

	store, refs, commit := testRepo()
	srv := NewServer(log, store, func() *repository.RefMap { return refs }, ServerOptions{
		Capabilities: []string{"multi_ack", "side-band-64k"},
	})

	const addr = "tcp://127.0.0.1:24819"
	require.NoError(t, srv.Listen(ctx, addr))
	defer srv.Close()

	lines, err := NewClient(log).ReadAdvertisement(ctx, addr)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t,
		commit.Name.String()+" refs/heads/master\x00 multi_ack side-band-64k \n",
		lines[0])
}

func TestServeAlternateHaves(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log := utils.NewDefaultLogger(slog.LevelError)

	store, refs, _ := testRepo()
	extra := &object.Commit{Name: object.Sum(object.TypeCommit, []byte("shared"))}
	store.Put(extra)
	alternate := object.NewMemStore()
	alternate.Put(extra)

	srv := NewServer(log, store, func() *repository.RefMap { return refs }, ServerOptions{
		Alternate: alternate,
	})

	const addr = "tcp://127.0.0.1:24820"
	require.NoError(t, srv.Listen(ctx, addr))
	defer srv.Close()

	lines, err := NewClient(log).ReadAdvertisement(ctx, addr)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, extra.Name.String()+" .have\n", lines[1])
}

func TestCollector(t *testing.T) {
	log := utils.NewDefaultLogger(slog.LevelError)
	store, refs, _ := testRepo()
	srv := NewServer(log, store, func() *repository.RefMap { return refs }, ServerOptions{})
	srv.sessions.Add(2)
	srv.lines.Add(5)

	list := plot.NewCommitList()
	col := NewCollector(srv, list)

	descs := make(chan *prometheus.Desc, 8)
	col.Describe(descs)
	assert.Equal(t, 5, len(descs))

	metrics := make(chan prometheus.Metric, 8)
	col.Collect(metrics)
	assert.Equal(t, 5, len(metrics))
}

func TestCollectorWithoutPlot(t *testing.T) {
	log := utils.NewDefaultLogger(slog.LevelError)
	store, refs, _ := testRepo()
	srv := NewServer(log, store, func() *repository.RefMap { return refs }, ServerOptions{})

	col := NewCollector(srv, nil)
	metrics := make(chan prometheus.Metric, 8)
	col.Collect(metrics)
	assert.Equal(t, 2, len(metrics))
}
