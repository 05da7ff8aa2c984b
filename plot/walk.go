package plot

import (
	"io"

	"github.com/JamesChan/ngit/object"
)

// Walker produces plot commits in reverse-chronological order,
// children before parents. Next returns io.EOF once the history is
// exhausted.
type Walker interface {
	Next() (*Commit, error)
}

// Walk is the plot-aware walker. It keeps an object pool so that a
// commit referenced as a parent exists before it is produced; the
// commit list relies on that to wire children the moment a commit
// enters.
type Walk struct {
	pool  map[object.ID]*Commit
	queue []*Commit
	next  int
}

func NewWalk() *Walk {
	return &Walk{pool: make(map[object.ID]*Commit)}
}

// Add appends the commit named id with the given parents. Commits
// must be added in delivery order, children first; parents may name
// commits not added yet.
func (w *Walk) Add(id object.ID, parents ...object.ID) *Commit {
	c := w.lookup(id)
	for _, p := range parents {
		c.parents = append(c.parents, w.lookup(p))
	}
	w.queue = append(w.queue, c)
	return c
}

func (w *Walk) lookup(id object.ID) *Commit {
	if c, ok := w.pool[id]; ok {
		return c
	}
	c := &Commit{name: id}
	w.pool[id] = c
	return c
}

func (w *Walk) Next() (*Commit, error) {
	if w.next >= len(w.queue) {
		return nil, io.EOF
	}
	c := w.queue[w.next]
	w.next++
	return c, nil
}
