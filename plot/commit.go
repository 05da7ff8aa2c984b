// Package plot assigns geometric lanes to commits so a history graph
// can be rendered without lines crossing through commit nodes.
//
// Commits are consumed newest-first (children before parents). An
// entered commit with children receives a lane; a tip stays laneless
// until one of its parents enters. Rows its connecting lines run
// through receive passing-lane entries. Lane positions are recycled
// smallest-first once a lane closes, keeping the graph narrow.
package plot

import "github.com/JamesChan/ngit/object"

// A Lane is one column of the rendered graph. Its position stays
// stable over the lane's lifetime; after the lane closes the position
// becomes available for reuse.
type Lane struct {
	position int
}

func (l *Lane) Position() int {
	return l.position
}

// A Commit is one node of the plotted history. The walker creates it;
// the commit list fills in children, lane and passing lanes as the
// history is entered.
type Commit struct {
	name    object.ID
	parents []*Commit

	children []*Commit
	lane     *Lane
	passing  []*Lane
}

func (c *Commit) ID() object.ID {
	return c.name
}

// Lane returns the commit's lane, nil while the commit is still a
// laneless tip.
func (c *Commit) Lane() *Lane {
	return c.lane
}

func (c *Commit) ParentCount() int {
	return len(c.parents)
}

func (c *Commit) Parent(i int) *Commit {
	return c.parents[i]
}

func (c *Commit) ChildCount() int {
	return len(c.children)
}

func (c *Commit) Child(i int) *Commit {
	return c.children[i]
}

// IsChild reports whether other descends directly from c.
func (c *Commit) IsChild(other *Commit) bool {
	for _, kid := range c.children {
		if kid == other {
			return true
		}
	}
	return false
}

func (c *Commit) addChild(kid *Commit) {
	if c.IsChild(kid) {
		// a merge may list the same parent twice
		return
	}
	c.children = append(c.children, kid)
}

func (c *Commit) addPassingLane(l *Lane) {
	c.passing = append(c.passing, l)
}
