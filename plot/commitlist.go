package plot

import (
	"errors"
	"io"

	"github.com/JamesChan/ngit/ngit_errors"
	"github.com/JamesChan/ngit/utils"
)

// positionPool is the ordered set of recycled lane positions,
// smallest-first on extraction. Membership is a set: offering the
// same position twice keeps a single copy.
type positionPool struct {
	heap utils.Heap[int]
	in   map[int]struct{}
}

func (p *positionPool) add(pos int) {
	if p.in == nil {
		p.in = make(map[int]struct{})
	}
	if _, ok := p.in[pos]; ok {
		return
	}
	p.in[pos] = struct{}{}
	p.heap.Push(pos)
}

func (p *positionPool) empty() bool {
	return p.heap.Len() == 0
}

func (p *positionPool) size() int {
	return p.heap.Len()
}

func (p *positionPool) takeMin() int {
	pos := p.heap.Pop()
	delete(p.in, pos)
	return pos
}

// takeMinExcept extracts the smallest position absent from blocked;
// ok is false when every free position is blocked.
func (p *positionPool) takeMinExcept(blocked map[int]struct{}) (pos int, ok bool) {
	var skipped []int
	for p.heap.Len() > 0 {
		pos = p.heap.Pop()
		if _, hit := blocked[pos]; hit {
			skipped = append(skipped, pos)
			continue
		}
		delete(p.in, pos)
		ok = true
		break
	}
	for _, s := range skipped {
		p.heap.Push(s)
	}
	return
}

func (p *positionPool) clear() {
	p.heap.Clear()
	p.in = nil
}

// CommitList is the windowed list of plotted commits. Filling it runs
// the lane allocator over the incoming history.
type CommitList struct {
	commits []*Commit
	walk    *Walk

	positionsAllocated int
	freePositions      positionPool
	activeLanes        map[*Lane]struct{}

	// NewLane and RecycleLane are the customization points for
	// downstream renderers; color state and the like live behind
	// them. RecycleLane runs each time a lane closes. Both may be
	// nil.
	NewLane     func() *Lane
	RecycleLane func(*Lane)
}

func NewCommitList() *CommitList {
	return &CommitList{activeLanes: make(map[*Lane]struct{})}
}

// Source binds the list to its walker. Only the plot-aware Walk
// qualifies; anything else is rejected with ErrWrongSource.
func (l *CommitList) Source(w Walker) error {
	pw, ok := w.(*Walk)
	if !ok {
		return ngit_errors.ErrWrongSource
	}
	l.walk = pw
	return nil
}

// FillTo pulls commits from the walker and enters them until the
// list holds max commits or the history runs out.
func (l *CommitList) FillTo(max int) error {
	if l.walk == nil {
		return ngit_errors.ErrWrongSource
	}
	for len(l.commits) < max {
		c, err := l.walk.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		l.commits = append(l.commits, c)
		l.enter(len(l.commits)-1, c)
	}
	return nil
}

// Clear forgets the plotted window and resets lane accounting.
func (l *CommitList) Clear() {
	l.commits = l.commits[:0]
	l.positionsAllocated = 0
	l.freePositions.clear()
	l.activeLanes = make(map[*Lane]struct{})
}

func (l *CommitList) Len() int {
	return len(l.commits)
}

func (l *CommitList) Get(i int) *Commit {
	return l.commits[i]
}

// FindPassingThrough accumulates every lane passing through the row
// of c into out. Order is unspecified.
func (l *CommitList) FindPassingThrough(c *Commit, out *[]*Lane) {
	*out = append(*out, c.passing...)
}

// Stats reports the allocator counters: positions ever handed out,
// lanes currently active, and positions free for reuse.
func (l *CommitList) Stats() (positionsAllocated, activeLanes, freePositions int) {
	return l.positionsAllocated, len(l.activeLanes), l.freePositions.size()
}

func (l *CommitList) enter(index int, currCommit *Commit) {
	// the incoming commit registers itself as a child of each of
	// its parents, entered or not
	for _, p := range currCommit.parents {
		p.addChild(currCommit)
	}

	nChildren := currCommit.ChildCount()
	if nChildren == 0 {
		// a tip stays laneless until a descendant needs to connect
		// to it
		return
	}

	if nChildren == 1 && currCommit.children[0].ParentCount() < 2 {
		// only one child and the child is no merge: continue the
		// child's lane
		c := currCommit.children[0]
		if c.lane == nil {
			// the child was the root of an unseen sub-DAG when it
			// entered; open its lane now
			c.lane = l.nextFreeLane()
			l.activeLanes[c.lane] = struct{}{}
		}
		for r := index - 1; r >= 0; r-- {
			rObj := l.commits[r]
			if rObj == c {
				break
			}
			rObj.addPassingLane(c.lane)
		}
		currCommit.lane = c.lane
		return
	}

	// More than one child, or the child is a merge. One child lane
	// is reserved for the current commit to continue; every other
	// child lane closes here.
	var reservedLane *Lane
	for _, c := range currCommit.children {
		if c.lane == nil {
			c.lane = l.nextFreeLane()
			l.activeLanes[c.lane] = struct{}{}
			if reservedLane != nil {
				l.closeLane(c.lane)
			} else {
				reservedLane = c.lane
			}
		} else if _, active := l.activeLanes[c.lane]; reservedLane == nil && active {
			reservedLane = c.lane
		} else {
			l.closeLane(c.lane)
		}
	}
	if reservedLane != nil {
		l.closeLane(reservedLane)
	}

	currCommit.lane = l.nextFreeLane()
	l.activeLanes[currCommit.lane] = struct{}{}

	l.handleBlockedLanes(index, currCommit, nChildren)
}

// handleBlockedLanes records the current commit's lane as passing
// through every row between the commit and its furthest child, and
// repositions the lane when a line already occupies its column on one
// of those rows.
func (l *CommitList) handleBlockedLanes(index int, currCommit *Commit, nChildren int) {
	blocked := make(map[int]struct{})
	remaining := nChildren
	for r := index - 1; r >= 0; r-- {
		rObj := l.commits[r]
		if currCommit.IsChild(rObj) {
			remaining--
			if remaining == 0 {
				break
			}
		}
		if rObj.lane != nil {
			blocked[rObj.lane.position] = struct{}{}
		}
		rObj.addPassingLane(currCommit.lane)
	}

	if _, hit := blocked[currCommit.lane.position]; !hit {
		return
	}
	newPos, ok := l.freePositions.takeMinExcept(blocked)
	if !ok {
		newPos = l.positionsAllocated
		l.positionsAllocated++
	}
	l.freePositions.add(currCommit.lane.position)
	currCommit.lane.position = newPos
}

// nextFreeLane opens a lane on the smallest recycled position, or on
// a brand new one when none is free.
func (l *CommitList) nextFreeLane() *Lane {
	lane := l.createLane()
	if l.freePositions.empty() {
		lane.position = l.positionsAllocated
		l.positionsAllocated++
	} else {
		lane.position = l.freePositions.takeMin()
	}
	return lane
}

// closeLane retires a lane: its position returns to the free pool and
// the recycle hook runs. A merge child's lane is offered for closing
// by each of its parents; only the closing that finds it active
// counts.
func (l *CommitList) closeLane(lane *Lane) {
	if _, active := l.activeLanes[lane]; !active {
		return
	}
	delete(l.activeLanes, lane)
	l.recycleLane(lane)
	l.freePositions.add(lane.position)
}

func (l *CommitList) createLane() *Lane {
	if l.NewLane != nil {
		return l.NewLane()
	}
	return &Lane{}
}

func (l *CommitList) recycleLane(lane *Lane) {
	if l.RecycleLane != nil {
		l.RecycleLane(lane)
	}
}
