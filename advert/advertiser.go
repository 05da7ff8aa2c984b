// Package advert encodes the opening advertisement of the fetch/push
// wire protocol: one line per advertised ref, the first line
// decorated with the capability list, optional peeled companion
// lines for annotated tags, and synthetic ".have" lines for objects
// reachable through alternate sources.
//
// The advertiser is a two-state machine. Until the first line is
// written it accumulates configuration (capabilities, tag
// dereferencing); the first line handed to the sink freezes both for
// the rest of the session, even when the sink reports an error.
package advert

import (
	"strings"

	"github.com/JamesChan/ngit/ngit_errors"
	"github.com/JamesChan/ngit/object"
	"github.com/JamesChan/ngit/repository"
)

// HaveRef is the pseudo ref name of synthetic advertisement lines.
const HaveRef = ".have"

// IDSource yields object ids known to an alternate object source.
type IDSource interface {
	AdditionalHaves() []object.ID
}

// An Advertiser writes the advertisement for one session.
//
// Line format:
//
//	<hex-id> SP <refName> LF
//
// with the capability section spliced into the first line only:
//
//	<hex-id> SP <refName> NUL (SP <capability>)* SP LF
//
// The NUL appears only when at least one capability is registered.
type Advertiser struct {
	sink  LineSink
	res   object.Resolver
	marks object.Marks

	caps      []string
	capSet    map[string]struct{}
	derefTags bool

	sentAny bool
	closed  bool
}

// New binds the advertiser to its sink, resolver and advertised-mark
// channel. No output happens until Send or an Advertise* call.
func New(sink LineSink, res object.Resolver, marks object.Marks) *Advertiser {
	return &Advertiser{
		sink:   sink,
		res:    res,
		marks:  marks,
		capSet: make(map[string]struct{}),
	}
}

// SetDerefTags configures whether each advertised annotated tag is
// followed by a peeled "^{}" companion line. Legal only before the
// first line.
func (a *Advertiser) SetDerefTags(on bool) error {
	if a.sentAny {
		return ngit_errors.ErrAfterFirstLine
	}
	a.derefTags = on
	return nil
}

// AdvertiseCapability registers a capability token for the first-line
// capability section. Duplicates are dropped silently; registration
// order is emission order. Legal only before the first line.
func (a *Advertiser) AdvertiseCapability(name string) error {
	if a.sentAny {
		return ngit_errors.ErrAfterFirstLine
	}
	if _, ok := a.capSet[name]; ok {
		return nil
	}
	a.capSet[name] = struct{}{}
	a.caps = append(a.caps, name)
	return nil
}

// IsEmpty reports whether no line has been written yet.
func (a *Advertiser) IsEmpty() bool {
	return !a.sentAny
}

// Send advertises every ref of the canonical container in its own
// (already canonical) order. Unresolvable refs are skipped silently;
// sink errors abort and propagate.
func (a *Advertiser) Send(refs *repository.RefMap) error {
	for _, r := range refs.All() {
		if err := a.advertiseRef(r.Name, r.ID); err != nil {
			return err
		}
	}
	return nil
}

// SendMap advertises a plain name-to-id map, sorted by full ref name
// in ascending byte order.
func (a *Advertiser) SendMap(refs map[string]object.ID) error {
	for _, name := range repository.SortedNames(refs) {
		if err := a.advertiseRef(name, refs[name]); err != nil {
			return err
		}
	}
	return nil
}

func (a *Advertiser) advertiseRef(name string, id object.ID) error {
	obj, err := a.res.ParseAny(id)
	if err != nil {
		// a ref may vanish between listing and advertising
		return nil
	}
	return a.advertiseAny(obj, name)
}

// advertiseAny marks obj advertised and emits its line, plus the
// peeled companion when obj is a tag and dereferencing is on.
func (a *Advertiser) advertiseAny(obj object.Object, name string) error {
	a.marks.TryMark(obj.ID())
	if err := a.AdvertiseID(obj.ID(), name); err != nil {
		return err
	}
	if tag, ok := obj.(*object.Tag); ok && a.derefTags {
		return a.advertisePeeled(tag, name)
	}
	return nil
}

// advertiseAnyOnce behaves like advertiseAny but skips entirely when
// obj was already advertised this session.
func (a *Advertiser) advertiseAnyOnce(obj object.Object, name string) error {
	if !a.marks.TryMark(obj.ID()) {
		return nil
	}
	return a.AdvertiseID(obj.ID(), name)
}

// advertisePeeled chases the tag chain to the first non-tag object
// and emits the "^{}" line for it. Every intermediate target is
// marked advertised. A resolution fault anywhere along the chain
// drops the peeled line silently.
func (a *Advertiser) advertisePeeled(tag *object.Tag, name string) error {
	var o object.Object = tag
	for {
		t, ok := o.(*object.Tag)
		if !ok {
			break
		}
		next, err := a.res.ParseAny(t.Target)
		if err != nil {
			return nil
		}
		if err := a.res.ParseHeaders(next); err != nil {
			return nil
		}
		a.marks.TryMark(next.ID())
		o = next
	}
	return a.AdvertiseID(o.ID(), name+"^{}")
}

// AdvertiseHave emits a ".have" line for id, deduplicated against
// everything advertised so far. When id names a tag, its immediate
// target is advertised the same way. Unknown ids are dropped
// silently.
func (a *Advertiser) AdvertiseHave(id object.ID) error {
	obj, err := a.res.ParseAny(id)
	if err != nil {
		return nil
	}
	if err := a.advertiseAnyOnce(obj, HaveRef); err != nil {
		return err
	}
	if tag, ok := obj.(*object.Tag); ok {
		target, err := a.res.ParseAny(tag.Target)
		if err != nil {
			return nil
		}
		return a.advertiseAnyOnce(target, HaveRef)
	}
	return nil
}

// IncludeAdditionalHaves advertises a ".have" line for every id the
// alternate source yields.
func (a *Advertiser) IncludeAdditionalHaves(src IDSource) error {
	for _, id := range src.AdditionalHaves() {
		if err := a.AdvertiseHave(id); err != nil {
			return err
		}
	}
	return nil
}

// AdvertiseID is the low-level line emitter every other operation
// funnels through. The first call that reaches the sink freezes
// capability registration, whether or not the write succeeds.
func (a *Advertiser) AdvertiseID(id object.ID, name string) error {
	if a.closed {
		return ngit_errors.ErrSinkClosed
	}
	if !repository.ValidName(name) {
		return ngit_errors.ErrInvalidRefName
	}

	var b strings.Builder
	b.WriteString(id.String())
	b.WriteByte(' ')
	b.WriteString(name)
	if !a.sentAny && len(a.caps) > 0 {
		b.WriteByte(0)
		for _, c := range a.caps {
			b.WriteByte(' ')
			b.WriteString(c)
		}
		b.WriteByte(' ')
	}
	b.WriteByte('\n')

	err := a.sink.WriteLine(b.String())
	// the sink may have written part of the frame; the stream is
	// dirty either way
	a.sentAny = true
	return err
}

// End terminates the advertisement stream. Legal in either state;
// once ended, further emissions fail with ErrSinkClosed.
func (a *Advertiser) End() error {
	if a.closed {
		return nil
	}
	a.closed = true
	return a.sink.End()
}
