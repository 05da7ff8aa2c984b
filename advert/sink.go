package advert

import (
	"context"
	"io"

	"github.com/JamesChan/ngit/protocol"
)

// LineSink accepts one already-formatted advertisement line at a
// time. Lines always end with LF and are never empty. End terminates
// the stream; what that means on the wire belongs to the sink.
type LineSink interface {
	WriteLine(s string) error
	End() error
}

// PktLineSink frames every line as a packet line on w and ends the
// stream with a flush-pkt.
type PktLineSink struct {
	w io.Writer
}

func NewPktLineSink(w io.Writer) *PktLineSink {
	return &PktLineSink{w: w}
}

func (s *PktLineSink) WriteLine(line string) error {
	_, err := s.w.Write(protocol.Record([]byte(line)))
	return err
}

func (s *PktLineSink) End() error {
	_, err := s.w.Write(protocol.FlushPkt)
	return err
}

// PlainSink writes lines bare, LF-separated, with no end-of-stream
// marker. The REPL dumps advertisements through it.
type PlainSink struct {
	w io.Writer
}

func NewPlainSink(w io.Writer) *PlainSink {
	return &PlainSink{w: w}
}

func (s *PlainSink) WriteLine(line string) error {
	_, err := io.WriteString(s.w, line)
	return err
}

func (s *PlainSink) End() error {
	return nil
}

// DrainerSink forwards each framed line to a record drainer, one
// record per line; End drains the flush-pkt. It is how an
// advertisement rides the peer transport.
type DrainerSink struct {
	ctx context.Context
	d   protocol.Drainer
}

func NewDrainerSink(ctx context.Context, d protocol.Drainer) *DrainerSink {
	return &DrainerSink{ctx: ctx, d: d}
}

func (s *DrainerSink) WriteLine(line string) error {
	return s.d.Drain(s.ctx, protocol.Records{protocol.Record([]byte(line))})
}

func (s *DrainerSink) End() error {
	return s.d.Drain(s.ctx, protocol.Records{protocol.FlushPkt})
}
