// Package ngit glues the advertisement encoder to the record
// transport: a Server advertises a repository's refs to every peer
// that connects, a Client collects the advertisement from a remote
// end.
package ngit

import (
	"context"
	"io"
	"sync/atomic"

	"github.com/JamesChan/ngit/advert"
	"github.com/JamesChan/ngit/object"
	"github.com/JamesChan/ngit/protocol"
	"github.com/JamesChan/ngit/repository"
	"github.com/JamesChan/ngit/utils"
	"github.com/google/uuid"
)

type ServerOptions struct {
	// Capabilities decorate the first advertisement line, in order.
	Capabilities []string
	// DerefTags adds the peeled "^{}" companion line per annotated
	// tag.
	DerefTags bool
	// Alternate, when set, contributes ".have" lines.
	Alternate advert.IDSource
}

// Server advertises refs over the record transport. Each accepted
// peer gets one advertisement session: the framed lines, the
// flush-pkt, then the connection closes.
type Server struct {
	log  utils.Logger
	net  *protocol.Net
	res  object.Resolver
	refs func() *repository.RefMap
	opts ServerOptions

	sessions atomic.Uint64
	lines    atomic.Uint64
}

// NewServer wires a server around a resolver and a ref snapshot
// provider. refs is called once per session, so the advertisement
// always reflects the current refs.
func NewServer(log utils.Logger, res object.Resolver, refs func() *repository.RefMap, opts ServerOptions) *Server {
	srv := &Server{
		log:  log,
		res:  res,
		refs: refs,
		opts: opts,
	}
	srv.net = protocol.NewNet(log, nil, srv.install, srv.destroy)
	return srv
}

func (srv *Server) Listen(ctx context.Context, addr string) error {
	return srv.net.Listen(ctx, addr)
}

func (srv *Server) Close() error {
	return srv.net.Close()
}

func (srv *Server) install(name string) protocol.FeedDrainCloserTraced {
	srv.sessions.Add(1)
	s := &serveSession{
		trace: uuid.Must(uuid.NewV7()).String(),
		log:   srv.log,
		recs:  srv.advertisement(),
	}
	srv.log.Info("serve: session opened", "name", name, "trace_id", s.trace)
	return s
}

func (srv *Server) destroy(name string, p protocol.Traced) {
	srv.log.Info("serve: session closed", "name", name, "trace_id", p.GetTraceId())
}

// advertisement renders the full advertisement for one session into
// framed records, flush-pkt included.
func (srv *Server) advertisement() protocol.Records {
	var out recordsDrainer
	adv := advert.New(advert.NewDrainerSink(context.Background(), &out), srv.res, object.MarkSet{})
	for _, c := range srv.opts.Capabilities {
		_ = adv.AdvertiseCapability(c) // pre-emission, cannot fail
	}
	_ = adv.SetDerefTags(srv.opts.DerefTags)

	if err := adv.Send(srv.refs()); err != nil {
		srv.log.Error("serve: advertisement failed", "err", err)
	}
	if srv.opts.Alternate != nil {
		if err := adv.IncludeAdditionalHaves(srv.opts.Alternate); err != nil {
			srv.log.Error("serve: alternate haves failed", "err", err)
		}
	}
	if err := adv.End(); err != nil {
		srv.log.Error("serve: flush failed", "err", err)
	}

	if n := len(out.recs); n > 0 {
		srv.lines.Add(uint64(n - 1)) // all but the flush-pkt
	}
	return out.recs
}

type recordsDrainer struct {
	recs protocol.Records
}

func (d *recordsDrainer) Drain(_ context.Context, recs protocol.Records) error {
	d.recs = append(d.recs, recs...)
	return nil
}

// serveSession feeds the prepared advertisement exactly once;
// inbound records are discarded, this server speaks only the opening
// phase.
type serveSession struct {
	trace  string
	log    utils.Logger
	recs   protocol.Records
	served bool
}

func (s *serveSession) Feed(ctx context.Context) (protocol.Records, error) {
	if s.served {
		return nil, io.EOF
	}
	s.served = true
	return s.recs, nil
}

func (s *serveSession) Drain(ctx context.Context, recs protocol.Records) error {
	s.log.Debug("serve: discarding inbound records", "count", len(recs), "trace_id", s.trace)
	return nil
}

func (s *serveSession) Close() error       { return nil }
func (s *serveSession) GetTraceId() string { return s.trace }

// Client reads advertisements from remote servers.
type Client struct {
	log utils.Logger
}

func NewClient(log utils.Logger) *Client {
	return &Client{log: log}
}

// ReadAdvertisement connects to addr and collects advertisement
// lines until the flush-pkt arrives. The connection is torn down
// before returning.
func (c *Client) ReadAdvertisement(ctx context.Context, addr string) ([]string, error) {
	q := utils.NewFDQueue[protocol.Records](64)
	n := protocol.NewNet(c.log, nil,
		func(name string) protocol.FeedDrainCloserTraced {
			return &clientSession{trace: uuid.Must(uuid.NewV7()).String(), q: q}
		},
		func(name string, p protocol.Traced) {})
	defer n.Close()

	// cancel before Close so blocked session feeds unwind first
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := n.Connect(ctx, addr); err != nil {
		return nil, err
	}

	var lines []string
	for {
		recs, err := q.Feed(ctx)
		if err != nil {
			return lines, err
		}
		for _, rec := range recs {
			if protocol.IsFlush(rec) {
				return lines, nil
			}
			lines = append(lines, string(protocol.Payload(rec)))
		}
	}
}

// clientSession has nothing to send; it hands everything received to
// the reader.
type clientSession struct {
	trace string
	q     *utils.FDQueue[protocol.Records]
}

func (s *clientSession) Feed(ctx context.Context) (protocol.Records, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (s *clientSession) Drain(ctx context.Context, recs protocol.Records) error {
	return s.q.Drain(ctx, recs)
}

func (s *clientSession) Close() error       { return s.q.Close() }
func (s *clientSession) GetTraceId() string { return s.trace }
