package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/JamesChan/ngit"
	"github.com/JamesChan/ngit/advert"
	"github.com/JamesChan/ngit/object"
	"github.com/JamesChan/ngit/plot"
	"github.com/JamesChan/ngit/repository"
	"github.com/JamesChan/ngit/utils"
	"github.com/ergochat/readline"
)

var completer = readline.NewPrefixCompleter(
	readline.PcItem("help"),
	readline.PcItem("demo"),
	readline.PcItem("refs"),
	readline.PcItem("advertise"),
	readline.PcItem("plot"),
	readline.PcItem("listen"),
	readline.PcItem("fetch"),
	readline.PcItem("exit"),
	readline.PcItem("quit"),
)

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

type histEntry struct {
	label   string
	id      object.ID
	parents []object.ID
}

type REPL struct {
	ctx context.Context
	log utils.Logger
	cfg Config

	store   *object.MemStore
	refs    *repository.RefMap
	history []histEntry
	srv     *ngit.Server
}

func NewREPL(ctx context.Context, log utils.Logger, cfg Config) *REPL {
	return &REPL{
		ctx:   ctx,
		log:   log,
		cfg:   cfg,
		store: object.NewMemStore(),
		refs:  repository.NewRefMap(),
	}
}

// demo seeds a small forked-and-merged history with a branch head and
// an annotated tag, enough to exercise every REPL command.
func (r *REPL) demo() {
	r.store = object.NewMemStore()
	r.refs = repository.NewRefMap()
	r.history = r.history[:0]

	commit := func(label string, parents ...object.ID) object.ID {
		id := object.Sum(object.TypeCommit, []byte(label))
		r.store.Put(&object.Commit{Name: id, Parents: parents, Message: label})
		return id
	}

	root := commit("root")
	feat := commit("feat", root)
	trunk := commit("trunk", root)
	merge := commit("merge", trunk, feat)
	head := commit("head", merge)

	// newest first, the order the plot walker wants
	r.history = []histEntry{
		{"head", head, []object.ID{merge}},
		{"merge", merge, []object.ID{trunk, feat}},
		{"trunk", trunk, []object.ID{root}},
		{"feat", feat, []object.ID{root}},
		{"root", root, nil},
	}

	tag := &object.Tag{
		Name:    object.Sum(object.TypeTag, []byte("v1")),
		Target:  head,
		TagName: "v1",
	}
	r.store.Put(tag)

	r.refs.Set("refs/heads/master", head)
	r.refs.Set("refs/tags/v1", tag.Name)

	fmt.Printf("seeded %d objects, %d refs\n", r.store.Len(), r.refs.Len())
}

func (r *REPL) showRefs() {
	for _, ref := range r.refs.All() {
		fmt.Printf("%s %s\n", ref.ID, ref.Name)
	}
}

func (r *REPL) advertise() {
	adv := advert.New(advert.NewPlainSink(os.Stdout), r.store, object.MarkSet{})
	for _, c := range r.cfg.Capabilities {
		_ = adv.AdvertiseCapability(c)
	}
	_ = adv.SetDerefTags(r.cfg.DerefTags)
	if err := adv.Send(r.refs); err != nil {
		fmt.Println("advertise:", err)
		return
	}
	_ = adv.End()
}

func (r *REPL) plot() {
	if len(r.history) == 0 {
		fmt.Println("no history loaded, run `demo` first")
		return
	}

	walk := plot.NewWalk()
	for _, h := range r.history {
		walk.Add(h.id, h.parents...)
	}
	list := plot.NewCommitList()
	if err := list.Source(walk); err != nil {
		fmt.Println("plot:", err)
		return
	}
	if err := list.FillTo(len(r.history)); err != nil {
		fmt.Println("plot:", err)
		return
	}

	for i := 0; i < list.Len(); i++ {
		c := list.Get(i)
		pos := "-"
		if c.Lane() != nil {
			pos = fmt.Sprint(c.Lane().Position())
		}
		var passing []*plot.Lane
		list.FindPassingThrough(c, &passing)
		fmt.Printf("%3d  %s  lane=%-2s passing=%d  %s\n",
			i, c.ID().String()[:8], pos, len(passing), r.history[i].label)
	}
}

func (r *REPL) listen(addr string) {
	if r.srv != nil {
		fmt.Println("already listening")
		return
	}
	srv := ngit.NewServer(r.log, r.store, func() *repository.RefMap { return r.refs }, ngit.ServerOptions{
		Capabilities: r.cfg.Capabilities,
		DerefTags:    r.cfg.DerefTags,
	})
	if err := srv.Listen(r.ctx, addr); err != nil {
		fmt.Println("listen:", err)
		return
	}
	r.srv = srv
	fmt.Println("listening on", addr)
}

func (r *REPL) fetch(addr string) {
	ctx, cancel := context.WithTimeout(r.ctx, 10*time.Second)
	defer cancel()

	lines, err := ngit.NewClient(r.log).ReadAdvertisement(ctx, addr)
	if err != nil {
		fmt.Println("fetch:", err)
		return
	}
	for _, line := range lines {
		fmt.Print(line)
	}
}

func (r *REPL) help() {
	fmt.Print(`commands:
  demo             seed a fixture history, refs and a tag
  refs             list refs
  advertise        dump the ref advertisement to stdout
  plot             run the lane allocator over the history
  listen [addr]    serve advertisements (default from config)
  fetch <addr>     read an advertisement from a remote
  exit, quit
`)
}

func (r *REPL) dispatch(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true
	}
	switch fields[0] {
	case "help":
		r.help()
	case "demo":
		r.demo()
	case "refs":
		r.showRefs()
	case "advertise":
		r.advertise()
	case "plot":
		r.plot()
	case "listen":
		addr := r.cfg.Listen
		if len(fields) > 1 {
			addr = fields[1]
		}
		r.listen(addr)
	case "fetch":
		if len(fields) < 2 {
			fmt.Println("usage: fetch <addr>")
			return true
		}
		r.fetch(fields[1])
	case "exit", "quit":
		return false
	default:
		fmt.Println("unknown command, try `help`")
	}
	return true
}

func (r *REPL) Run() error {
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "ngit> ",
		HistoryFile:     "/tmp/ngit.readline",
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return err
	}
	defer l.Close()
	l.CaptureExitSignal()

	for {
		line, err := l.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if !r.dispatch(line) {
			break
		}
	}

	if r.srv != nil {
		return r.srv.Close()
	}
	return nil
}
