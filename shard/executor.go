package shard

import (
	"github.com/eapache/channels"
)

// Executor is one shard's single-threaded execution domain: a goroutine
// draining a mailbox of tasks in submission order. All cross-shard work
// goes through Submit; nothing else may touch shard-owned state.
//
// The mailbox is unbounded so that two shards dispatching into each
// other can never deadlock; senders bound their own in-flight work with
// a Window instead.
type Executor struct {
	id   int
	mail *channels.InfiniteChannel
	done chan struct{}
}

func newExecutor(id int) *Executor {
	e := &Executor{
		id:   id,
		mail: channels.NewInfiniteChannel(),
		done: make(chan struct{}),
	}
	go e.run()
	return e
}

func (e *Executor) run() {
	defer close(e.done)
	for v := range e.mail.Out() {
		v.(func())()
	}
}

func (e *Executor) ID() int {
	return e.id
}

// Submit enqueues fn on the shard. Tasks from one sender execute in
// submission order. Submit never blocks.
func (e *Executor) Submit(fn func()) {
	e.mail.In() <- fn
}

// stop closes the mailbox and waits for queued tasks to drain.
func (e *Executor) stop() {
	e.mail.Close()
	<-e.done
}

// Group owns one Executor per shard.
type Group struct {
	execs []*Executor
}

// NewGroup starts n shard executors.
func NewGroup(n int) *Group {
	g := &Group{execs: make([]*Executor, n)}
	for i := range g.execs {
		g.execs[i] = newExecutor(i)
	}
	return g
}

func (g *Group) Count() int {
	return len(g.execs)
}

// Shard returns the executor for shard i.
func (g *Group) Shard(i int) *Executor {
	return g.execs[i]
}

// Stop drains and stops every executor. Submitting after Stop panics.
func (g *Group) Stop() {
	for _, e := range g.execs {
		e.stop()
	}
}
