package shard

// Window bounds the number of tasks one sender may have in flight on
// other shards' mailboxes. Acquire blocks while the window is full;
// receivers call Release when a task completes. Keeps dispatch memory
// predictable without bounding the mailboxes themselves.
type Window struct {
	slots chan struct{}
}

func NewWindow(n int) *Window {
	return &Window{slots: make(chan struct{}, n)}
}

func (w *Window) Acquire() {
	w.slots <- struct{}{}
}

func (w *Window) Release() {
	<-w.slots
}
