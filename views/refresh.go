package views

import "sync"

// RefreshBroadcaster tells dependent views to re-fetch authoritative
// state after a mutating action. It replaces the incrementing
// refresh-trigger counter with an explicit observer: no shared version
// number, just a notification fan-out.
type RefreshBroadcaster struct {
	mu   sync.Mutex
	subs map[int]func()
	next int
}

func NewRefreshBroadcaster() *RefreshBroadcaster {
	return &RefreshBroadcaster{subs: make(map[int]func())}
}

// Subscribe registers fn and returns a token for Unsubscribe/Notify.
func (b *RefreshBroadcaster) Subscribe(fn func()) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	b.subs[b.next] = fn
	return b.next
}

func (b *RefreshBroadcaster) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, id)
}

// Notify invokes every subscriber except the listed tokens. The acting
// view excludes itself: it has already reconciled its own page and
// should not be reset to page 1.
func (b *RefreshBroadcaster) Notify(except ...int) {
	b.mu.Lock()
	fns := make([]func(), 0, len(b.subs))
	for id, fn := range b.subs {
		skip := false
		for _, ex := range except {
			if id == ex {
				skip = true
				break
			}
		}
		if !skip {
			fns = append(fns, fn)
		}
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
