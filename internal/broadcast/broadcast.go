// Package broadcast implements the unaddressed, payload-less change signal
// used to fan out store mutations to independently mounted consumers.
// Subscribers re-read current state instead of receiving deltas, so delivery
// only has to be at-least-once; back-to-back notifications may coalesce.
package broadcast

import "sync"

type Broadcaster struct {
	mu   sync.Mutex
	subs map[int]chan struct{}
	next int
}

func New() *Broadcaster {
	return &Broadcaster{subs: make(map[int]chan struct{})}
}

// Subscription is a cancellable handle to the broadcaster. Cancel on
// unmount; reads from C after Cancel return immediately.
type Subscription struct {
	C      <-chan struct{}
	cancel func()
}

func (s *Subscription) Cancel() {
	s.cancel()
}

// Subscribe attaches a new consumer. The returned channel holds at most one
// pending signal.
func (b *Broadcaster) Subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan struct{}, 1)
	b.subs[id] = ch

	var once sync.Once
	return &Subscription{
		C: ch,
		cancel: func() {
			once.Do(func() {
				b.mu.Lock()
				delete(b.subs, id)
				b.mu.Unlock()
				close(ch)
			})
		},
	}
}

// Notify signals every subscriber. A subscriber that already has a pending
// signal is skipped; it will re-read state once and observe this mutation.
func (b *Broadcaster) Notify() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
