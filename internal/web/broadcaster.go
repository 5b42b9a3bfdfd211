package web

import "sync"

// HeadingSample is one loop iteration's heading as pushed to /ws clients.
type HeadingSample struct {
	ThetaRad  float64 `json:"theta_rad"`
	Direction string  `json:"direction"`
	TimeUTC   string  `json:"time_utc"`
}

// HeadingBroadcaster fans per-iteration headings out to websocket
// subscribers. It keeps the most recent sample so a new subscriber gets an
// immediate value instead of waiting for the next loop tick.
type HeadingBroadcaster struct {
	mu       sync.RWMutex
	subs     map[int]chan HeadingSample
	nextID   int
	last     HeadingSample
	haveLast bool
}

func NewHeadingBroadcaster() *HeadingBroadcaster {
	return &HeadingBroadcaster{subs: make(map[int]chan HeadingSample)}
}

func (b *HeadingBroadcaster) Subscribe(buffer int) (int, <-chan HeadingSample) {
	if buffer <= 0 {
		buffer = 2
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan HeadingSample, buffer)
	if b.haveLast {
		ch <- b.last
	}
	b.subs[id] = ch
	return id, ch
}

func (b *HeadingBroadcaster) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// Publish delivers the sample to every subscriber without blocking; a
// subscriber that cannot keep up misses samples rather than stalling the
// acquisition loop.
func (b *HeadingBroadcaster) Publish(s HeadingSample) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.last = s
	b.haveLast = true
	for _, ch := range b.subs {
		select {
		case ch <- s:
		default:
		}
	}
}
