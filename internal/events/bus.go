package events

import (
	"container/heap"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrInvalidKind = errors.New("events: invalid kind")
	ErrBusStopped  = errors.New("events: bus stopped")
)

// DefaultCelebrationDuration is how long a celebration stays visible before
// the matching KindCelebrateEnd event fires.
const DefaultCelebrationDuration = 2 * time.Second

type Kind string

const (
	KindCelebrate    Kind = "celebrate"
	KindCelebrateEnd Kind = "celebrate_end"
)

type Event struct {
	Kind    Kind
	HabitID string
	Name    string
	Gain    int
	Streak  int
	// At is when the event becomes due. A zero At means now.
	At time.Time
}

type queueItem struct {
	event Event
	seq   uint64
}

type priorityQueue []queueItem

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].event.At.Equal(pq[j].event.At) {
		return pq[i].seq < pq[j].seq
	}
	return pq[i].event.At.Before(pq[j].event.At)
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
}

func (pq *priorityQueue) Push(x any) {
	*pq = append(*pq, x.(queueItem))
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[0 : n-1]
	return item
}

// Bus delivers events on a buffered channel in due order. Publishing never
// blocks; when the consumer falls behind, events are dropped and counted.
type Bus struct {
	mu       sync.Mutex
	queue    priorityQueue
	seq      uint64
	out      chan Event
	wakeup   chan struct{}
	stopCh   chan struct{}
	doneCh   chan struct{}
	started  bool
	stopped  bool
	dropped  uint64
	duration time.Duration
	now      func() time.Time
}

type Option func(*Bus)

// WithCelebrationDuration sets the delay between a celebration and its end.
func WithCelebrationDuration(d time.Duration) Option {
	return func(b *Bus) {
		if d > 0 {
			b.duration = d
		}
	}
}

func NewBus(bufferSize int, opts ...Option) *Bus {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	b := &Bus{
		queue:    make(priorityQueue, 0),
		out:      make(chan Event, bufferSize),
		wakeup:   make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
		duration: DefaultCelebrationDuration,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Bus) C() <-chan Event {
	return b.out
}

func (b *Bus) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started || b.stopped {
		return
	}
	b.started = true
	heap.Init(&b.queue)
	go b.loop()
}

// Stop halts delivery and closes C. Pending events are discarded.
func (b *Bus) Stop() {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return
	}
	b.stopped = true
	close(b.stopCh)
	started := b.started
	b.mu.Unlock()
	if !started {
		close(b.out)
		return
	}
	<-b.doneCh
}

func (b *Bus) Publish(ev Event) error {
	if ev.Kind == "" {
		return ErrInvalidKind
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return ErrBusStopped
	}
	if ev.At.IsZero() {
		ev.At = b.now()
	}
	b.seq++
	heap.Push(&b.queue, queueItem{event: ev, seq: b.seq})
	b.signalWakeup()
	return nil
}

// Celebrate publishes a KindCelebrate event now and schedules the matching
// KindCelebrateEnd after the celebration duration.
func (b *Bus) Celebrate(habitID, name string, gain, streak int) error {
	now := b.now()
	start := Event{Kind: KindCelebrate, HabitID: habitID, Name: name, Gain: gain, Streak: streak, At: now}
	if err := b.Publish(start); err != nil {
		return err
	}
	end := start
	end.Kind = KindCelebrateEnd
	end.At = now.Add(b.duration)
	return b.Publish(end)
}

func (b *Bus) Dropped() uint64 {
	return atomic.LoadUint64(&b.dropped)
}

func (b *Bus) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

func (b *Bus) loop() {
	defer close(b.doneCh)
	defer close(b.out)

	var timer *time.Timer
	for {
		next, hasNext := b.peek()
		if !hasNext {
			select {
			case <-b.wakeup:
				continue
			case <-b.stopCh:
				return
			}
		}

		wait := next.At.Sub(b.now())
		if wait < 0 {
			wait = 0
		}
		timer = resetTimer(timer, wait)

		select {
		case <-timer.C:
			for _, ev := range b.popDue(b.now()) {
				select {
				case b.out <- ev:
				default:
					atomic.AddUint64(&b.dropped, 1)
				}
			}
		case <-b.wakeup:
			continue
		case <-b.stopCh:
			stopTimer(timer)
			return
		}
	}
}

func (b *Bus) signalWakeup() {
	select {
	case b.wakeup <- struct{}{}:
	default:
	}
}

func (b *Bus) peek() (Event, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.queue) == 0 {
		return Event{}, false
	}
	return b.queue[0].event, true
}

func (b *Bus) popDue(now time.Time) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Event, 0)
	for len(b.queue) > 0 {
		next := b.queue[0].event
		if next.At.After(now) {
			break
		}
		item := heap.Pop(&b.queue).(queueItem)
		out = append(out, item.event)
	}
	return out
}

func resetTimer(timer *time.Timer, d time.Duration) *time.Timer {
	if timer == nil {
		return time.NewTimer(d)
	}
	stopTimer(timer)
	timer.Reset(d)
	return timer
}

func stopTimer(timer *time.Timer) {
	if timer == nil {
		return
	}
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}
