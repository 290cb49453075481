package framework

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"
)

// Loop is a single-threaded cooperative loop. Tasks are executed in
// priority order within one goroutine, so they never run concurrently
// with each other. Other goroutines hand events over with Post.
type Loop struct {
	Interval time.Duration

	tasks   [PriorityLevels][]Task
	runners []Runnable

	events eventList
	lock   sync.Mutex

	wakeUpCh chan struct{}
}

// LoopAdder provides specific logic to add components to loop.
type LoopAdder interface {
	AddToLoop(*Loop)
}

type loopCtl struct {
	*Loop
}

type loopIteration struct {
	loopCtl
	ctx           context.Context
	time          time.Time
	priorityLevel int
	events        eventList
}

type eventList struct {
	head *eventItem
	tail *eventItem
}

type eventItem struct {
	ev   Event
	next *eventItem
}

func (l *eventList) append(item *eventItem) {
	if l.head == nil {
		l.head = item
	} else {
		l.tail.next = item
	}
	l.tail = item
}

func (l *eventList) splice(src *eventList) {
	l.head, l.tail, src.head, src.tail = src.head, src.tail, nil, nil
}

func (l *eventList) concat(lst *eventList) {
	if lst.head == nil {
		return
	}
	if l.head == nil {
		l.head = lst.head
	} else {
		l.tail.next = lst.head
	}
	l.tail = lst.tail
}

func (l *eventList) len() (n int) {
	for item := l.head; item != nil; item = item.next {
		n++
	}
	return
}

var (
	loopCtxKey = &Loop{}
)

// LoopCtlFrom gets LoopControl from context passed to Runnables
// started by the loop.
func LoopCtlFrom(ctx context.Context) LoopControl {
	return ctx.Value(loopCtxKey).(LoopControl)
}

// NewLoop creates a Loop.
func NewLoop() *Loop {
	return &Loop{Interval: 100 * time.Millisecond}
}

// Add adds LoopAdders.
func (l *Loop) Add(adders ...LoopAdder) *Loop {
	for _, adder := range adders {
		adder.AddToLoop(l)
	}
	return l
}

// AddTask registers tasks to the loop.
func (l *Loop) AddTask(priorityLevel int, tasks ...Task) *Loop {
	l.tasks[priorityLevel] = append(l.tasks[priorityLevel], tasks...)
	for _, task := range tasks {
		if runner, ok := task.(Runnable); ok {
			l.runners = append(l.runners, runner)
		}
	}
	return l
}

// AddRunnable adds Runnable implementions.
func (l *Loop) AddRunnable(runnables ...Runnable) *Loop {
	l.runners = append(l.runners, runnables...)
	return l
}

// Run implements Runnable.
func (l *Loop) Run(ctx context.Context) error {
	l.lock.Lock()
	if l.wakeUpCh == nil {
		l.wakeUpCh = make(chan struct{}, 1)
	}
	l.lock.Unlock()

	runner := NewRunnerWith(context.WithValue(ctx, loopCtxKey, &loopCtl{l}))
	runner.Go(l.runners...)
	defer runner.Wait()

	interval := l.Interval
	if interval == 0 {
		interval = 100 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.RunIteration(ctx)
		case <-l.wakeUpCh:
			l.RunIteration(ctx)
		}
	}
}

// Post implements LoopControl.
func (l *Loop) Post(ev Event) {
	l.lock.Lock()
	l.events.append(&eventItem{ev: ev})
	l.lock.Unlock()
}

// TriggerNext implements LoopControl.
func (l *Loop) TriggerNext() {
	l.lock.Lock()
	if l.wakeUpCh == nil {
		l.wakeUpCh = make(chan struct{}, 1)
	}
	ch := l.wakeUpCh
	l.lock.Unlock()
	select {
	case ch <- struct{}{}:
	default:
	}
}

// RunIteration runs all tasks once with the events posted so far.
// It is called by Run, and directly by tests driving the loop by hand.
func (l *Loop) RunIteration(ctx context.Context) {
	iter := &loopIteration{loopCtl: loopCtl{l}, time: time.Now()}
	l.lock.Lock()
	iter.events.splice(&l.events)
	l.lock.Unlock()
	iter.ctx = context.WithValue(ctx, loopCtxKey, iter)
	for i := 0; i < PriorityLevels; i++ {
		iter.priorityLevel = i
		for _, task := range l.tasks[i] {
			if err := task.Step(iter); err != nil {
				glog.Errorf("task error: %v", err)
			}
		}
	}
	if n := iter.events.len(); n > 0 {
		glog.V(2).Infof("%d events not processed", n)
	}
}

func (t *loopIteration) Context() context.Context {
	return t.ctx
}

func (t *loopIteration) Time() time.Time {
	return t.time
}

func (t *loopIteration) PriorityLevel() int {
	return t.priorityLevel
}

func (t *loopIteration) Events() EventStore {
	return t
}

type eventContext struct {
	item  *eventItem
	taken bool
	stop  bool
}

func (c *eventContext) CurrentEvent() Event { return c.item.ev }
func (c *eventContext) EventTaken()         { c.taken = true }
func (c *eventContext) StopProcessing()     { c.stop = true }

func (t *loopIteration) ProcessEvents(proc EventProcessor) {
	var evs, remains eventList
	evs.splice(&t.events)
	for evs.head != nil {
		ec := &eventContext{item: evs.head}
		evs.head = evs.head.next
		ec.item.next = nil
		proc.ProcessEvent(ec)
		if !ec.taken {
			remains.append(ec.item)
		}
		if ec.stop {
			remains.concat(&evs)
			break
		}
	}
	t.events = remains
}
