package sim

import (
	"fmt"
	"reflect"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// A ParallelEngine is an event engine that runs all the events that share the
// earliest timestamp concurrently. Events scheduled while a round is running
// are picked up by a later round, even when they carry the same timestamp.
type ParallelEngine struct {
	*HookableBase

	nowLock sync.RWMutex
	now     VTime
	queue   EventQueue

	maxGoRoutine int

	isPaused     bool
	isPausedLock sync.Mutex
	pauseLock    sync.Mutex
}

// NewParallelEngine creates a ParallelEngine.
func NewParallelEngine() *ParallelEngine {
	e := new(ParallelEngine)
	e.HookableBase = NewHookableBase()
	e.queue = NewEventQueue()
	e.maxGoRoutine = runtime.GOMAXPROCS(0)

	return e
}

func (e *ParallelEngine) readNow() VTime {
	e.nowLock.RLock()
	defer e.nowLock.RUnlock()

	return e.now
}

func (e *ParallelEngine) writeNow(t VTime) {
	e.nowLock.Lock()
	e.now = t
	e.nowLock.Unlock()
}

// Schedule registers an event to happen in the future.
func (e *ParallelEngine) Schedule(evt Event) {
	now := e.readNow()
	if evt.Time() < now {
		panic(fmt.Sprintf(
			"cannot schedule event in the past, evt %s @ %d, now %d",
			reflect.TypeOf(evt), evt.Time(), now,
		))
	}

	e.queue.Push(evt)
}

// Run processes all the events scheduled in the ParallelEngine.
func (e *ParallelEngine) Run() error {
	for {
		e.pauseLock.Lock()

		batch := e.nextRound()
		if len(batch) == 0 {
			e.pauseLock.Unlock()
			return nil
		}

		err := e.runRound(batch)

		e.pauseLock.Unlock()

		if err != nil {
			return err
		}
	}
}

func (e *ParallelEngine) nextRound() []Event {
	head := e.queue.Peek()
	if head == nil {
		return nil
	}

	now := head.Time()
	e.writeNow(now)

	var batch []Event
	for {
		evt := e.queue.Peek()
		if evt == nil || evt.Time() != now {
			break
		}

		batch = append(batch, e.queue.Pop())
	}

	return batch
}

func (e *ParallelEngine) runRound(batch []Event) error {
	var g errgroup.Group
	g.SetLimit(e.maxGoRoutine)

	for _, evt := range batch {
		g.Go(func() error {
			return e.handle(evt)
		})
	}

	return g.Wait()
}

func (e *ParallelEngine) handle(evt Event) error {
	hookCtx := HookCtx{
		Domain: e,
		Now:    evt.Time(),
		Pos:    HookPosBeforeEvent,
		Item:   evt,
	}
	e.InvokeHook(hookCtx)

	err := evt.Handler().Handle(evt)

	hookCtx.Pos = HookPosAfterEvent
	e.InvokeHook(hookCtx)

	return err
}

// Pause prevents the engine from starting another round until Continue is
// called.
func (e *ParallelEngine) Pause() {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	if e.isPaused {
		return
	}

	e.pauseLock.Lock()
	e.isPaused = true
}

// Continue resumes a paused engine.
func (e *ParallelEngine) Continue() {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	if !e.isPaused {
		return
	}

	e.pauseLock.Unlock()
	e.isPaused = false
}

// CurrentTime returns the timestamp of the round being processed.
func (e *ParallelEngine) CurrentTime() VTime {
	return e.readNow()
}
