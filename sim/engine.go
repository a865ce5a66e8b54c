package sim

// TimeTeller can be used to get the current time.
type TimeTeller interface {
	CurrentTime() VTime
}

// EventScheduler can be used to schedule future events.
type EventScheduler interface {
	Schedule(e Event)
}

// An Engine is a unit that keeps the discrete event simulation run.
type Engine interface {
	Hookable
	TimeTeller
	EventScheduler

	// Run processes all the events until the queue drains. The first error
	// returned by a handler stops the run.
	Run() error

	// Pause blocks event processing until Continue is called.
	Pause()

	// Continue resumes a paused engine.
	Continue()
}
