package tracing

import "sync"

// A Collector keeps every transit in memory.
type Collector struct {
	lock     sync.Mutex
	transits []Transit
}

// NewCollector creates an empty Collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Trace records the transit.
func (c *Collector) Trace(t Transit) {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.transits = append(c.transits, t)
}

// Transits returns the recorded transits in arrival order.
func (c *Collector) Transits() []Transit {
	c.lock.Lock()
	defer c.lock.Unlock()

	out := make([]Transit, len(c.transits))
	copy(out, c.transits)

	return out
}

// Filter returns the recorded transits of the given kind.
func (c *Collector) Filter(kind Kind) []Transit {
	c.lock.Lock()
	defer c.lock.Unlock()

	var out []Transit

	for _, t := range c.transits {
		if t.Kind == kind {
			out = append(out, t)
		}
	}

	return out
}

// Reset drops all the recorded transits.
func (c *Collector) Reset() {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.transits = nil
}
