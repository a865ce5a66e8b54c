package monitoring

import (
	"sync"
	"time"
)

// A ProgressBar counts packets handed to the network out of a known total.
// Refused packets count as done but are reported apart.
type ProgressBar struct {
	lock sync.Mutex

	id        string
	name      string
	startTime time.Time
	total     uint64
	sent      uint64
	refused   uint64
}

// ProgressBarStatus is a snapshot of a progress bar.
type ProgressBarStatus struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartTime time.Time `json:"start_time"`
	Total     uint64    `json:"total"`
	Sent      uint64    `json:"sent"`
	Refused   uint64    `json:"refused"`
}

// Done returns how many packets have been handled.
func (s ProgressBarStatus) Done() uint64 {
	return s.Sent + s.Refused
}

// Status returns a snapshot of the bar.
func (b *ProgressBar) Status() ProgressBarStatus {
	b.lock.Lock()
	defer b.lock.Unlock()

	return ProgressBarStatus{
		ID:        b.id,
		Name:      b.name,
		StartTime: b.startTime,
		Total:     b.total,
		Sent:      b.sent,
		Refused:   b.refused,
	}
}

// Record counts one packet, as refused if err is not nil.
func (b *ProgressBar) Record(err error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	if err != nil {
		b.refused++
		return
	}

	b.sent++
}
