package switching

import (
	"sync"

	"github.com/sarchlab/ethersim/mac"
)

// A Row is one entry of a learning table.
type Row struct {
	Port int
	MAC  mac.Address
}

// Table maps switch port numbers to the MAC address last seen arriving on
// each port. A port holds at most one address.
type Table interface {
	// Learn records addr as the address behind port. It returns false if the
	// entry already held addr.
	Learn(port int, addr mac.Address) bool

	// Lookup returns the first port, in learning order, whose entry is addr.
	Lookup(addr mac.Address) (int, bool)

	// Entry returns the address learned on port.
	Entry(port int) (mac.Address, bool)

	// Entries returns all rows in learning order.
	Entries() []Row

	// Len returns the number of learned ports.
	Len() int
}

// NewTable creates an empty Table that is safe for concurrent use.
func NewTable() Table {
	return &table{
		byPort: make(map[int]mac.Address),
	}
}

type table struct {
	lock   sync.RWMutex
	byPort map[int]mac.Address
	order  []int
}

func (t *table) Learn(port int, addr mac.Address) bool {
	t.lock.Lock()
	defer t.lock.Unlock()

	old, found := t.byPort[port]
	if found && old == addr {
		return false
	}

	if !found {
		t.order = append(t.order, port)
	}

	t.byPort[port] = addr

	return true
}

func (t *table) Lookup(addr mac.Address) (int, bool) {
	t.lock.RLock()
	defer t.lock.RUnlock()

	for _, port := range t.order {
		if t.byPort[port] == addr {
			return port, true
		}
	}

	return 0, false
}

func (t *table) Entry(port int) (mac.Address, bool) {
	t.lock.RLock()
	defer t.lock.RUnlock()

	addr, found := t.byPort[port]

	return addr, found
}

func (t *table) Entries() []Row {
	t.lock.RLock()
	defer t.lock.RUnlock()

	entries := make([]Row, 0, len(t.order))
	for _, port := range t.order {
		entries = append(entries, Row{Port: port, MAC: t.byPort[port]})
	}

	return entries
}

func (t *table) Len() int {
	t.lock.RLock()
	defer t.lock.RUnlock()

	return len(t.order)
}
