package switching

import (
	"github.com/sarchlab/ethersim/mac"
	"github.com/sarchlab/ethersim/sim"
)

// HookPosSwitchLearn marks a table update. Item is the packet and Detail is
// a LearnDetail.
var HookPosSwitchLearn = &sim.HookPos{Name: "Switch Learn"}

// HookPosSwitchForward marks a forwarding decision. Item is the packet and
// Detail is a Decision.
var HookPosSwitchForward = &sim.HookPos{Name: "Switch Forward"}

// LearnDetail describes a table update.
type LearnDetail struct {
	Port    int
	MAC     mac.Address
	Changed bool
}

// DecisionKind tells how a switch handled a packet.
type DecisionKind int

// Decision kinds.
const (
	// Hit sends the packet out of the single port the destination was
	// learned on.
	Hit DecisionKind = iota

	// Flood sends the packet out of every open port but the arrival port.
	Flood

	// Filter discards the packet because the destination sits behind the
	// arrival port.
	Filter
)

func (k DecisionKind) String() string {
	switch k {
	case Hit:
		return "hit"
	case Flood:
		return "flood"
	case Filter:
		return "filter"
	}

	return "unknown"
}

// A Decision is what the switch did with one packet. Ports lists the output
// ports in ascending order.
type Decision struct {
	Kind  DecisionKind
	Ports []int
}
