// Package tracing turns the hooks raised by devices and switches into
// transit records and hands them to tracers.
package tracing

import (
	"github.com/sarchlab/ethersim/mac"
	"github.com/sarchlab/ethersim/network"
	"github.com/sarchlab/ethersim/sim"
)

// Kind tells what happened to a packet.
type Kind string

// Transit kinds.
const (
	KindSend     Kind = "send"
	KindRecv     Kind = "recv"
	KindDrop     Kind = "drop"
	KindDeliver  Kind = "deliver"
	KindLearn    Kind = "learn"
	KindForward  Kind = "forward"
	KindLinkUp   Kind = "link_up"
	KindLinkDown Kind = "link_down"
)

// A Transit is one observation of a packet or a link at a device.
type Transit struct {
	Time        sim.VTime
	Kind        Kind
	Device      string
	Port        int
	Peer        string
	PacketID    string
	Source      mac.Address
	Destination mac.Address
	Size        int
	Detail      string

	// Packet is the observed packet, nil for link events.
	Packet *network.Packet
}

// A Tracer receives transits.
type Tracer interface {
	Trace(t Transit)
}
