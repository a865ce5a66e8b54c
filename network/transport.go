package network

import (
	"fmt"

	"github.com/sarchlab/ethersim/sim"
)

// A Transport moves a packet across a link. Crossing a link is the only
// point where a packet transit may be deferred.
type Transport interface {
	Transmit(l *Link, from *Port, pkt *Packet) error
}

// DirectTransport delivers synchronously: the far port receives the packet
// before Transmit returns. Receive-side drops are reported by the receiving
// port, not returned to the sender.
type DirectTransport struct{}

// Transmit implements Transport.
func (DirectTransport) Transmit(l *Link, from *Port, pkt *Packet) error {
	_, _ = l.Other(from).ReceivePacket(pkt, from)
	return nil
}

// ScheduledTransport queues the packet on the link and schedules its
// delivery as an event on the engine, at the current virtual time.
type ScheduledTransport struct {
	engine sim.Engine
}

// NewScheduledTransport creates a transport that defers deliveries to the
// given engine.
func NewScheduledTransport(engine sim.Engine) *ScheduledTransport {
	if engine == nil {
		panic("scheduled transport requires an engine")
	}

	return &ScheduledTransport{engine: engine}
}

// Transmit implements Transport.
func (t *ScheduledTransport) Transmit(l *Link, from *Port, pkt *Packet) error {
	ln := l.laneFrom(from)
	ln.push(pkt)

	t.engine.Schedule(&DeliveryEvent{
		EventBase: sim.NewEventBase(t.engine.CurrentTime(), t),
		lane:      ln,
	})

	return nil
}

// Handle delivers the head of the lane the event refers to.
func (t *ScheduledTransport) Handle(e sim.Event) error {
	switch evt := e.(type) {
	case *DeliveryEvent:
		evt.lane.deliverHead()
	default:
		return fmt.Errorf("cannot handle event of type %T", e)
	}

	return nil
}

// DeliveryEvent is scheduled once per transmitted packet.
type DeliveryEvent struct {
	*sim.EventBase

	lane *lane
}

// Link returns the link the delivery crosses.
func (e *DeliveryEvent) Link() *Link {
	return e.lane.link
}
