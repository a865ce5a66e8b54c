package network

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/sarchlab/ethersim/mac"
	"github.com/sarchlab/ethersim/sim"
)

// A Delivery is a packet that has crossed a link. Sender is the port on the
// far end; Receiver is the local port it arrived on.
type Delivery struct {
	Packet   *Packet
	Sender   *Port
	Receiver *Port
}

// An Emission asks the device to send a packet out of one of its ports.
type Emission struct {
	Port   int
	Packet *Packet
}

// Behavior decides what a device does with a packet it receives. Devices
// run the returned emissions through their regular send path.
type Behavior interface {
	OnReceive(dev *Device, d Delivery) []Emission
}

// NodeBehavior is the terminal behavior of a host: it observes packets and
// never forwards them.
type NodeBehavior struct{}

// OnReceive implements Behavior.
func (NodeBehavior) OnReceive(*Device, Delivery) []Emission {
	return nil
}

// A Device is a named entity that owns a fixed set of numbered ports and a
// MAC address.
type Device struct {
	*sim.HookableBase

	name     string
	mac      mac.Address
	ports    []*Port
	behavior Behavior

	transport Transport
	logger    *zap.SugaredLogger
	clock     sim.TimeTeller
	network   *Network
}

// NewNode creates a standalone host with the given number of ports.
func NewNode(name string, numPorts int) *Device {
	return MakeBuilder().WithNumPorts(numPorts).Build(name)
}

// Name returns the name of the device.
func (d *Device) Name() string {
	return d.name
}

// MAC returns the hardware address of the device.
func (d *Device) MAC() mac.Address {
	return d.mac
}

// Behavior returns the forwarding behavior of the device.
func (d *Device) Behavior() Behavior {
	return d.behavior
}

// Network returns the network the device is registered in, or nil.
func (d *Device) Network() *Network {
	return d.network
}

// NumPorts returns the number of ports.
func (d *Device) NumPorts() int {
	return len(d.ports)
}

// Ports returns the ports ordered by number.
func (d *Device) Ports() []*Port {
	ports := make([]*Port, len(d.ports))
	copy(ports, d.ports)

	return ports
}

// GetPort returns port n, counting from 1. An out of range number is a
// programming error and panics.
func (d *Device) GetPort(n int) *Port {
	if n < 1 || n > len(d.ports) {
		panic(fmt.Sprintf(
			"port %d is not available on device %s, valid range is 1..%d",
			n, d.name, len(d.ports)))
	}

	return d.ports[n-1]
}

// BuildPacket creates a packet from this device to the destination.
func (d *Device) BuildPacket(destination mac.Address, data []byte) *Packet {
	return NewPacket(d.mac, destination, data)
}

// SendPacket sends the packet out of port n.
func (d *Device) SendPacket(pkt *Packet, n int) error {
	return d.GetPort(n).SendPacket(pkt)
}

// ReceivePacket is called by a port that accepted a packet. The device
// observes the packet and then lets its behavior decide where to send it.
func (d *Device) ReceivePacket(dl Delivery) Delivery {
	d.RaiseHook(HookPosDeviceRecv, dl.Packet, dl)

	d.logger.Debugw("receiving packet",
		"port", dl.Receiver.Number(),
		"packet", dl.Packet.ID(),
		"src", dl.Packet.Source().String(),
		"dst", dl.Packet.Destination().String(),
	)

	for _, em := range d.behavior.OnReceive(d, dl) {
		_ = d.SendPacket(em.Packet, em.Port)
	}

	return dl
}

// InvokeHook triggers the hooks on the device and on its network.
func (d *Device) InvokeHook(ctx sim.HookCtx) {
	d.HookableBase.InvokeHook(ctx)

	if d.network != nil {
		d.network.InvokeHook(ctx)
	}
}

// Logger returns the device logger.
func (d *Device) Logger() *zap.SugaredLogger {
	return d.logger
}

// RaiseHook invokes the hooks at pos with the device as the domain. It does
// nothing if no hook is attached to the device or its network.
func (d *Device) RaiseHook(pos *sim.HookPos, item, detail any) {
	if d.NumHooks() == 0 && (d.network == nil || d.network.NumHooks() == 0) {
		return
	}

	d.InvokeHook(sim.HookCtx{
		Domain: d,
		Now:    d.CurrentTime(),
		Pos:    pos,
		Item:   item,
		Detail: detail,
	})
}

// CurrentTime returns the virtual time of the device's engine, or 0 when
// deliveries are synchronous.
func (d *Device) CurrentTime() sim.VTime {
	if d.clock == nil {
		return 0
	}

	return d.clock.CurrentTime()
}
