package network

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/sarchlab/ethersim/sim"
)

var portSerial atomic.Uint64

// PortID names a port by its device and number.
type PortID struct {
	Device string
	Number int
}

func (id PortID) String() string {
	return fmt.Sprintf("%s.Port%d", id.Device, id.Number)
}

// ParsePortID reads "S1.Port2" or the short form "S1.2".
func ParsePortID(s string) (PortID, error) {
	dot := strings.LastIndex(s, ".")
	if dot <= 0 || dot == len(s)-1 {
		return PortID{}, fmt.Errorf("invalid port id %q", s)
	}

	numStr := strings.TrimPrefix(s[dot+1:], "Port")

	n, err := strconv.Atoi(numStr)
	if err != nil || n < 1 {
		return PortID{}, fmt.Errorf("invalid port number in %q", s)
	}

	return PortID{Device: s[:dot], Number: n}, nil
}

// A Port is a device's attachment point. It owns at most one Link and gates
// traffic with its enabled flag. All methods are safe for concurrent use.
type Port struct {
	lock sync.Mutex

	serial      uint64
	number      int
	owner       *Device
	description string
	enabled     bool
	link        *Link
}

func newPort(owner *Device, number int) *Port {
	return &Port{
		serial:      portSerial.Add(1),
		number:      number,
		owner:       owner,
		description: "Port " + strconv.Itoa(number),
	}
}

// Number returns the 1-based port number.
func (p *Port) Number() int {
	return p.number
}

// Device returns the device that owns the port.
func (p *Port) Device() *Device {
	return p.owner
}

// ID returns the port's identifier.
func (p *Port) ID() PortID {
	return PortID{Device: p.owner.Name(), Number: p.number}
}

// Name returns the port's identifier rendered as a string.
func (p *Port) Name() string {
	return p.ID().String()
}

// Description returns the human readable description of the port.
func (p *Port) Description() string {
	p.lock.Lock()
	defer p.lock.Unlock()

	return p.description
}

// SetDescription replaces the description of the port.
func (p *Port) SetDescription(d string) {
	p.lock.Lock()
	defer p.lock.Unlock()

	p.description = d
}

// IsOpen reports whether the port is enabled.
func (p *Port) IsOpen() bool {
	p.lock.Lock()
	defer p.lock.Unlock()

	return p.enabled
}

// Open enables the port.
func (p *Port) Open() error {
	p.lock.Lock()

	if p.enabled {
		p.lock.Unlock()
		p.owner.logger.Infow(ErrPortAlreadyOpen.Error(), "port", p.Name())

		return ErrPortAlreadyOpen
	}

	p.enabled = true
	p.lock.Unlock()

	return nil
}

// Close disables the port.
func (p *Port) Close() error {
	p.lock.Lock()

	if !p.enabled {
		p.lock.Unlock()
		p.owner.logger.Infow(ErrPortAlreadyClosed.Error(), "port", p.Name())

		return ErrPortAlreadyClosed
	}

	p.enabled = false
	p.lock.Unlock()

	return nil
}

// Link returns the link plugged into the port, or nil.
func (p *Port) Link() *Link {
	p.lock.Lock()
	defer p.lock.Unlock()

	return p.link
}

// Peer returns the port at the other end of the link, or nil.
func (p *Port) Peer() *Port {
	l := p.Link()
	if l == nil {
		return nil
	}

	return l.Other(p)
}

// CreateLink connects the port to other. It fails with ErrLinkExists if
// either port is already linked.
func (p *Port) CreateLink(other *Port) (*Link, error) {
	if other == nil {
		panic("cannot link to a nil port")
	}

	if other == p {
		p.owner.logger.Warnw(ErrSelfLink.Error(), "port", p.Name())
		return nil, ErrSelfLink
	}

	unlock := lockPair(p, other)

	if p.link != nil || other.link != nil {
		unlock()
		p.owner.logger.Warnw(ErrLinkExists.Error(),
			"port", p.Name(), "peer", other.Name())

		return nil, ErrLinkExists
	}

	l := newLink(p, other, p.owner.transport)
	p.link = l
	other.link = l

	unlock()

	p.owner.RaiseHook(HookPosLinkCreate, l, nil)

	return l, nil
}

// DeleteLink removes the port's link from both of its ends.
func (p *Port) DeleteLink() error {
	for {
		l := p.Link()
		if l == nil {
			p.owner.logger.Infow(ErrNoLink.Error(), "port", p.Name())
			return ErrNoLink
		}

		peer := l.Other(p)
		unlock := lockPair(p, peer)

		if p.link != l {
			unlock()
			continue
		}

		p.link = nil
		peer.link = nil

		unlock()

		p.owner.RaiseHook(HookPosLinkDelete, l, nil)

		return nil
	}
}

// SendPacket hands the packet to the port at the other end of the link.
func (p *Port) SendPacket(pkt *Packet) error {
	p.lock.Lock()
	enabled, l := p.enabled, p.link
	p.lock.Unlock()

	if !enabled {
		return p.drop(pkt, nil, ErrPortDisabled, "unable to send packet")
	}

	if l == nil {
		return p.drop(pkt, nil, ErrPortNotLinked, "unable to send packet")
	}

	peer := l.Other(p)
	p.owner.RaiseHook(HookPosPortSend, pkt, PortEvent{Port: p, Peer: peer})

	return l.transport.Transmit(l, p, pkt)
}

// ReceivePacket passes the packet up to the owning device. A disabled port
// drops the packet.
func (p *Port) ReceivePacket(pkt *Packet, sender *Port) (Delivery, error) {
	if !p.IsOpen() {
		return Delivery{}, p.drop(
			pkt, sender, ErrPortDisabled, "unable to receive packet")
	}

	d := Delivery{Packet: pkt, Sender: sender, Receiver: p}

	p.owner.RaiseHook(HookPosPortRecv, pkt, PortEvent{Port: p, Peer: sender})
	p.owner.ReceivePacket(d)

	return d, nil
}

func (p *Port) drop(pkt *Packet, peer *Port, err error, what string) error {
	p.owner.logger.Warnw(what,
		"reason", err.Error(),
		"port", p.Name(),
		"description", p.Description(),
		"packet", pkt.ID(),
	)

	p.owner.RaiseHook(HookPosPortDrop, pkt,
		PortEvent{Port: p, Peer: peer, Err: err})

	return err
}

// lockPair locks both ports in a global order and returns the unlock func.
func lockPair(a, b *Port) func() {
	first, second := a, b
	if second.serial < first.serial {
		first, second = second, first
	}

	first.lock.Lock()
	second.lock.Lock()

	return func() {
		second.lock.Unlock()
		first.lock.Unlock()
	}
}

var _ sim.Named = (*Port)(nil)
