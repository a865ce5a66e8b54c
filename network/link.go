package network

import "sync"

// A Link is the cable between exactly two ports. Both ends reference the
// same Link until either end deletes it.
type Link struct {
	ends      [2]*Port
	transport Transport
	lanes     [2]*lane
}

func newLink(a, b *Port, transport Transport) *Link {
	if transport == nil {
		transport = DirectTransport{}
	}

	l := &Link{
		ends:      [2]*Port{a, b},
		transport: transport,
	}

	l.lanes[0] = &lane{link: l, from: a, to: b}
	l.lanes[1] = &lane{link: l, from: b, to: a}

	return l
}

// Name returns a name built from the two ends.
func (l *Link) Name() string {
	return l.ends[0].Name() + "-" + l.ends[1].Name()
}

// Ends returns the two ports of the link.
func (l *Link) Ends() (*Port, *Port) {
	return l.ends[0], l.ends[1]
}

// EndIDs returns the identifiers of the two ports of the link.
func (l *Link) EndIDs() [2]PortID {
	return [2]PortID{l.ends[0].ID(), l.ends[1].ID()}
}

// Has reports whether p is one of the ends.
func (l *Link) Has(p *Port) bool {
	return l.ends[0] == p || l.ends[1] == p
}

// Other returns the end that is not p. It panics if p is not an end.
func (l *Link) Other(p *Port) *Port {
	switch p {
	case l.ends[0]:
		return l.ends[1]
	case l.ends[1]:
		return l.ends[0]
	}

	panic("port " + p.Name() + " is not connected to link " + l.Name())
}

// IsUp reports whether both ends still reference the link.
func (l *Link) IsUp() bool {
	return l.ends[0].Link() == l
}

// InFlight returns the number of packets queued on the link that have not
// reached the far end.
func (l *Link) InFlight() int {
	return l.lanes[0].len() + l.lanes[1].len()
}

func (l *Link) laneFrom(p *Port) *lane {
	if p == l.ends[0] {
		return l.lanes[0]
	}

	if p == l.ends[1] {
		return l.lanes[1]
	}

	panic("port " + p.Name() + " is not connected to link " + l.Name())
}

// A lane is one direction of a link. Packets leave a lane in the order they
// entered it.
type lane struct {
	link *Link
	from *Port
	to   *Port

	queueLock sync.Mutex
	queue     []*Packet

	deliverLock sync.Mutex
}

func (ln *lane) push(pkt *Packet) {
	ln.queueLock.Lock()
	ln.queue = append(ln.queue, pkt)
	ln.queueLock.Unlock()
}

func (ln *lane) pop() *Packet {
	ln.queueLock.Lock()
	defer ln.queueLock.Unlock()

	if len(ln.queue) == 0 {
		return nil
	}

	pkt := ln.queue[0]
	ln.queue[0] = nil
	ln.queue = ln.queue[1:]

	return pkt
}

func (ln *lane) len() int {
	ln.queueLock.Lock()
	defer ln.queueLock.Unlock()

	return len(ln.queue)
}

// deliverHead hands the oldest queued packet to the far end. The delivery
// lock keeps concurrent deliveries on the same lane in queue order.
func (ln *lane) deliverHead() {
	ln.deliverLock.Lock()
	defer ln.deliverLock.Unlock()

	pkt := ln.pop()
	if pkt == nil {
		return
	}

	if !ln.link.IsUp() {
		_ = ln.from.drop(pkt, ln.to, ErrLinkDown, "packet lost in flight")
		return
	}

	_, _ = ln.to.ReceivePacket(pkt, ln.from)
}
