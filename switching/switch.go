// Package switching implements a learning Ethernet switch.
package switching

import (
	"sync"

	"github.com/sarchlab/ethersim/network"
)

// A Switch is a device that learns which address sits behind each of its
// ports and forwards packets accordingly. Unknown destinations are flooded.
type Switch struct {
	*network.Device

	lock  sync.Mutex
	table Table
}

// Table returns the learning table of the switch.
func (s *Switch) Table() Table {
	return s.table
}

// OnReceive learns the source of the packet on its arrival port and decides
// where the packet goes next.
func (s *Switch) OnReceive(
	dev *network.Device,
	d network.Delivery,
) []network.Emission {
	arrival := d.Receiver.Number()
	src := d.Packet.Source()

	s.lock.Lock()
	changed := s.table.Learn(arrival, src)
	decision := s.decide(dev, arrival, d.Packet)
	s.lock.Unlock()

	dev.RaiseHook(HookPosSwitchLearn, d.Packet,
		LearnDetail{Port: arrival, MAC: src, Changed: changed})
	dev.RaiseHook(HookPosSwitchForward, d.Packet, decision)

	if changed {
		dev.Logger().Debugw("learned address",
			"port", arrival, "mac", src.String())
	}

	dev.Logger().Debugw("forwarding packet",
		"packet", d.Packet.ID(),
		"decision", decision.Kind.String(),
		"ports", decision.Ports,
	)

	emissions := make([]network.Emission, 0, len(decision.Ports))
	for _, p := range decision.Ports {
		emissions = append(emissions,
			network.Emission{Port: p, Packet: d.Packet})
	}

	return emissions
}

func (s *Switch) decide(
	dev *network.Device,
	arrival int,
	pkt *network.Packet,
) Decision {
	port, hit := s.table.Lookup(pkt.Destination())
	if hit {
		if port == arrival {
			return Decision{Kind: Filter}
		}

		return Decision{Kind: Hit, Ports: []int{port}}
	}

	decision := Decision{Kind: Flood}

	for _, p := range dev.Ports() {
		if p.Number() == arrival || !p.IsOpen() {
			continue
		}

		decision.Ports = append(decision.Ports, p.Number())
	}

	return decision
}

var _ network.Behavior = (*Switch)(nil)
