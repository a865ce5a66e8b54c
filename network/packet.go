package network

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"

	"github.com/sarchlab/ethersim/mac"
	"github.com/sarchlab/ethersim/sim"
)

// EtherTypeSimulated is the EtherType stamped on frames rendered from
// simulated packets. 0x88B5 is reserved for local experiments.
const EtherTypeSimulated = layers.EthernetType(0x88B5)

// Frame bodies start with the payload length, big endian. Ethernet pads short
// frames to 60 bytes and this EtherType carries no length of its own.
const frameLengthSize = 2

// A Packet is an addressed payload. Packets are immutable; every hop shares
// the same value.
type Packet struct {
	id          string
	source      mac.Address
	destination mac.Address
	payload     []byte
}

// NewPacket creates a packet. The payload is copied.
func NewPacket(source, destination mac.Address, payload []byte) *Packet {
	return &Packet{
		id:          sim.GetIDGenerator().Generate(),
		source:      source,
		destination: destination,
		payload:     bytes.Clone(payload),
	}
}

// ID returns the unique ID of the packet.
func (p *Packet) ID() string {
	return p.id
}

// Source returns the MAC address of the device that built the packet.
func (p *Packet) Source() mac.Address {
	return p.source
}

// Destination returns the MAC address the packet is addressed to.
func (p *Packet) Destination() mac.Address {
	return p.destination
}

// Payload returns a copy of the payload.
func (p *Packet) Payload() []byte {
	return bytes.Clone(p.payload)
}

// Len returns the payload length in bytes.
func (p *Packet) Len() int {
	return len(p.payload)
}

func (p *Packet) String() string {
	return fmt.Sprintf("packet %s %s -> %s (%d bytes)",
		p.id, p.source, p.destination, len(p.payload))
}

// Frame encodes the packet as an Ethernet II frame. The body is the payload
// length followed by the payload, padded to the Ethernet minimum.
func (p *Packet) Frame() ([]byte, error) {
	if len(p.payload) > math.MaxUint16 {
		return nil, fmt.Errorf("encoding %s: payload of %d bytes too long",
			p.id, len(p.payload))
	}

	eth := &layers.Ethernet{
		SrcMAC:       p.source.HardwareAddr(),
		DstMAC:       p.destination.HardwareAddr(),
		EthernetType: EtherTypeSimulated,
	}

	body := make([]byte, frameLengthSize+len(p.payload))
	binary.BigEndian.PutUint16(body, uint16(len(p.payload)))
	copy(body[frameLengthSize:], p.payload)

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true}

	err := gopacket.SerializeLayers(buf, opts, eth, gopacket.Payload(body))
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", p.id, err)
	}

	return buf.Bytes(), nil
}

// ParseFrame reads back the addresses and the payload of a frame built by
// Frame. Padding is stripped.
func ParseFrame(frame []byte) (
	source, destination mac.Address,
	payload []byte,
	err error,
) {
	decoded := gopacket.NewPacket(frame, layers.LayerTypeEthernet,
		gopacket.Default)

	eth, ok := decoded.Layer(layers.LayerTypeEthernet).(*layers.Ethernet)
	if !ok {
		return source, destination, nil, errors.New("not an ethernet frame")
	}

	if eth.EthernetType != EtherTypeSimulated {
		return source, destination, nil,
			fmt.Errorf("unexpected ethertype %s", eth.EthernetType)
	}

	body := eth.Payload
	if len(body) < frameLengthSize {
		return source, destination, nil, errors.New("frame body too short")
	}

	n := int(binary.BigEndian.Uint16(body))
	if len(body)-frameLengthSize < n {
		return source, destination, nil, fmt.Errorf(
			"frame holds %d payload bytes, header says %d",
			len(body)-frameLengthSize, n)
	}

	if source, err = mac.FromBytes(eth.SrcMAC); err != nil {
		return source, destination, nil, err
	}

	if destination, err = mac.FromBytes(eth.DstMAC); err != nil {
		return source, destination, nil, err
	}

	payload = bytes.Clone(body[frameLengthSize : frameLengthSize+n])

	return source, destination, payload, nil
}
