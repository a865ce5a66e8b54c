// Package mac provides the hardware address type used to name device
// attachments in the simulated network.
package mac

import (
	"encoding/hex"
	"fmt"
	"math/rand/v2"
	"net"
	"strings"
	"sync"
)

// Length is the number of octets in an Address.
const Length = 6

// Address is a 6-byte Ethernet hardware address. Addresses are values and
// compare byte-exact with ==.
type Address [Length]byte

// Broadcast is the all-ones address. The simulator gives it no special
// treatment; a switch floods it like any other unknown destination.
var Broadcast = Address{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// String renders the address as six colon-separated lowercase hex octets.
func (a Address) String() string {
	var sb strings.Builder

	sb.Grow(Length*3 - 1)

	for i, b := range a {
		if i > 0 {
			sb.WriteByte(':')
		}

		sb.WriteString(hex.EncodeToString([]byte{b}))
	}

	return sb.String()
}

// IsUnicast reports whether the group bit of the first octet is clear.
func (a Address) IsUnicast() bool {
	return a[0]&0x01 == 0
}

// IsZero reports whether all octets are zero.
func (a Address) IsZero() bool {
	return a == Address{}
}

// HardwareAddr converts the address for use with the net package and packet
// encoders.
func (a Address) HardwareAddr() net.HardwareAddr {
	hw := make(net.HardwareAddr, Length)
	copy(hw, a[:])

	return hw
}

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}

	*a = parsed

	return nil
}

// Parse reads an address written as six hex octets separated by colons or
// dashes. Hex digits may be in either case.
func Parse(s string) (Address, error) {
	var a Address

	sep := ":"
	if strings.Contains(s, "-") {
		sep = "-"
	}

	octets := strings.Split(s, sep)
	if len(octets) != Length {
		return a, fmt.Errorf("mac: invalid address %q", s)
	}

	for i, o := range octets {
		if len(o) != 2 {
			return a, fmt.Errorf("mac: invalid octet %q in %q", o, s)
		}

		b, err := hex.DecodeString(o)
		if err != nil {
			return a, fmt.Errorf("mac: invalid octet %q in %q: %w", o, s, err)
		}

		a[i] = b[0]
	}

	return a, nil
}

// MustParse is like Parse but panics on malformed input.
func MustParse(s string) Address {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}

	return a
}

// FromBytes copies a 6-byte slice into an Address.
func FromBytes(b []byte) (Address, error) {
	var a Address

	if len(b) != Length {
		return a, fmt.Errorf("mac: need %d bytes, got %d", Length, len(b))
	}

	copy(a[:], b)

	return a, nil
}

// A Generator hands out random unicast addresses. It is safe for concurrent
// use.
type Generator interface {
	Generate() Address
}

// NewGenerator returns a Generator whose sequence is fully determined by the
// seed.
func NewGenerator(seed uint64) Generator {
	return &randomGenerator{
		rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

type randomGenerator struct {
	lock sync.Mutex
	rnd  *rand.Rand
}

func (g *randomGenerator) Generate() Address {
	g.lock.Lock()
	defer g.lock.Unlock()

	var a Address

	v := g.rnd.Uint64()
	for i := range a {
		a[i] = byte(v >> (8 * i))
	}

	a[0] &= 0xfe

	return a
}

// Random returns a random unicast address from the global source.
func Random() Address {
	var a Address

	v := rand.Uint64()
	for i := range a {
		a[i] = byte(v >> (8 * i))
	}

	a[0] &= 0xfe

	return a
}
