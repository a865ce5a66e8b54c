package switching

import (
	"go.uber.org/zap"

	"github.com/sarchlab/ethersim/mac"
	"github.com/sarchlab/ethersim/network"
)

// Builder can build switches.
type Builder struct {
	numPorts  int
	mac       mac.Address
	hasMAC    bool
	table     Table
	transport network.Transport
	logger    *zap.SugaredLogger
	network   *network.Network
}

// MakeBuilder creates a new Builder.
func MakeBuilder() Builder {
	return Builder{}
}

// WithNumPorts sets the number of ports of the switch to build.
func (b Builder) WithNumPorts(n int) Builder {
	b.numPorts = n
	return b
}

// WithMAC sets the hardware address of the switch.
func (b Builder) WithMAC(addr mac.Address) Builder {
	b.mac = addr
	b.hasMAC = true

	return b
}

// WithTable sets the learning table. Without it the switch starts with an
// empty table.
func (b Builder) WithTable(t Table) Builder {
	b.table = t
	return b
}

// WithTransport sets the transport used by links created from the switch.
func (b Builder) WithTransport(t network.Transport) Builder {
	b.transport = t
	return b
}

// WithLogger sets the logger of the switch.
func (b Builder) WithLogger(logger *zap.SugaredLogger) Builder {
	b.logger = logger
	return b
}

// WithNetwork registers the switch in the network.
func (b Builder) WithNetwork(n *network.Network) Builder {
	b.network = n
	return b
}

// Build creates a new switch.
func (b Builder) Build(name string) *Switch {
	b.numPortsMustBeGiven()

	s := &Switch{table: b.table}
	if s.table == nil {
		s.table = NewTable()
	}

	db := network.MakeBuilder().
		WithNumPorts(b.numPorts).
		WithBehavior(s).
		WithNetwork(b.network)

	if b.hasMAC {
		db = db.WithMAC(b.mac)
	}

	if b.transport != nil {
		db = db.WithTransport(b.transport)
	}

	if b.logger != nil {
		db = db.WithLogger(b.logger)
	}

	s.Device = db.Build(name)

	return s
}

func (b Builder) numPortsMustBeGiven() {
	if b.numPorts < 1 {
		panic("switch requires at least one port")
	}
}
