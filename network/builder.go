package network

import (
	"go.uber.org/zap"

	"github.com/sarchlab/ethersim/mac"
	"github.com/sarchlab/ethersim/sim"
)

// Builder can build devices.
type Builder struct {
	numPorts  int
	mac       mac.Address
	hasMAC    bool
	behavior  Behavior
	transport Transport
	logger    *zap.SugaredLogger
	network   *Network
}

// MakeBuilder creates a Builder with one port and the host behavior.
func MakeBuilder() Builder {
	return Builder{
		numPorts: 1,
		behavior: NodeBehavior{},
	}
}

// WithNumPorts sets the number of ports. Ports are numbered 1..n.
func (b Builder) WithNumPorts(n int) Builder {
	b.numPorts = n
	return b
}

// WithMAC sets the hardware address. Without it, the device gets one from
// its network's generator, or a random one.
func (b Builder) WithMAC(addr mac.Address) Builder {
	b.mac = addr
	b.hasMAC = true

	return b
}

// WithBehavior sets how the device handles the packets it receives.
func (b Builder) WithBehavior(behavior Behavior) Builder {
	b.behavior = behavior
	return b
}

// WithTransport sets the transport used by links created from this device.
func (b Builder) WithTransport(t Transport) Builder {
	b.transport = t
	return b
}

// WithLogger sets the logger that receives the device's diagnostics.
func (b Builder) WithLogger(logger *zap.SugaredLogger) Builder {
	b.logger = logger
	return b
}

// WithNetwork registers the device in the network. The device inherits the
// network's transport, logger, clock and hooks.
func (b Builder) WithNetwork(n *Network) Builder {
	b.network = n
	return b
}

// Build creates the device.
func (b Builder) Build(name string) *Device {
	nameMustNotBeEmpty(name)
	b.numPortsMustBePositive()
	b.behaviorMustBeGiven()

	d := &Device{
		HookableBase: sim.NewHookableBase(),
		name:         name,
		behavior:     b.behavior,
		transport:    b.transport,
		logger:       b.logger,
		network:      b.network,
	}

	b.applyNetworkDefaults(d)
	b.applyStandaloneDefaults(d)

	d.ports = make([]*Port, b.numPorts)
	for i := range d.ports {
		d.ports[i] = newPort(d, i+1)
	}

	if b.network != nil {
		b.network.register(d)
	}

	return d
}

func (b Builder) applyNetworkDefaults(d *Device) {
	n := b.network
	if n == nil {
		return
	}

	if !b.hasMAC {
		d.mac = n.macs.Generate()
	}

	if d.transport == nil {
		d.transport = n.transport
	}

	if d.logger == nil {
		d.logger = n.logger
	}

	if n.engine != nil {
		d.clock = n.engine
	}
}

func (b Builder) applyStandaloneDefaults(d *Device) {
	if b.hasMAC {
		d.mac = b.mac
	} else if b.network == nil {
		d.mac = mac.Random()
	}

	if d.transport == nil {
		d.transport = DirectTransport{}
	}

	if d.logger == nil {
		d.logger = zap.NewNop().Sugar()
	}

	d.logger = d.logger.With("device", d.name)
}

func nameMustNotBeEmpty(name string) {
	if name == "" {
		panic("device name must not be empty")
	}
}

func (b Builder) numPortsMustBePositive() {
	if b.numPorts < 1 {
		panic("device must have at least one port")
	}
}

func (b Builder) behaviorMustBeGiven() {
	if b.behavior == nil {
		panic("device requires a behavior")
	}
}
