package topology

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/sarchlab/ethersim/mac"
	"github.com/sarchlab/ethersim/network"
	"github.com/sarchlab/ethersim/sim"
	"github.com/sarchlab/ethersim/switching"
)

// A Topology is a network built from a Config.
type Topology struct {
	Config   *Config
	Network  *network.Network
	Engine   sim.Engine
	Switches []*switching.Switch
}

// Builder can build topologies.
type Builder struct {
	logger *zap.SugaredLogger
	engine string
}

// MakeBuilder creates a new Builder.
func MakeBuilder() Builder {
	return Builder{}
}

// WithLogger sets the logger handed to the network.
func (b Builder) WithLogger(logger *zap.SugaredLogger) Builder {
	b.logger = logger
	return b
}

// WithEngine overrides the engine named in the configuration.
func (b Builder) WithEngine(name string) Builder {
	b.engine = name
	return b
}

// Build creates the devices, opens their ports and connects the links.
func (b Builder) Build(c *Config) (*Topology, error) {
	engineName := c.Engine
	if b.engine != "" {
		engineName = b.engine
	}

	engine, err := NewEngine(engineName)
	if err != nil {
		return nil, err
	}

	nb := network.MakeNetworkBuilder().WithSeed(c.Seed)
	if engine != nil {
		nb = nb.WithEngine(engine)
	}

	if b.logger != nil {
		nb = nb.WithLogger(b.logger)
	}

	t := &Topology{
		Config:  c,
		Network: nb.Build(c.Name),
		Engine:  engine,
	}

	for _, dc := range c.Devices {
		d, err := t.buildDevice(dc)
		if err != nil {
			return nil, err
		}

		if err := openPorts(d, dc); err != nil {
			return nil, err
		}
	}

	for _, l := range c.Links {
		if _, err := t.Network.Connect(l.A, l.B); err != nil {
			return nil, err
		}
	}

	return t, nil
}

// NewEngine creates the engine with the given name. The direct engine is
// represented by nil.
func NewEngine(name string) (sim.Engine, error) {
	switch name {
	case "", EngineDirect:
		return nil, nil
	case EngineSerial:
		return sim.NewSerialEngine(), nil
	case EngineParallel:
		return sim.NewParallelEngine(), nil
	}

	return nil, fmt.Errorf("unknown engine %q", name)
}

func (t *Topology) buildDevice(dc DeviceConfig) (*network.Device, error) {
	var (
		addr   mac.Address
		hasMAC bool
	)

	if dc.MAC != "" {
		parsed, err := mac.Parse(dc.MAC)
		if err != nil {
			return nil, fmt.Errorf("device %s: %w", dc.Name, err)
		}

		addr, hasMAC = parsed, true
	}

	switch dc.Kind {
	case KindSwitch:
		b := switching.MakeBuilder().
			WithNumPorts(dc.Ports).
			WithNetwork(t.Network)
		if hasMAC {
			b = b.WithMAC(addr)
		}

		s := b.Build(dc.Name)
		t.Switches = append(t.Switches, s)

		return s.Device, nil
	case KindNode:
		b := network.MakeBuilder().
			WithNumPorts(dc.Ports).
			WithNetwork(t.Network)
		if hasMAC {
			b = b.WithMAC(addr)
		}

		return b.Build(dc.Name), nil
	}

	return nil, fmt.Errorf("device %s: unknown kind %q", dc.Name, dc.Kind)
}

func openPorts(d *network.Device, dc DeviceConfig) error {
	numbers := dc.Open
	if dc.OpenAll {
		numbers = nil
		for _, p := range d.Ports() {
			numbers = append(numbers, p.Number())
		}
	}

	for _, n := range numbers {
		if n < 1 || n > d.NumPorts() {
			return fmt.Errorf("device %s has no port %d", d.Name(), n)
		}

		// Listing a port twice is harmless.
		_ = d.GetPort(n).Open()
	}

	return nil
}

// Switch returns the switch with the given name.
func (t *Topology) Switch(name string) (*switching.Switch, bool) {
	for _, s := range t.Switches {
		if s.Name() == name {
			return s, true
		}
	}

	return nil, false
}
