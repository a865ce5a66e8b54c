package network

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/sarchlab/ethersim/mac"
	"github.com/sarchlab/ethersim/sim"
)

// A Network is the arena that devices are registered in. It owns the
// transport, logger, MAC generator and hooks every registered device
// inherits, and resolves ports by PortID.
type Network struct {
	*sim.HookableBase

	name string

	lock    sync.RWMutex
	devices []*Device
	byName  map[string]*Device

	engine    sim.Engine
	transport Transport
	logger    *zap.SugaredLogger
	macs      mac.Generator
}

// NetworkBuilder can build networks.
type NetworkBuilder struct {
	engine sim.Engine
	logger *zap.SugaredLogger
	seed   uint64
}

// MakeNetworkBuilder creates a NetworkBuilder with direct delivery.
func MakeNetworkBuilder() NetworkBuilder {
	return NetworkBuilder{seed: 1}
}

// WithEngine makes links defer deliveries to the engine. Without an engine,
// deliveries are synchronous.
func (b NetworkBuilder) WithEngine(e sim.Engine) NetworkBuilder {
	b.engine = e
	return b
}

// WithLogger sets the logger inherited by all devices.
func (b NetworkBuilder) WithLogger(l *zap.SugaredLogger) NetworkBuilder {
	b.logger = l
	return b
}

// WithSeed sets the seed of the MAC generator.
func (b NetworkBuilder) WithSeed(seed uint64) NetworkBuilder {
	b.seed = seed
	return b
}

// Build creates the network.
func (b NetworkBuilder) Build(name string) *Network {
	n := &Network{
		HookableBase: sim.NewHookableBase(),
		name:         name,
		byName:       make(map[string]*Device),
		engine:       b.engine,
		logger:       b.logger,
		macs:         mac.NewGenerator(b.seed),
	}

	if n.logger == nil {
		n.logger = zap.NewNop().Sugar()
	}

	n.logger = n.logger.With("network", name)

	if b.engine != nil {
		n.transport = NewScheduledTransport(b.engine)
	} else {
		n.transport = DirectTransport{}
	}

	return n
}

// Name returns the name of the network.
func (n *Network) Name() string {
	return n.name
}

// Engine returns the engine deliveries are scheduled on, or nil.
func (n *Network) Engine() sim.Engine {
	return n.engine
}

// Logger returns the network logger.
func (n *Network) Logger() *zap.SugaredLogger {
	return n.logger
}

// CurrentTime returns the engine time, or 0 for synchronous networks.
func (n *Network) CurrentTime() sim.VTime {
	if n.engine == nil {
		return 0
	}

	return n.engine.CurrentTime()
}

// Run drains all in-flight deliveries. It returns immediately for
// synchronous networks.
func (n *Network) Run() error {
	if n.engine == nil {
		return nil
	}

	return n.engine.Run()
}

func (n *Network) register(d *Device) {
	n.lock.Lock()
	defer n.lock.Unlock()

	if _, found := n.byName[d.Name()]; found {
		panic(fmt.Sprintf("device %s already exists in network %s",
			d.Name(), n.name))
	}

	n.devices = append(n.devices, d)
	n.byName[d.Name()] = d
}

// Devices returns the registered devices in registration order.
func (n *Network) Devices() []*Device {
	n.lock.RLock()
	defer n.lock.RUnlock()

	devices := make([]*Device, len(n.devices))
	copy(devices, n.devices)

	return devices
}

// Lookup finds a device by name.
func (n *Network) Lookup(name string) (*Device, bool) {
	n.lock.RLock()
	defer n.lock.RUnlock()

	d, found := n.byName[name]

	return d, found
}

// FindByMAC finds the device that owns the address.
func (n *Network) FindByMAC(addr mac.Address) (*Device, bool) {
	n.lock.RLock()
	defer n.lock.RUnlock()

	for _, d := range n.devices {
		if d.MAC() == addr {
			return d, true
		}
	}

	return nil, false
}

// Port resolves a PortID.
func (n *Network) Port(id PortID) (*Port, error) {
	d, found := n.Lookup(id.Device)
	if !found {
		return nil, fmt.Errorf("device %s not found in network %s",
			id.Device, n.name)
	}

	if id.Number < 1 || id.Number > d.NumPorts() {
		return nil, fmt.Errorf("device %s has no port %d", id.Device, id.Number)
	}

	return d.GetPort(id.Number), nil
}

// Connect links the two ports.
func (n *Network) Connect(a, b PortID) (*Link, error) {
	pa, err := n.Port(a)
	if err != nil {
		return nil, err
	}

	pb, err := n.Port(b)
	if err != nil {
		return nil, err
	}

	l, err := pa.CreateLink(pb)
	if err != nil {
		return nil, fmt.Errorf("connecting %s and %s: %w", a, b, err)
	}

	return l, nil
}

// Links returns every live link with at least one end in the network,
// sorted by name.
func (n *Network) Links() []*Link {
	seen := make(map[*Link]bool)

	var links []*Link

	for _, d := range n.Devices() {
		for _, p := range d.ports {
			l := p.Link()
			if l == nil || seen[l] {
				continue
			}

			seen[l] = true
			links = append(links, l)
		}
	}

	sort.Slice(links, func(i, j int) bool {
		return links[i].Name() < links[j].Name()
	})

	return links
}
