// Package topology describes networks and the traffic they carry in YAML
// and builds them.
package topology

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sarchlab/ethersim/mac"
	"github.com/sarchlab/ethersim/network"
)

// Device kinds.
const (
	KindSwitch = "switch"
	KindNode   = "node"
)

// Engine names.
const (
	EngineDirect   = "direct"
	EngineSerial   = "serial"
	EngineParallel = "parallel"
)

// Config is the content of a topology file.
type Config struct {
	Name    string          `yaml:"name"`
	Seed    uint64          `yaml:"seed"`
	Engine  string          `yaml:"engine"`
	Devices []DeviceConfig  `yaml:"devices"`
	Links   []LinkConfig    `yaml:"links"`
	Traffic []TrafficConfig `yaml:"traffic"`
}

// DeviceConfig describes one device.
type DeviceConfig struct {
	Name    string `yaml:"name"`
	Kind    string `yaml:"kind"`
	Ports   int    `yaml:"ports"`
	Open    []int  `yaml:"open"`
	OpenAll bool   `yaml:"open_all"`
	MAC     string `yaml:"mac"`
}

// LinkConfig connects two ports, written as a two element list such as
// [S1.1, hostA.Port1].
type LinkConfig struct {
	A network.PortID
	B network.PortID
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *LinkConfig) UnmarshalYAML(node *yaml.Node) error {
	var ends []string
	if err := node.Decode(&ends); err != nil {
		return err
	}

	if len(ends) != 2 {
		return fmt.Errorf("line %d: a link needs exactly two ports, got %d",
			node.Line, len(ends))
	}

	a, err := network.ParsePortID(ends[0])
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}

	b, err := network.ParsePortID(ends[1])
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}

	l.A, l.B = a, b

	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (l LinkConfig) MarshalYAML() (any, error) {
	return []string{l.A.String(), l.B.String()}, nil
}

// TrafficConfig asks a device to send packets out of one of its ports. To
// is a device name or a MAC address.
type TrafficConfig struct {
	From    string `yaml:"from"`
	Port    int    `yaml:"port"`
	To      string `yaml:"to"`
	Payload string `yaml:"payload"`
	Repeat  int    `yaml:"repeat"`
}

// Parse reads a configuration. Unknown fields are rejected.
func Parse(r io.Reader) (*Config, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	c := &Config{}
	if err := dec.Decode(c); err != nil {
		return nil, fmt.Errorf("parsing topology: %w", err)
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// ParseBytes is Parse on an in-memory document.
func ParseBytes(data []byte) (*Config, error) {
	return Parse(bytes.NewReader(data))
}

// Load reads the configuration file at path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening topology: %w", err)
	}
	defer f.Close()

	c, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Name == "" {
		c.Name = "network"
	}

	if c.Seed == 0 {
		c.Seed = 1
	}

	if c.Engine == "" {
		c.Engine = EngineDirect
	}

	for i := range c.Devices {
		d := &c.Devices[i]
		if d.Kind == "" {
			d.Kind = KindNode
		}

		if d.Ports == 0 {
			d.Ports = 1
		}
	}

	for i := range c.Traffic {
		t := &c.Traffic[i]
		if t.Port == 0 {
			t.Port = 1
		}

		if t.Repeat == 0 {
			t.Repeat = 1
		}
	}
}

// Validate reports every problem found in the configuration.
func (c *Config) Validate() error {
	var errs []error

	switch c.Engine {
	case EngineDirect, EngineSerial, EngineParallel:
	default:
		errs = append(errs, fmt.Errorf("unknown engine %q", c.Engine))
	}

	ports := make(map[string]int)

	for _, d := range c.Devices {
		errs = append(errs, d.validate(ports)...)
	}

	used := make(map[network.PortID]bool)

	for _, l := range c.Links {
		for _, end := range []network.PortID{l.A, l.B} {
			if err := checkPort(ports, end); err != nil {
				errs = append(errs, fmt.Errorf("link %s-%s: %w", l.A, l.B, err))
				continue
			}

			if used[end] {
				errs = append(errs, fmt.Errorf("port %s is linked twice", end))
			}

			used[end] = true
		}
	}

	for _, t := range c.Traffic {
		if err := checkPort(ports,
			network.PortID{Device: t.From, Number: t.Port}); err != nil {
			errs = append(errs, fmt.Errorf("traffic from %s: %w", t.From, err))
		}

		if _, isDevice := ports[t.To]; !isDevice {
			if _, err := mac.Parse(t.To); err != nil {
				errs = append(errs, fmt.Errorf(
					"traffic to %q: not a device or a MAC address", t.To))
			}
		}

		if t.Repeat < 0 {
			errs = append(errs, fmt.Errorf("traffic from %s: negative repeat",
				t.From))
		}
	}

	return errors.Join(errs...)
}

func (d DeviceConfig) validate(ports map[string]int) []error {
	var errs []error

	if d.Name == "" {
		return []error{errors.New("device without a name")}
	}

	if _, dup := ports[d.Name]; dup {
		errs = append(errs, fmt.Errorf("device %s is defined twice", d.Name))
	}

	ports[d.Name] = d.Ports

	if d.Kind != KindSwitch && d.Kind != KindNode {
		errs = append(errs, fmt.Errorf("device %s: unknown kind %q",
			d.Name, d.Kind))
	}

	if d.Ports < 1 {
		errs = append(errs, fmt.Errorf("device %s: needs at least one port",
			d.Name))
	}

	for _, p := range d.Open {
		if p < 1 || p > d.Ports {
			errs = append(errs, fmt.Errorf("device %s: cannot open port %d",
				d.Name, p))
		}
	}

	if d.MAC != "" {
		if _, err := mac.Parse(d.MAC); err != nil {
			errs = append(errs, fmt.Errorf("device %s: %w", d.Name, err))
		}
	}

	return errs
}

func checkPort(ports map[string]int, id network.PortID) error {
	n, found := ports[id.Device]
	if !found {
		return fmt.Errorf("unknown device %s", id.Device)
	}

	if id.Number < 1 || id.Number > n {
		return fmt.Errorf("device %s has no port %d", id.Device, id.Number)
	}

	return nil
}
