package topology

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/sarchlab/ethersim/mac"
	"github.com/sarchlab/ethersim/network"
)

// InjectStats counts what happened to the injected packets.
type InjectStats struct {
	Sent    int
	Refused int
}

type flow struct {
	src     *network.Device
	port    int
	dst     mac.Address
	payload []byte
	repeat  int
}

// NumPackets returns the number of packets the traffic section sends.
func (c *Config) NumPackets() int {
	total := 0
	for _, t := range c.Traffic {
		total += t.Repeat
	}

	return total
}

// Inject sends the configured traffic. Each source device sends its packets
// in order from its own goroutine; different sources send concurrently. A
// packet refused by its port is counted, not returned as an error. onSent,
// if given, is called after each send.
func (t *Topology) Inject(
	ctx context.Context,
	onSent func(pkt *network.Packet, err error),
) (InjectStats, error) {
	bySource, order, err := t.resolveFlows()
	if err != nil {
		return InjectStats{}, err
	}

	var sent, refused atomic.Int64

	g, ctx := errgroup.WithContext(ctx)

	for _, name := range order {
		flows := bySource[name]

		g.Go(func() error {
			for _, f := range flows {
				for i := 0; i < f.repeat; i++ {
					if err := ctx.Err(); err != nil {
						return err
					}

					pkt := f.src.BuildPacket(f.dst, f.payload)
					err := f.src.SendPacket(pkt, f.port)

					if err != nil {
						refused.Add(1)
					} else {
						sent.Add(1)
					}

					if onSent != nil {
						onSent(pkt, err)
					}
				}
			}

			return nil
		})
	}

	err = g.Wait()

	return InjectStats{Sent: int(sent.Load()), Refused: int(refused.Load())}, err
}

// Run injects the traffic and then drains the engine.
func (t *Topology) Run(
	ctx context.Context,
	onSent func(pkt *network.Packet, err error),
) (InjectStats, error) {
	stats, err := t.Inject(ctx, onSent)
	if err != nil {
		return stats, err
	}

	if err := t.Network.Run(); err != nil {
		return stats, fmt.Errorf("running simulation: %w", err)
	}

	return stats, nil
}

func (t *Topology) resolveFlows() (map[string][]flow, []string, error) {
	bySource := make(map[string][]flow)

	var order []string

	for _, tc := range t.Config.Traffic {
		src, found := t.Network.Lookup(tc.From)
		if !found {
			return nil, nil, fmt.Errorf("traffic source %s not found", tc.From)
		}

		dst, err := t.resolveDestination(tc.To)
		if err != nil {
			return nil, nil, err
		}

		if _, seen := bySource[tc.From]; !seen {
			order = append(order, tc.From)
		}

		bySource[tc.From] = append(bySource[tc.From], flow{
			src:     src,
			port:    tc.Port,
			dst:     dst,
			payload: []byte(tc.Payload),
			repeat:  tc.Repeat,
		})
	}

	return bySource, order, nil
}

func (t *Topology) resolveDestination(to string) (mac.Address, error) {
	if d, found := t.Network.Lookup(to); found {
		return d.MAC(), nil
	}

	addr, err := mac.Parse(to)
	if err != nil {
		return mac.Address{}, fmt.Errorf(
			"traffic destination %q is neither a device nor a MAC address", to)
	}

	return addr, nil
}
