package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sarchlab/ethersim/datarecording"
	"github.com/sarchlab/ethersim/monitoring"
	"github.com/sarchlab/ethersim/network"
	"github.com/sarchlab/ethersim/topology"
	"github.com/sarchlab/ethersim/tracing"
)

type runOptions struct {
	engine      string
	pcap        string
	record      string
	trace       bool
	monitor     bool
	monitorPort int
	openBrowser bool
	hold        bool
}

func (o *runOptions) addFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	flags.StringVar(&o.engine, "engine", "",
		"Engine to run on (direct, serial, parallel). "+
			"Overrides the topology file.")
	flags.StringVar(&o.pcap, "pcap", "",
		"Write every frame sent on a port to this pcap file.")
	flags.StringVar(&o.record, "record", "",
		"Record transits into <name>.sqlite3.")
	flags.BoolVar(&o.trace, "trace", false,
		"Log every transit at debug level.")
	flags.BoolVar(&o.monitor, "monitor", false,
		"Serve the monitoring page while the simulation runs.")
	flags.IntVar(&o.monitorPort, "monitor-port", monitorPortFromEnv(),
		"Port of the monitoring server, 0 picks a free one.")
	flags.BoolVar(&o.openBrowser, "open-browser", false,
		"Open the monitoring page in a browser.")
	flags.BoolVar(&o.hold, "hold", false,
		"Keep the monitoring server up until interrupted.")
}

func monitorPortFromEnv() int {
	port, err := strconv.Atoi(envOr(envMonitorPort, "0"))
	if err != nil {
		return 0
	}

	return port
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run <topology.yaml>",
		Short: "Run the simulation described by a topology file.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := topology.Load(args[0])
			if err != nil {
				return err
			}

			return simulate(cmd.Context(), cmd.OutOrStdout(), config, opts)
		},
	}

	opts.addFlags(cmd)

	return cmd
}

// A session holds everything attached to one simulated topology.
type session struct {
	opts      *runOptions
	logger    *zap.SugaredLogger
	topo      *topology.Topology
	collector *tracing.Collector
	registry  *prometheus.Registry
	monitor   *monitoring.Monitor
	closers   []func() error
}

func simulate(
	ctx context.Context,
	out io.Writer,
	config *topology.Config,
	opts *runOptions,
) (err error) {
	logger := zap.S()

	topo, err := topology.MakeBuilder().
		WithLogger(logger).
		WithEngine(opts.engine).
		Build(config)
	if err != nil {
		return err
	}

	s := &session{
		opts:      opts,
		logger:    logger,
		topo:      topo,
		collector: tracing.NewCollector(),
		registry:  prometheus.NewRegistry(),
	}

	defer func() {
		err = errors.Join(err, s.close())
	}()

	if err := s.attachTracers(); err != nil {
		return err
	}

	if err := s.startMonitor(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, err := s.run(ctx)
	if err != nil {
		return err
	}

	s.report(out, stats)

	if opts.monitor && opts.hold {
		logger.Infow("simulation done, waiting for interrupt")
		<-ctx.Done()
	}

	return nil
}

func (s *session) attachTracers() error {
	n := s.topo.Network

	tracing.CollectTrace(n, s.collector)
	tracing.CollectTrace(n, tracing.NewMetricsTracer(s.registry))

	if s.opts.trace {
		tracing.CollectTrace(n, tracing.NewLogTracer(s.logger))
	}

	if s.opts.pcap != "" {
		f, err := os.Create(s.opts.pcap)
		if err != nil {
			return fmt.Errorf("creating pcap file: %w", err)
		}

		s.closers = append(s.closers, f.Close)

		pcap, err := tracing.NewPcapTracer(f)
		if err != nil {
			return err
		}

		s.closers = append(s.closers, pcap.Err)

		tracing.CollectTrace(n, pcap)
	}

	if s.opts.record != "" {
		recorder := datarecording.New(s.opts.record)
		s.closers = append(s.closers, recorder.Close)

		tracing.CollectTrace(n, tracing.NewDBTracer(recorder))
	}

	return nil
}

func (s *session) startMonitor() error {
	if !s.opts.monitor {
		return nil
	}

	s.monitor = monitoring.NewMonitor(s.topo.Network).
		WithLogger(s.logger).
		WithPortNumber(s.opts.monitorPort).
		WithGatherer(s.registry)

	url, err := s.monitor.StartServer()
	if err != nil {
		return err
	}

	s.closers = append(s.closers, s.monitor.StopServer)

	if s.opts.openBrowser {
		if err := monitoring.OpenBrowser(url); err != nil {
			s.logger.Warnw("cannot open browser", "url", url, "error", err)
		}
	}

	return nil
}

func (s *session) run(ctx context.Context) (topology.InjectStats, error) {
	var onSent func(*network.Packet, error)

	if s.monitor != nil {
		bar := s.monitor.CreateProgressBar(
			"traffic", uint64(s.topo.Config.NumPackets()))
		defer s.monitor.CompleteProgressBar(bar)

		onSent = func(_ *network.Packet, err error) {
			bar.Record(err)
		}
	}

	return s.topo.Run(ctx, onSent)
}

// close releases the attached resources in reverse order.
func (s *session) close() error {
	var errs []error

	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}

	return errors.Join(errs...)
}

func (s *session) report(out io.Writer, stats topology.InjectStats) {
	accepted := 0

	for _, tr := range s.collector.Filter(tracing.KindDeliver) {
		d, found := s.topo.Network.Lookup(tr.Device)
		if found && d.MAC() == tr.Destination {
			accepted++
		}
	}

	fmt.Fprintf(out, "sent %d, refused %d, accepted %d, dropped %d\n",
		stats.Sent, stats.Refused, accepted,
		len(s.collector.Filter(tracing.KindDrop)))

	for _, sw := range s.topo.Switches {
		fmt.Fprintf(out, "%s MAC table:\n", sw.Name())

		entries := sw.Table().Entries()
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].Port < entries[j].Port
		})

		for _, e := range entries {
			fmt.Fprintf(out, "  Port %d  %s\n", e.Port, e.MAC)
		}
	}
}
