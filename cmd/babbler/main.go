// Command babbler is a bidirectional network traffic generator and
// measurement tool. It exchanges length-prefixed, pattern-verified frames
// over stream, datagram, and related connection-oriented transports and
// reports throughput statistics.
//
// Grounded on the teacher's cmd/cli-client and cmd/cli-server mains
// (flag-based front ends to clientudp/serverudp), upgraded to a single
// cobra command tree per the corpus's CLI idiom.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/semaphore"

	"github.com/amartin755/babbler/internal/cancel"
	"github.com/amartin755/babbler/internal/config"
	"github.com/amartin755/babbler/internal/descriptor"
	"github.com/amartin755/babbler/internal/listener"
	"github.com/amartin755/babbler/internal/obslog"
	"github.com/amartin755/babbler/internal/protosettings"
	"github.com/amartin755/babbler/internal/requestor"
	"github.com/amartin755/babbler/internal/stats"
	"github.com/amartin755/babbler/internal/supervisor"
	"github.com/amartin755/babbler/internal/transport"
	"github.com/amartin755/babbler/internal/wire"
	"github.com/amartin755/babbler/internal/worker"
)

type options struct {
	verbose       int
	listenPorts   string
	listenProto   string
	ipv4          bool
	ipv6          bool
	interval      float64
	count         int
	timeSeconds   float64
	bufSize       int
	connections   int
	statusSeconds float64
	protoSettings string
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var o options

	root := &cobra.Command{
		Use:           "babbler [OPTIONS] <descriptor>",
		Short:         "Bidirectional network traffic generator and measurement tool",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MaximumNArgs(1),
	}

	root.Flags().CountVarP(&o.verbose, "verbose", "v", "increase log verbosity, repeatable up to 4")
	root.Flags().StringVarP(&o.listenPorts, "listen", "l", "", "server mode, listen on these ports")
	root.Flags().StringVar(&o.listenProto, "proto", "tcp", "server mode transport: tcp, udp, sctp, dccp, ip (raw)")
	root.Flags().BoolVarP(&o.ipv4, "ipv4", "4", false, "restrict to IPv4")
	root.Flags().BoolVarP(&o.ipv6, "ipv6", "6", false, "restrict to IPv6")
	root.Flags().Float64VarP(&o.interval, "interval", "i", 0.0, "seconds (float) between requests")
	root.Flags().IntVarP(&o.count, "count", "c", 0, "stop after COUNT exchanges per connection")
	root.Flags().Float64VarP(&o.timeSeconds, "time", "t", 0, "stop after SECONDS wall-clock")
	root.Flags().IntVar(&o.bufSize, "buf-size", config.BufSizeDefault, "per-socket internal buffer")
	root.Flags().IntVarP(&o.connections, "connections", "n", 1, "parallel connections per descriptor (client)")
	root.Flags().Float64VarP(&o.statusSeconds, "status", "s", config.StatusIntervalDefault.Seconds(), "periodic status interval")
	root.Flags().StringVar(&o.protoSettings, "proto-settings", config.ProtoSettingsDefault, "communication sizes")

	root.RunE = func(cmd *cobra.Command, cmdArgs []string) error {
		return execute(o, cmdArgs)
	}

	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "babbler:", err)
		return config.ArgumentErrorExit
	}
	return 0
}

func execute(o options, args []string) error {
	if err := config.ValidateVerbosity(o.verbose); err != nil {
		return err
	}
	if err := config.ValidateBufSize(o.bufSize); err != nil {
		return err
	}
	if err := config.ValidateConnections(o.connections); err != nil {
		return err
	}
	if err := config.ValidateCount(o.count); err != nil {
		return err
	}
	interval := time.Duration(o.interval * float64(time.Second))
	if err := config.ValidateInterval(interval); err != nil {
		return err
	}

	com, err := protosettings.Parse(o.protoSettings)
	if err != nil {
		return err
	}
	if com.RequestSizeMin < wire.HeaderLen || com.ResponseSizeMin < wire.HeaderLen {
		return config.ValidationError{Field: "proto-settings", Message: fmt.Sprintf("sizes must be >= %d", wire.HeaderLen)}
	}

	log := obslog.New(os.Stderr, o.verbose)

	family := transport.FamilyEither
	switch {
	case o.ipv4 && o.ipv6:
		return config.ValidationError{Field: "family", Message: "-4 and -6 are mutually exclusive"}
	case o.ipv4:
		family = transport.FamilyV4
	case o.ipv6:
		family = transport.FamilyV6
	}

	h := cancel.New()

	if o.listenPorts != "" {
		return runServer(h, o, family, com, log)
	}

	if len(args) != 1 {
		return config.ValidationError{Field: "descriptor", Message: "exactly one connection descriptor is required in client mode"}
	}
	return runClient(h, o, args[0], family, com, interval, log)
}

// clientSinks adapts a flat worker slice to supervisor.StatusSink for
// client mode, where there is no per-listener grouping to report through.
type clientSinks struct {
	workers []*worker.Worker
}

func (c *clientSinks) Workers() []*worker.Worker { return c.workers }

func runClient(h *cancel.Handle, o options, descStr string, family transport.Family, com protosettings.Settings, interval time.Duration, log obslog.Logger) error {
	d, err := descriptor.Parse(descStr)
	if err != nil {
		return err
	}
	if err := config.ValidateHost(d.Host); err != nil {
		return err
	}

	ports := descriptor.Expand(d.Ports)
	if len(ports) == 0 {
		return config.ValidationError{Field: "descriptor", Message: "at least one remote port is required"}
	}

	props, err := transport.NewProperties(d.Proto, family)
	if err != nil {
		return err
	}

	reqParams := requestor.Params{
		ComSettings: com,
		Delay:       interval,
		MaxCount:    o.count,
	}

	var workers []*worker.Worker
	for i := 0; i < o.connections; i++ {
		port := ports[i%len(ports)]
		ep, err := transport.Connect(h.Context(), props, d.Host, port, d.LocalPort)
		if err != nil {
			if log != nil {
				log.Warnf("connect to %s:%d failed: %v", d.Host, port, err)
			}
			continue
		}
		ep.SetCancel(h.Context())

		counters := stats.New()
		codec := wire.NewCodec(ep, counters, o.bufSize)
		req := requestor.New(codec, reqParams, log)

		label := fmt.Sprintf("%s -> %s", ep.LocalAddr(), ep.RemoteAddr())
		w := worker.Spawn(h.Context(), uint(i+1), label, counters, log, func(ctx context.Context) error {
			defer ep.Close()
			return req.Run(ctx)
		})
		workers = append(workers, w)
	}

	if len(workers) == 0 {
		return fmt.Errorf("babbler: no connection could be established to %s", d.Host)
	}

	params := supervisor.RunParams{
		StatusInterval: time.Duration(o.statusSeconds * float64(time.Second)),
		TimeBudget:     time.Duration(o.timeSeconds * float64(time.Second)),
		Log:            log,
	}
	sinks := []supervisor.StatusSink{&clientSinks{workers: workers}}
	supervisor.Run(h, params, sinks, workers)
	return nil
}

func runServer(h *cancel.Handle, o options, family transport.Family, com protosettings.Settings, log obslog.Logger) error {
	ports, err := parsePortList(o.listenPorts)
	if err != nil {
		return err
	}
	for _, p := range ports {
		if err := config.ValidatePort(p); err != nil {
			return err
		}
	}

	props, err := transport.NewProperties(o.listenProto, family)
	if err != nil {
		return err
	}

	sem := semaphore.NewWeighted(1 << 20)
	var sinks []supervisor.StatusSink
	var listeners []*listener.Listener
	for _, p := range ports {
		l, err := listener.New(h.Context(), props, p, 128, com, o.bufSize, sem, log)
		if err != nil {
			return err
		}
		go func() {
			if err := l.Run(h.Context()); err != nil && err != transport.Cancelled && log != nil {
				log.Warnf("listener on port %d stopped: %v", p, err)
			}
		}()
		listeners = append(listeners, l)
		sinks = append(sinks, l)
	}

	if len(listeners) == 0 {
		return fmt.Errorf("babbler: no listen port specified")
	}

	params := supervisor.RunParams{
		StatusInterval: time.Duration(o.statusSeconds * float64(time.Second)),
		Log:            log,
	}
	supervisor.Run(h, params, sinks, nil)

	for _, l := range listeners {
		l.Close()
	}
	return nil
}

func parsePortList(s string) ([]int, error) {
	d, err := descriptor.Parse("placeholder-host:" + s)
	if err != nil {
		return nil, err
	}
	return descriptor.Expand(d.Ports), nil
}
