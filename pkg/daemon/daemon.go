package daemon

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"github.com/cuemby/irrelay/pkg/broadcast"
	"github.com/cuemby/irrelay/pkg/classifier"
	"github.com/cuemby/irrelay/pkg/event"
	"github.com/cuemby/irrelay/pkg/log"
	"github.com/cuemby/irrelay/pkg/metrics"
	"github.com/cuemby/irrelay/pkg/server"
	"github.com/cuemby/irrelay/pkg/source"
	"github.com/cuemby/irrelay/pkg/types"
)

// StopSignals are the signals that trigger a graceful shutdown
var StopSignals = []os.Signal{unix.SIGINT, unix.SIGHUP, unix.SIGTERM, unix.SIGQUIT}

// Options configures a relay daemon
type Options struct {
	Input       string
	Output      string
	MetricsAddr string
	Timing      classifier.Timing

	// Signals overrides OS signal delivery when set
	Signals <-chan os.Signal
}

// Daemon wires the source, classifier, hub and server together and owns
// their shutdown
type Daemon struct {
	opts     Options
	hub      *broadcast.Hub
	srv      *server.Server
	stopping atomic.Bool
	logger   zerolog.Logger
}

// New creates a daemon. No sockets are touched until Run.
func New(opts Options) *Daemon {
	hub := broadcast.NewHub()
	return &Daemon{
		opts:   opts,
		hub:    hub,
		srv:    server.New(opts.Output, hub),
		logger: log.WithComponent("daemon"),
	}
}

// Run starts the relay and blocks until a stop signal arrives, ctx is
// cancelled or a pipeline stage exits on its own. The returned code is
// computed once every core loop has returned.
func (d *Daemon) Run(ctx context.Context) types.ExitCode {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Catch stop signals before any socket is touched
	sigCh := d.opts.Signals
	if sigCh == nil {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, StopSignals...)
		defer signal.Stop(ch)
		sigCh = ch
	}
	done := make(chan struct{})
	defer close(done)
	go d.watchSignals(sigCh, cancel, done)

	reader, err := source.Dial(ctx, d.opts.Input)
	if err != nil {
		if d.stopping.Load() {
			d.logger.Info().Msg("stopped during startup")
			return types.ExitOK
		}
		d.logger.Error().Err(err).Msg("couldn't connect to input socket")
		return types.ExitConnect
	}

	if err := d.srv.Listen(); err != nil {
		reader.Close() //nolint:errcheck
		d.logger.Error().Err(err).Msg("couldn't bind output socket")
		return types.ExitConnect
	}

	raw := make(chan event.Event)
	classified := make(chan event.Event)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return reader.Run(gctx, raw)
	})
	g.Go(func() error {
		return classifier.New(d.opts.Timing).Run(gctx, raw, classified)
	})
	g.Go(func() error {
		return d.hub.Run(gctx, classified)
	})

	served := make(chan error, 1)
	go func() {
		served <- d.srv.Serve()
	}()

	if d.opts.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(gctx, d.opts.MetricsAddr); err != nil {
				d.logger.Warn().Err(err).Msg("metrics endpoint unavailable")
			}
		}()
	}

	err = g.Wait()

	if cerr := d.srv.Close(); cerr != nil {
		d.logger.Warn().Err(cerr).Msg("failed to remove output socket")
	}
	d.srv.Wait()
	if serr := <-served; serr != nil {
		d.logger.Warn().Err(serr).Msg("accept loop failed")
	}

	return d.exitCode(ctx, err)
}

func (d *Daemon) exitCode(ctx context.Context, err error) types.ExitCode {
	switch {
	case d.stopping.Load() || ctx.Err() != nil:
		d.logger.Info().Msg("Bye!")
		return types.ExitOK
	case err == nil:
		return types.ExitOK
	default:
		// source.ErrClosed, classifier.ErrSourceClosed, broadcast.ErrInputClosed
		// or a read failure: a stage quit without being asked to
		d.logger.Error().Err(err).Msg("pipeline stopped unexpectedly")
		return types.ExitPipeline
	}
}

// watchSignals turns the first signal into a stop request and ignores the rest
func (d *Daemon) watchSignals(sigCh <-chan os.Signal, stop context.CancelFunc, done <-chan struct{}) {
	count := 0
	for {
		select {
		case sig := <-sigCh:
			count++
			if d.stopping.CompareAndSwap(false, true) {
				d.logger.Info().Str("signal", sig.String()).Msg("stopping")
				stop()
				continue
			}
			d.logger.Debug().Str("signal", sig.String()).Int("count", count).Msg("already stopping")
		case <-done:
			return
		}
	}
}
