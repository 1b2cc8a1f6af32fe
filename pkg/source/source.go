// Package source reads raw key events from the lircd socket.
package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/cuemby/irrelay/pkg/event"
	"github.com/cuemby/irrelay/pkg/log"
	"github.com/cuemby/irrelay/pkg/metrics"
	"github.com/cuemby/irrelay/pkg/types"
)

// MaxLineLength is the longest input line decoded. lircd lines are well
// under 200 bytes; longer lines are dropped as malformed.
const MaxLineLength = 4096

var errLineTooLong = errors.New("line too long")

// ErrClosed is returned by Run when the input socket reaches EOF before a
// stop was requested
var ErrClosed = errors.New("input socket closed")

// Reader reads lircd lines from the input socket and forwards decoded events
type Reader struct {
	path   string
	conn   net.Conn
	logger zerolog.Logger

	// Malformed input tends to come in floods, keep the log readable
	parseWarn *rate.Limiter
}

// Dial connects to the input socket at path
func Dial(ctx context.Context, path string) (*Reader, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, &types.ConnectError{Op: types.OpDial, Path: path, Err: err}
	}
	return newReader(path, conn), nil
}

func newReader(path string, conn net.Conn) *Reader {
	r := &Reader{
		path:      path,
		conn:      conn,
		logger:    log.WithComponent("source"),
		parseWarn: rate.NewLimiter(rate.Every(time.Second), 5),
	}
	r.logger.Info().Str("path", path).Msg("connected, waiting for messages")
	return r
}

// Close closes the input connection. Run closes it as well on return.
func (r *Reader) Close() error {
	return r.conn.Close()
}

// Run reads until ctx is cancelled or the socket closes. It closes out and
// the connection on return. Cancellation unblocks a pending read by closing
// the connection.
func (r *Reader) Run(ctx context.Context, out chan<- event.Event) error {
	defer close(out)
	defer r.conn.Close()

	stop := context.AfterFunc(ctx, func() {
		r.conn.Close() //nolint:errcheck
	})
	defer stop()

	metrics.UpdateComponent(metrics.ComponentSource, true, "")
	defer metrics.UpdateComponent(metrics.ComponentSource, false, "input closed")

	br := bufio.NewReaderSize(r.conn, MaxLineLength)
	for {
		line, err := readLine(br)
		if errors.Is(err, errLineTooLong) {
			metrics.SourceLinesTotal.Inc()
			metrics.SourceParseErrorsTotal.Inc()
			if r.parseWarn.Allow() {
				r.logger.Warn().Int("max", MaxLineLength).Msg("dropping oversized line")
			}
			continue
		}
		if err != nil {
			return r.finish(ctx, err)
		}

		metrics.SourceLinesTotal.Inc()
		r.logger.Debug().Str("line", line).Msg("read")

		ev, err := event.Decode(line)
		if err != nil {
			metrics.SourceParseErrorsTotal.Inc()
			if r.parseWarn.Allow() {
				r.logger.Warn().Err(err).Msg("dropping malformed line")
			}
			continue
		}

		select {
		case out <- ev:
		case <-ctx.Done():
			return nil
		}
	}
}

func (r *Reader) finish(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		r.logger.Info().Msg("source stopped")
		return nil
	}
	if !errors.Is(err, io.EOF) {
		r.logger.Error().Err(err).Msg("read failed")
		return fmt.Errorf("read %s: %w", r.path, err)
	}
	r.logger.Warn().Str("path", r.path).Msg("input socket closed by peer")
	return ErrClosed
}

// readLine returns the next line without its terminator. A line longer than
// the reader's buffer is consumed up to its newline and reported as
// errLineTooLong.
func readLine(br *bufio.Reader) (string, error) {
	line, isPrefix, err := br.ReadLine()
	if err != nil {
		return "", err
	}
	if !isPrefix {
		return string(line), nil
	}
	for isPrefix {
		if _, isPrefix, err = br.ReadLine(); err != nil {
			return "", err
		}
	}
	return "", errLineTooLong
}
