package source

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/irrelay/pkg/event"
	"github.com/cuemby/irrelay/pkg/metrics"
	"github.com/cuemby/irrelay/pkg/types"
)

// lircd stands in for the receiver daemon: it accepts one client and hands
// the server side of the connection to the test
func lircd(t *testing.T) (string, <-chan net.Conn) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lircd")
	ln, err := net.Listen("unix", path)
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() }) //nolint:errcheck

	conns := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		conns <- conn
	}()
	return path, conns
}

func accept(t *testing.T, conns <-chan net.Conn) net.Conn {
	t.Helper()
	select {
	case conn := <-conns:
		t.Cleanup(func() { conn.Close() }) //nolint:errcheck
		return conn
	case <-time.After(2 * time.Second):
		t.Fatal("reader never connected")
		return nil
	}
}

func TestDial_Failure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nobody-home")

	_, err := Dial(context.Background(), path)
	require.Error(t, err)

	var cerr *types.ConnectError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, types.OpDial, cerr.Op)
	assert.Equal(t, path, cerr.Path)
}

func TestRun_ForwardsValidEvents(t *testing.T) {
	path, conns := lircd(t)
	r, err := Dial(context.Background(), path)
	require.NoError(t, err)
	peer := accept(t, conns)

	out := make(chan event.Event, 8)
	errCh := make(chan error, 1)
	go func() {
		errCh <- r.Run(context.Background(), out)
	}()

	_, err = peer.Write([]byte("000000037ff07bef 00 KEY_UP samsung\n" +
		"garbage\n" +
		"000000037ff07bef zz KEY_UP samsung\n" +
		"000000037ff07bef 01 KEY_UP samsung\n"))
	require.NoError(t, err)
	require.NoError(t, peer.Close())

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("reader did not stop at EOF")
	}

	var got []event.Event
	for ev := range out {
		got = append(got, ev)
	}
	assert.Equal(t, []event.Event{
		{ID: "000000037ff07bef", Repeat: 0, Name: "KEY_UP", Device: "samsung"},
		{ID: "000000037ff07bef", Repeat: 1, Name: "KEY_UP", Device: "samsung"},
	}, got)
}

func TestRun_StopUnblocksRead(t *testing.T) {
	path, conns := lircd(t)
	r, err := Dial(context.Background(), path)
	require.NoError(t, err)
	accept(t, conns)

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan event.Event)
	errCh := make(chan error, 1)
	go func() {
		errCh <- r.Run(ctx, out)
	}()

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("reader did not stop on cancel")
	}

	_, ok := <-out
	assert.False(t, ok)
}

func TestRun_DropsOversizedLine(t *testing.T) {
	client, peer := net.Pipe()
	r := newReader("pipe", client)

	out := make(chan event.Event, 4)
	errCh := make(chan error, 1)
	go func() {
		errCh <- r.Run(context.Background(), out)
	}()

	parseErrors := testutil.ToFloat64(metrics.SourceParseErrorsTotal)

	go func() {
		defer peer.Close() //nolint:errcheck
		peer.Write([]byte(strings.Repeat("x", 70*1024) + "\n")) //nolint:errcheck
		peer.Write([]byte("a 0 KEY_UP D\n"))                    //nolint:errcheck
	}()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("reader did not stop at EOF")
	}

	var got []event.Event
	for ev := range out {
		got = append(got, ev)
	}
	assert.Equal(t, []event.Event{{ID: "a", Repeat: 0, Name: "KEY_UP", Device: "D"}}, got)
	assert.Equal(t, parseErrors+1, testutil.ToFloat64(metrics.SourceParseErrorsTotal))
}

func TestReadLine(t *testing.T) {
	input := "short\n" + strings.Repeat("y", 100) + "\nlast"
	br := bufio.NewReaderSize(strings.NewReader(input), 16)

	line, err := readLine(br)
	require.NoError(t, err)
	assert.Equal(t, "short", line)

	_, err = readLine(br)
	assert.ErrorIs(t, err, errLineTooLong)

	line, err = readLine(br)
	require.NoError(t, err)
	assert.Equal(t, "last", line)

	_, err = readLine(br)
	assert.ErrorIs(t, err, io.EOF)
}
