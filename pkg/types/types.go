package types

import (
	"fmt"
)

// ExitCode is the process exit status of the relay daemon
type ExitCode int

const (
	// ExitOK is a clean or signal-initiated shutdown
	ExitOK ExitCode = 0
	// ExitConnect means a socket could not be reached or bound at startup
	ExitConnect ExitCode = 1
	// ExitPipeline means an internal pipeline stage exited without a stop request
	ExitPipeline ExitCode = 2
)

// String returns a short description of the exit code
func (c ExitCode) String() string {
	switch c {
	case ExitOK:
		return "ok"
	case ExitConnect:
		return "connect failure"
	case ExitPipeline:
		return "pipeline closed"
	default:
		return fmt.Sprintf("exit %d", int(c))
	}
}

// SocketOp names the startup step that touched a socket
type SocketOp string

const (
	OpDial   SocketOp = "dial"
	OpRemove SocketOp = "remove"
	OpListen SocketOp = "listen"
)

// ConnectError reports a failure to reach or prepare a unix socket at startup
type ConnectError struct {
	Op   SocketOp
	Path string
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}
