package types

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnectError(t *testing.T) {
	err := fmt.Errorf("start: %w", &ConnectError{
		Op:   OpDial,
		Path: "/var/run/lirc/lircd",
		Err:  os.ErrNotExist,
	})

	var cerr *ConnectError
	assert.True(t, errors.As(err, &cerr))
	assert.Equal(t, OpDial, cerr.Op)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "dial /var/run/lirc/lircd")
}

func TestExitCodeString(t *testing.T) {
	assert.Equal(t, "ok", ExitOK.String())
	assert.Equal(t, "connect failure", ExitConnect.String())
	assert.Equal(t, "pipeline closed", ExitPipeline.String())
	assert.Equal(t, "exit 7", ExitCode(7).String())
}
