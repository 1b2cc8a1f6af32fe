package event

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// HoldSuffix is appended to the key name of a HOLD event
const HoldSuffix = "_HOLD"

var (
	// ErrFieldCount is returned when a line does not have exactly 4 fields
	ErrFieldCount = errors.New("expected 4 fields")

	// ErrRepeat is returned when the repeat field is not a 32-bit hex number
	ErrRepeat = errors.New("invalid repeat code")
)

// ParseError describes a wire line that could not be decoded
type ParseError struct {
	Line string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Event is a single key report from the IR receiver
type Event struct {
	ID     string // Key code identifier
	Repeat uint32 // Auto-repeat counter, 0 for a fresh press
	Name   string // Key name, e.g. KEY_UP
	Device string // Remote/device name
}

// Decode parses a line of the form "<id> <repeat-hex> <name> <device>"
func Decode(line string) (Event, error) {
	fields := strings.Fields(line)
	if len(fields) != 4 {
		return Event{}, &ParseError{
			Line: line,
			Err:  fmt.Errorf("%w, got %d", ErrFieldCount, len(fields)),
		}
	}

	repeat, err := strconv.ParseUint(fields[1], 16, 32)
	if err != nil {
		return Event{}, &ParseError{
			Line: line,
			Err:  fmt.Errorf("%w %q", ErrRepeat, fields[1]),
		}
	}

	return Event{
		ID:     fields[0],
		Repeat: uint32(repeat),
		Name:   fields[2],
		Device: fields[3],
	}, nil
}

// Encode renders the event in wire format without a line terminator
func (e Event) Encode() string {
	return e.ID + " " + strconv.FormatUint(uint64(e.Repeat), 16) + " " + e.Name + " " + e.Device
}

// String implements fmt.Stringer
func (e Event) String() string {
	return e.Encode()
}

// ToHold returns the HOLD classification of the event
func (e Event) ToHold() Event {
	return Event{
		ID:     e.ID,
		Repeat: 0,
		Name:   e.Name + HoldSuffix,
		Device: e.Device,
	}
}

// ToNew returns the NEW classification of the event
func (e Event) ToNew() Event {
	return Event{
		ID:     e.ID,
		Repeat: 0,
		Name:   e.Name,
		Device: e.Device,
	}
}

// IsHold reports whether the event carries the HOLD suffix
func (e Event) IsHold() bool {
	return strings.HasSuffix(e.Name, HoldSuffix)
}
