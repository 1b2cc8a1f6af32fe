package event

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDecode tests wire line parsing
func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    Event
		wantErr error
	}{
		{
			name: "decimal looking repeat",
			line: "a 9 e d",
			want: Event{ID: "a", Repeat: 9, Name: "e", Device: "d"},
		},
		{
			name: "hex repeat",
			line: "a b e d",
			want: Event{ID: "a", Repeat: 11, Name: "e", Device: "d"},
		},
		{
			name: "lircd line with padding",
			line: "000000037ff07bef 0a KEY_UP  samsung\n",
			want: Event{ID: "000000037ff07bef", Repeat: 10, Name: "KEY_UP", Device: "samsung"},
		},
		{
			name: "max uint32",
			line: "a ffffffff e d",
			want: Event{ID: "a", Repeat: 0xffffffff, Name: "e", Device: "d"},
		},
		{
			name:    "empty line",
			line:    "",
			wantErr: ErrFieldCount,
		},
		{
			name:    "three fields",
			line:    "a 9 e",
			wantErr: ErrFieldCount,
		},
		{
			name:    "five fields",
			line:    "a 9 e d x",
			wantErr: ErrFieldCount,
		},
		{
			name:    "non hex repeat",
			line:    "a zz e d",
			wantErr: ErrRepeat,
		},
		{
			name:    "prefixed repeat",
			line:    "a 0x10 e d",
			wantErr: ErrRepeat,
		},
		{
			name:    "negative repeat",
			line:    "a -1 e d",
			wantErr: ErrRepeat,
		},
		{
			name:    "overflowing repeat",
			line:    "a 100000000 e d",
			wantErr: ErrRepeat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.line)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "error %v should wrap %v", err, tt.wantErr)

				var perr *ParseError
				require.True(t, errors.As(err, &perr))
				assert.Equal(t, tt.line, perr.Line)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestEncode tests wire line rendering
func TestEncode(t *testing.T) {
	assert.Equal(t, "a b e d", Event{ID: "a", Repeat: 11, Name: "e", Device: "d"}.Encode())
	assert.Equal(t, "a 10 e d", Event{ID: "a", Repeat: 16, Name: "e", Device: "d"}.Encode())
	assert.Equal(t, "a 0 e d", Event{ID: "a", Repeat: 0, Name: "e", Device: "d"}.Encode())
	assert.Equal(t, "a ffffffff e d", Event{ID: "a", Repeat: 0xffffffff, Name: "e", Device: "d"}.Encode())
}

// TestRoundTrip tests that decoding an encoded event yields the same event
func TestRoundTrip(t *testing.T) {
	events := []Event{
		{ID: "a", Repeat: 0, Name: "KEY_OK", Device: "remote"},
		{ID: "000000037ff07bef", Repeat: 1, Name: "KEY_UP", Device: "samsung"},
		{ID: "x", Repeat: 16, Name: "KEY_1", Device: "d"},
		{ID: "x", Repeat: 255, Name: "KEY_VOLUMEUP_HOLD", Device: "d"},
		{ID: "x", Repeat: 0xdeadbeef, Name: "K", Device: "D"},
	}

	for _, e := range events {
		got, err := Decode(e.Encode())
		require.NoError(t, err)
		assert.Equal(t, e, got)
	}
}

func TestToHold(t *testing.T) {
	e, err := Decode("a b e d")
	require.NoError(t, err)

	hold := e.ToHold()
	assert.Equal(t, Event{ID: "a", Repeat: 0, Name: "e_HOLD", Device: "d"}, hold)
	assert.True(t, hold.IsHold())
	assert.False(t, e.IsHold())
}

func TestToNew(t *testing.T) {
	e := Event{ID: "a", Repeat: 11, Name: "e", Device: "d"}
	assert.Equal(t, Event{ID: "a", Repeat: 0, Name: "e", Device: "d"}, e.ToNew())
}
