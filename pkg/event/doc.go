/*
Package event defines the IR key event record and its text wire format.

Both the input socket (lircd) and the relay output socket carry one event per
line:

	<id> <repeat-hex> <name> <device>

	000000037ff07bef 00 KEY_UP samsung
	000000037ff07bef 01 KEY_UP samsung

The repeat field is an unsigned 32-bit hexadecimal counter without prefix. It
is 0 for a fresh press and grows by one per report while the key is held.
Decode accepts any amount of whitespace between fields (lircd pads the repeat
code with a leading zero); Encode always writes lowercase hex without leading
zeros, so Decode(e.Encode()) == e for every event whose fields contain no
whitespace.

# Classified Events

The classifier turns raw reports into one of two terminal events:

  - NEW: Repeat forced to 0, name unchanged (ToNew)
  - HOLD: Repeat forced to 0, name suffixed with "_HOLD" (ToHold)

# Errors

Malformed lines produce a *ParseError wrapping ErrFieldCount or ErrRepeat:

	ev, err := event.Decode(line)
	if err != nil {
		var perr *event.ParseError
		if errors.As(err, &perr) {
			// drop the line and keep reading
		}
	}
*/
package event
