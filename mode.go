package snowflake

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Mode is a named visual theme of the ring. The numeric values are
// persisted, so new modes must only be added at the end.
type Mode uint32

const (
	ModeOff Mode = iota
	ModeSnowflake
	ModeHanukkah
	ModeRainbow
	ModeChaseHoliday
	ModeCirclesRotate
	ModeSparkle

	// ModeMax is the number of modes. It is not a valid mode.
	ModeMax
)

// DefaultMode is the mode used when none has been stored.
const DefaultMode = ModeSnowflake

// ErrInvalidMode is returned for modes outside of [0, ModeMax).
var ErrInvalidMode = errors.New("invalid mode")

var modeNames = [ModeMax]string{
	ModeOff:           "off",
	ModeSnowflake:     "snowflake",
	ModeHanukkah:      "hanukkah",
	ModeRainbow:       "rainbow",
	ModeChaseHoliday:  "chase-holiday",
	ModeCirclesRotate: "circles-rotate",
	ModeSparkle:       "sparkle",
}

// Modes returns all valid modes in order.
func Modes() []Mode {
	modes := make([]Mode, ModeMax)
	for i := range modes {
		modes[i] = Mode(i)
	}
	return modes
}

// Valid returns true if m is a valid mode.
func (m Mode) Valid() bool {
	return m < ModeMax
}

// String implements fmt.Stringer.
func (m Mode) String() string {
	if !m.Valid() {
		return fmt.Sprintf("Mode(%d)", uint32(m))
	}
	return modeNames[m]
}

// Next returns the mode a button press switches to. Off is skipped.
func (m Mode) Next() Mode {
	next := (m + 1) % ModeMax
	if next == ModeOff {
		next = ModeSnowflake
	}
	return next
}

// ParseMode parses either a mode name (case-insensitive) or its decimal
// value.
func ParseMode(s string) (Mode, error) {
	s = strings.TrimSpace(s)

	if n, err := strconv.ParseUint(s, 10, 32); err == nil {
		m := Mode(n)
		if !m.Valid() {
			return 0, fmt.Errorf("%w: %d", ErrInvalidMode, n)
		}
		return m, nil
	}

	for i, name := range modeNames {
		if strings.EqualFold(name, s) {
			return Mode(i), nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMode, uint32(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	mode, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}
