// Package sizeunit parses and formats the human-readable byte-quantity and
// range grammars used throughout net-tester's CLI surface (sizes such as
// "8KiB", "1Gibit", "128MB"; ranges such as "1B-32KiB").
package sizeunit

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// UnitSystem distinguishes the IEC (powers of 1024) and SI (powers of
// 1000) unit families. Parsing remembers which family matched so that
// printing round-trips in the same family it was parsed from.
type UnitSystem int

const (
	// IEC is the binary unit family: Ki/Mi/Gi/Ti/Pi/Ei, suffixed "B" or "bit".
	IEC UnitSystem = iota
	// SI is the decimal unit family: k/K/M/G/T/P/E, suffixed "B", "b" or "bit".
	SI
)

var (
	reIEC = regexp.MustCompile(`^(\d+)\s*([KMGTPE]i)?(B|bit)$`)
	reSI  = regexp.MustCompile(`^(\d+)\s*([kKMGTPE])?(B|b|bit)$`)
)

// ErrInvalidSize indicates a string did not match either the IEC or SI
// size grammar.
var ErrInvalidSize = errors.New("invalid size")

// Size is a byte quantity together with the unit system it was parsed in,
// so that it can be pretty-printed back in the same family.
type Size struct {
	Bytes uint64
	Unit  UnitSystem
}

// New returns a Size of bytes in the SI unit family, used for defaults
// that were not parsed from user input.
func New(bytes uint64) Size {
	return Size{Bytes: bytes, Unit: SI}
}

// Parse parses a size string against the IEC grammar
// `\d+\s*([KMGTPE]i)?(B|bit)` or the SI grammar
// `\d+\s*([kKMGTPE])?(B|b|bit)`. A "bit"/"b" suffix divides the scaled
// value by 8 to yield bytes. A string that matches both grammars (no
// prefix, e.g. "1024B") is taken as SI.
func Parse(s string) (Size, error) {
	s = strings.TrimSpace(s)

	if m := reSI.FindStringSubmatch(s); m != nil {
		return buildSize(m, SI)
	}
	if m := reIEC.FindStringSubmatch(s); m != nil {
		return buildSize(m, IEC)
	}

	return Size{}, fmt.Errorf("size %q: %w", s, ErrInvalidSize)
}

func buildSize(m []string, unit UnitSystem) (Size, error) {
	value, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil {
		return Size{}, fmt.Errorf("size %q: %w", m[0], ErrInvalidSize)
	}

	factor := uint64(1024)
	if unit == SI {
		factor = 1000
	}

	if prefix := m[2]; prefix != "" {
		value *= scaleFactor(prefix, factor)
	}

	if suffix := m[3]; suffix == "bit" || suffix == "b" {
		value /= 8
	}

	return Size{Bytes: value, Unit: unit}, nil
}

// scaleFactor returns factor^n where n is the index of the prefix letter
// among K/M/G/T/P/E (case-insensitive for the SI "k").
func scaleFactor(prefix string, factor uint64) uint64 {
	letters := "KMGTPE"
	idx := strings.IndexByte(letters, byte(strings.ToUpper(prefix)[0]))
	if idx < 0 {
		return 1
	}

	result := uint64(1)
	for i := 0; i <= idx; i++ {
		result *= factor
	}
	return result
}

var unitsIEC = [...]string{"bit", "Kibit", "Mibit", "Gibit", "Tibit", "Pibit", "Eibit"}
var unitsSI = [...]string{"bit", "kbit", "Mbit", "Gbit", "Tbit", "Pbit", "Ebit"}

// String formats the size back in its remembered unit system, e.g.
// "1.0Gibit(134217728B)". Parse does not accept this printed form.
func (s Size) String() string {
	factor := float64(1024)
	units := unitsIEC[:]
	if s.Unit == SI {
		factor = 1000
		units = unitsSI[:]
	}

	value := float64(s.Bytes) * 8
	i := 0
	for i < len(units)-1 && value/factor >= 1 {
		value /= factor
		i++
	}

	return fmt.Sprintf("%.1f%s(%dB)", value, units[i], s.Bytes)
}
