package sizeunit_test

import (
	"testing"

	"github.com/dantte-lp/net-tester/internal/sizeunit"
)

func TestParseSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want uint64
		unit sizeunit.UnitSystem
	}{
		{"iec bytes", "8KiB", 8 * 1024, sizeunit.IEC},
		{"iec mebibytes", "16MiB", 16 * 1024 * 1024, sizeunit.IEC},
		{"iec gibibit", "1Gibit", 1024 * 1024 * 1024 / 8, sizeunit.IEC},
		{"si kilobytes", "8kB", 8000, sizeunit.SI},
		{"si megabytes", "16MB", 16_000_000, sizeunit.SI},
		{"si gigabit", "1Gbit", 1_000_000_000 / 8, sizeunit.SI},
		{"si bit lowercase b", "800b", 100, sizeunit.SI},
		{"bare bytes", "1024B", 1024, sizeunit.SI},
		{"with space", "8 KiB", 8 * 1024, sizeunit.IEC},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := sizeunit.Parse(tc.in)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tc.in, err)
			}
			if got.Bytes != tc.want {
				t.Errorf("Parse(%q).Bytes = %d, want %d", tc.in, got.Bytes, tc.want)
			}
			if got.Unit != tc.unit {
				t.Errorf("Parse(%q).Unit = %v, want %v", tc.in, got.Unit, tc.unit)
			}
		})
	}
}

func TestParseSizeInvalid(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "abc", "10Xi B", "-5B"} {
		if _, err := sizeunit.Parse(in); err == nil {
			t.Errorf("Parse(%q): expected error, got nil", in)
		}
	}
}

func TestSizeRoundTrip(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"8KiB", "1MiB", "128MB", "1Gbit"} {
		s, err := sizeunit.Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", in, err)
		}

		printed := s.String()
		if printed == "" {
			t.Fatalf("Parse(%q).String() is empty", in)
		}
	}
}
