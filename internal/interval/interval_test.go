package interval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func at(hour, min int) time.Time {
	return time.Date(2025, 3, 10, hour, min, 0, 0, time.UTC)
}

func mustNew(t *testing.T, start, end time.Time) Interval {
	t.Helper()
	iv, err := New(start, end)
	require.NoError(t, err)
	return iv
}

func TestNewRejectsInvertedAndEmpty(t *testing.T) {
	_, err := New(at(10, 0), at(9, 0))
	require.ErrorIs(t, err, ErrInvalidInterval)

	_, err = New(at(10, 0), at(10, 0))
	require.ErrorIs(t, err, ErrInvalidInterval)
}

func TestOverlapsSymmetry(t *testing.T) {
	cases := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"disjoint", mustNew(t, at(9, 0), at(10, 0)), mustNew(t, at(11, 0), at(12, 0)), false},
		{"adjacent", mustNew(t, at(9, 0), at(10, 0)), mustNew(t, at(10, 0), at(11, 0)), false},
		{"partial", mustNew(t, at(9, 0), at(10, 0)), mustNew(t, at(9, 30), at(10, 30)), true},
		{"contained", mustNew(t, at(9, 0), at(12, 0)), mustNew(t, at(10, 0), at(11, 0)), true},
		{"identical", mustNew(t, at(9, 0), at(10, 0)), mustNew(t, at(9, 0), at(10, 0)), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.a.Overlaps(tc.b))
			require.Equal(t, tc.want, tc.b.Overlaps(tc.a), "overlap must be symmetric")
		})
	}
}

func TestContainsHalfOpen(t *testing.T) {
	iv := mustNew(t, at(9, 0), at(10, 0))

	require.True(t, iv.Contains(at(9, 0)), "start is inclusive")
	require.True(t, iv.Contains(at(9, 59)))
	require.False(t, iv.Contains(at(10, 0)), "end is exclusive")
	require.False(t, iv.Contains(at(8, 59)))
}

func TestDurationAndEqual(t *testing.T) {
	a := mustNew(t, at(9, 0), at(10, 0))
	b := mustNew(t, at(9, 0), at(10, 0))

	require.Equal(t, time.Hour, a.Duration())
	require.True(t, a.Equal(b))
	require.False(t, a.Equal(mustNew(t, at(9, 0), at(10, 30))))
}
