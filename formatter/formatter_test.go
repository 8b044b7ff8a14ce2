package formatter

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type color uint8

func (c color) String() string {
	switch c {
	case 1:
		return "RED"
	case 2:
		return "NOT_RED"
	default:
		return fmt.Sprintf("color(%d)", uint8(c))
	}
}

func (c color) Valid() bool { return c == 1 || c == 2 }

func TestFormatEnum(t *testing.T) {
	s, err := FormatEnum(color(2))
	require.NoError(t, err)
	require.Equal(t, "NOT_RED", s)

	_, err = FormatEnum(color(7))
	require.ErrorIs(t, err, ErrInvalidEnum)
	require.Contains(t, err.Error(), "color(7)")

	_, err = FormatEnum((*color)(nil))
	require.ErrorIs(t, err, ErrInvalidEnum)
	_, err = FormatEnum(nil)
	require.ErrorIs(t, err, ErrInvalidEnum)
}

func TestEnumFunc(t *testing.T) {
	v, err := Enum(color(1))
	require.NoError(t, err)
	require.Equal(t, "RED", v)

	_, err = Enum("RED")
	require.ErrorIs(t, err, ErrUnexpectedType)
}

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		name    string
		in      float64
		want    string
		wantErr bool
	}{
		{name: "epoch", in: 0, want: "1970-01-01T00:00:00.000000Z"},
		{name: "fraction", in: 1.5, want: "1970-01-01T00:00:01.500000Z"},
		{name: "microseconds", in: 1658721565.262947, want: "2022-07-25T03:59:25.262947Z"},
		{name: "rounds up into next second", in: 1.9999999, want: "1970-01-01T00:00:02.000000Z"},
		{name: "before epoch", in: -1.25, want: "1969-12-31T23:59:58.750000Z"},
		{name: "first representable", in: minTimestamp, want: "0001-01-01T00:00:00.000000Z"},
		{name: "NaN", in: math.NaN(), wantErr: true},
		{name: "infinity", in: math.Inf(1), wantErr: true},
		{name: "year 10000", in: maxTimestamp + 1, wantErr: true},
		{name: "before year 1", in: minTimestamp - 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatTimestamp(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidTimestamp)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	for _, ts := range []float64{0, 1.5, 1658721565.262947, -1.25, 4102444800.000001} {
		s, err := FormatTimestamp(ts)
		require.NoError(t, err)

		back, err := ParseTimestamp(s)
		require.NoError(t, err)
		require.InDelta(t, ts, back, 1e-6, "timestamp %s", s)

		again, err := FormatTimestamp(back)
		require.NoError(t, err)
		require.Equal(t, s, again)
	}
}

func TestParseTimestampInvalid(t *testing.T) {
	_, err := ParseTimestamp("yesterday")
	require.ErrorIs(t, err, ErrInvalidTimestamp)
}

func TestTimestampFunc(t *testing.T) {
	v, err := Timestamp(float64(0))
	require.NoError(t, err)
	require.Equal(t, "1970-01-01T00:00:00.000000Z", v)

	v, err = Timestamp(time.Date(2024, 2, 29, 12, 0, 0, 123456789, time.UTC))
	require.NoError(t, err)
	require.Equal(t, "2024-02-29T12:00:00.123456Z", v)

	_, err = Timestamp("0")
	require.ErrorIs(t, err, ErrUnexpectedType)
}
