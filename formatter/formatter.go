package formatter

// This file contains the formatters that turn typed field values into
// their OCP output schema representation.

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"time"
)

// TimestampLayout is RFC 3339 in UTC with a fixed microsecond fraction,
// the precision the schema carries.
const TimestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// Range of timestamps representable in RFC 3339 (years 0001 to 9999).
const (
	minTimestamp = -62135596800.0
	maxTimestamp = 253402300799.999999
)

var (
	ErrInvalidEnum      = errors.New("invalid enum value")
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	ErrUnexpectedType   = errors.New("unexpected value type")
)

// Func converts a field value to its schema representation.
type Func func(v any) (any, error)

// EnumValue is implemented by the schema enums. String returns the symbolic
// member name and Valid reports whether the value is a declared member.
type EnumValue interface {
	fmt.Stringer
	Valid() bool
}

// FormatEnum returns the schema token of an enum member, which is its
// symbolic name (e.g. "INFO", "NOT_APPLICABLE").
func FormatEnum(e EnumValue) (string, error) {
	if e == nil {
		return "", fmt.Errorf("%w: nil", ErrInvalidEnum)
	}
	if rv := reflect.ValueOf(e); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return "", fmt.Errorf("%w: nil %T", ErrInvalidEnum, e)
	}
	if !e.Valid() {
		return "", fmt.Errorf("%w: %s", ErrInvalidEnum, e.String())
	}
	return e.String(), nil
}

// FormatTimestamp formats seconds since the Unix epoch, rounded to the
// microsecond.
func FormatTimestamp(seconds float64) (string, error) {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return "", fmt.Errorf("%w: %v", ErrInvalidTimestamp, seconds)
	}
	if seconds < minTimestamp || seconds > maxTimestamp {
		return "", fmt.Errorf("%w: %v out of range", ErrInvalidTimestamp, seconds)
	}

	sec := math.Floor(seconds)
	micros := math.Round((seconds - sec) * 1e6)
	if micros >= 1e6 {
		sec++
		micros -= 1e6
	}
	t := time.Unix(int64(sec), int64(micros)*int64(time.Microsecond)).UTC()
	if t.Year() > 9999 {
		return "", fmt.Errorf("%w: %v out of range", ErrInvalidTimestamp, seconds)
	}
	return t.Format(TimestampLayout), nil
}

// ParseTimestamp parses an RFC 3339 timestamp back into seconds since the
// Unix epoch.
func ParseTimestamp(s string) (float64, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidTimestamp, err)
	}
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9, nil
}

// Seconds converts a time.Time to the float representation used by the model.
func Seconds(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond()/int(time.Microsecond))/1e6
}

// Enum is the Func form of FormatEnum.
func Enum(v any) (any, error) {
	e, ok := v.(EnumValue)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not an enum", ErrUnexpectedType, v)
	}
	return FormatEnum(e)
}

// Timestamp is the Func form of FormatTimestamp.
func Timestamp(v any) (any, error) {
	switch ts := v.(type) {
	case float64:
		return FormatTimestamp(ts)
	case float32:
		return FormatTimestamp(float64(ts))
	case int64:
		return FormatTimestamp(float64(ts))
	case int:
		return FormatTimestamp(float64(ts))
	case time.Time:
		return FormatTimestamp(Seconds(ts))
	default:
		return nil, fmt.Errorf("%w: %T is not a timestamp", ErrUnexpectedType, v)
	}
}
