package isotime

import (
	"encoding/json"
	"fmt"
	"time"
)

// Layout is the ISO-8601 form written to the wire, e.g. 2024-05-01T12:00:00+00:00.
const Layout = "2006-01-02T15:04:05-07:00"

var parseLayouts = []string{
	time.RFC3339Nano,
	Layout,
	"2006-01-02T15:04:05.999999-07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05",
}

// Now reads clock (time.Now when nil) and returns it in UTC, truncated to
// the second.
func Now(clock func() time.Time) time.Time {
	if clock == nil {
		clock = time.Now
	}
	return Normalize(clock())
}

// Normalize converts t to UTC at second precision.
func Normalize(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC().Truncate(time.Second)
}

// Format renders t with Layout.
func Format(t time.Time) string { return t.Format(Layout) }

// Parse accepts the ISO-8601 variants produced by this package and by
// common serializers. Values without an offset are taken as UTC.
func Parse(s string) (time.Time, error) {
	for _, layout := range parseLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("isotime: cannot parse %q", s)
}

// Time is a time.Time that marshals with Layout and as null when zero.
// Unparseable strings decode to the zero time rather than failing.
type Time struct {
	time.Time
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(Format(t.Time))
}

func (t *Time) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("isotime: %w", err)
	}
	parsed, err := Parse(s)
	if err != nil {
		t.Time = time.Time{}
		return nil
	}
	t.Time = parsed
	return nil
}
