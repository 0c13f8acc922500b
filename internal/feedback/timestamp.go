package feedback

import (
	"strings"
	"time"

	"github.com/goccy/go-json"
)

const isoLayout = "2006-01-02T15:04:05.000000Z07:00"

// readLayouts are tried in order. Entries written without an offset are
// interpreted in local time.
var readLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// Timestamp is an ISO-8601 instant that also reads offset-less values.
//
// A decoded value keeps its original JSON so that rewriting the store never
// alters existing entries, including ones whose time could not be parsed.
type Timestamp struct {
	time.Time
	raw json.RawMessage
}

// MarshalJSON writes a decoded value back unchanged and encodes new ones
// with microsecond precision and offset.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.raw != nil {
		return t.raw, nil
	}
	return json.Marshal(t.Format(isoLayout))
}

// UnmarshalJSON accepts any JSON value. Strings in one of the accepted
// ISO-8601 forms set the time; anything else leaves it zero.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	t.raw = append(json.RawMessage(nil), data...)
	t.Time = time.Time{}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	s = strings.TrimSpace(s)
	for _, layout := range readLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return nil
}
