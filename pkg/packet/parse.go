package packet

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// maxTimestamp bounds the seconds a timestamp may hold so that it still
// fits in an int64 count of nanoseconds
const maxTimestamp = float64(math.MaxInt64) / float64(time.Second)

// MSSUnset marks a record which carried no MSS option
const MSSUnset = -1.0

// Optional is a numeric column which may be absent or malformed.
// Value is 0 whenever Valid is false.
type Optional struct {
	Value float64
	Valid bool
}

// parseNumber is the single numeric parser behind every column.
// NaN and the infinities are rejected.
func parseNumber(text string) (float64, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, false
	}
	val, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(val) || math.IsInf(val, 0) {
		return 0, false
	}
	return val, true
}

// ParseTimestamp reads fractional Unix seconds. The result is rounded to the
// nearest nanosecond and expressed in UTC. The second return value is false
// for unparsable or out of range input, in which case the record must be
// dropped.
func ParseTimestamp(text string) (time.Time, bool) {
	val, ok := parseNumber(text)
	if !ok || math.Abs(val) >= maxTimestamp {
		return time.Time{}, false
	}
	secs := math.Floor(val)
	nanos := math.Round((val - secs) * float64(time.Second))
	return time.Unix(int64(secs), int64(nanos)).UTC(), true
}

// ParsePort reads a port number, truncating any fractional part.
// Falls back to 0 when the text is not numeric.
func ParsePort(text string) (int, bool) {
	val, ok := parseNumber(text)
	if !ok || math.Abs(val) > math.MaxInt32 {
		return 0, false
	}
	return int(val), true
}

// ParseFloat reads an optional numeric column. Falls back to an invalid
// Optional with a zero value.
func ParseFloat(text string) Optional {
	val, ok := parseNumber(text)
	if !ok {
		return Optional{}
	}
	return Optional{Value: val, Valid: true}
}

// ParseMSS reads the MSS column. Falls back to MSSUnset.
func ParseMSS(text string) float64 {
	val, ok := parseNumber(text)
	if !ok {
		return MSSUnset
	}
	return val
}
