package util

import (
	"os"
	"time"
)

//TimestampFormat is the fixed layout every timestamp leaves the analysis in.
//Timestamps are always rendered in UTC.
const TimestampFormat string = "2006-01-02 15:04:05.000000"

// IsDir returns true if argument is a directory
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

//FormatTimestamp renders t with TimestampFormat in UTC
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampFormat)
}

//FloorTime truncates t to a multiple of d since the Unix epoch.
//Unlike time.Truncate this is well defined for timestamps before 1970.
func FloorTime(t time.Time, d time.Duration) time.Time {
	nanos := t.UnixNano()
	step := int64(d)
	rem := nanos % step
	if rem < 0 {
		rem += step
	}
	return time.Unix(0, nanos-rem).UTC()
}

//Min returns the smaller of two integers
func Min(a int, b int) int {
	if a < b {
		return a
	}
	return b
}

//Max returns the larger of two integers
func Max(a int, b int) int {
	if a > b {
		return a
	}
	return b
}
