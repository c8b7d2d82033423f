package util

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// FormatDuration renders d as HH:MM:SS.mmm, rounded to the millisecond.
func FormatDuration(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	ms := d.Round(time.Millisecond).Milliseconds()
	return fmt.Sprintf("%s%02d:%02d:%02d.%03d", sign, ms/3600000, ms/60000%60, ms/1000%60, ms%1000)
}

// ParseTimestamp accepts SS.mmm, MM:SS.mmm or HH:MM:SS.mmm. Every field
// may be fractional; negative values are rejected.
func ParseTimestamp(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid timestamp %q", s)
	}

	var total float64
	for _, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("invalid timestamp %q", s)
		}
		total = total*60 + v
	}
	return time.Duration(total * float64(time.Second)), nil
}

// ParseFrameRate parses an ffprobe rate such as "30000/1001". Malformed
// or zero-denominator rates yield 0.
func ParseFrameRate(s string) float64 {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		return 0
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}

// FrameRate is an exact frame rate of Num/Den frames per second. The zero
// value means unset.
type FrameRate struct {
	Num int64
	Den int64
}

// NewFrameRate returns num/den reduced to lowest terms.
func NewFrameRate(num, den int64) FrameRate {
	if num <= 0 || den <= 0 {
		return FrameRate{}
	}
	a, b := num, den
	for b != 0 {
		a, b = b, a%b
	}
	return FrameRate{Num: num / a, Den: den / a}
}

// FrameRateFromFloat maps a decimal rate to an exact one. Rates within
// 0.005 of an NTSC rate (N*1000/1001) snap to it, so 29.97 becomes
// 30000/1001.
func FrameRateFromFloat(f float64) FrameRate {
	if f <= 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return FrameRate{}
	}
	if n := math.Round(f); math.Abs(f-n) < 1e-6 {
		return NewFrameRate(int64(n), 1)
	}
	if n := math.Round(f * 1.001); math.Abs(n*1000/1001-f) < 5e-3 {
		return NewFrameRate(int64(n)*1000, 1001)
	}
	return NewFrameRate(int64(math.Round(f*1000)), 1000)
}

// ParseRate accepts "30000/1001", "25" or "29.97".
func ParseRate(s string) (FrameRate, error) {
	s = strings.TrimSpace(s)
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err1 := strconv.ParseInt(strings.TrimSpace(num), 10, 64)
		d, err2 := strconv.ParseInt(strings.TrimSpace(den), 10, 64)
		if err1 != nil || err2 != nil || n < 0 || d <= 0 {
			return FrameRate{}, fmt.Errorf("invalid frame rate %q", s)
		}
		return NewFrameRate(n, d), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return FrameRate{}, fmt.Errorf("invalid frame rate %q", s)
	}
	return FrameRateFromFloat(f), nil
}

func (r FrameRate) IsZero() bool { return r.Num <= 0 || r.Den <= 0 }

// Float returns the rate in frames per second, 0 when unset.
func (r FrameRate) Float() float64 {
	if r.IsZero() {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

func (r FrameRate) String() string {
	if r.IsZero() {
		return "0"
	}
	if r.Den == 1 {
		return strconv.FormatInt(r.Num, 10)
	}
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

func (r FrameRate) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *FrameRate) UnmarshalText(text []byte) error {
	parsed, err := ParseRate(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
