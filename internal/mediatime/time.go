// Package mediatime implements rational media time and the time range
// algebra the composition planner is built on.
package mediatime

import (
	"fmt"
	"math"
	"math/big"
	"math/bits"
	"time"
)

// DefaultScale is the timescale used when converting from seconds.
const DefaultScale int32 = 600

// Time is a rational point in time: Value / Scale seconds.
type Time struct {
	Value int64
	Scale int32
}

// Zero is the origin of every timeline.
var Zero = Time{Value: 0, Scale: 1}

// New returns value/scale seconds. A non-positive scale is treated as 1.
func New(value int64, scale int32) Time {
	if scale <= 0 {
		scale = 1
	}
	return Time{Value: value, Scale: scale}
}

// FromSeconds converts floating point seconds at the given scale, rounding
// to the nearest unit.
func FromSeconds(seconds float64, scale int32) Time {
	if scale <= 0 {
		scale = DefaultScale
	}
	return Time{Value: int64(math.Round(seconds * float64(scale))), Scale: scale}
}

// FromDuration converts a time.Duration at microsecond precision.
func FromDuration(d time.Duration) Time {
	return Time{Value: d.Microseconds(), Scale: 1_000_000}
}

func (t Time) scale() int64 {
	if t.Scale <= 0 {
		return 1
	}
	return int64(t.Scale)
}

// Seconds returns t as floating point seconds.
func (t Time) Seconds() float64 {
	return float64(t.Value) / float64(t.scale())
}

// Duration returns t as a time.Duration, truncated to nanoseconds.
func (t Time) Duration() time.Duration {
	s := t.scale()
	whole, frac := t.Value/s, t.Value%s
	return time.Duration(whole)*time.Second + time.Duration(frac*int64(time.Second)/s)
}

// Convert rescales t to scale, rounding half away from zero. Values that
// do not fit the new scale saturate.
func (t Time) Convert(scale int32) Time {
	if scale <= 0 {
		scale = 1
	}
	if int64(scale) == t.scale() {
		return Time{Value: t.Value, Scale: scale}
	}
	return Time{Value: mulDiv(t.Value, int64(scale), t.scale()), Scale: scale}
}

// Add returns t + o on the least common timescale. When that scale or
// the sum does not fit, the exact sum is reduced, and failing that
// rounded to the finer of the two scales.
func (t Time) Add(o Time) Time {
	ts, os := t.scale(), o.scale()
	if s := lcm(ts, os); s <= math.MaxInt32 {
		a, ok1 := mulExact(t.Value, s/ts)
		b, ok2 := mulExact(o.Value, s/os)
		if sum, ok3 := addExact(a, b); ok1 && ok2 && ok3 {
			return Time{Value: sum, Scale: int32(s)}
		}
	}
	return fromRat(new(big.Rat).Add(t.rat(), o.rat()), max(ts, os))
}

func (t Time) rat() *big.Rat {
	return new(big.Rat).SetFrac(big.NewInt(t.Value), big.NewInt(t.scale()))
}

// fromRat returns r on its reduced scale when it fits, otherwise r
// rounded to scale.
func fromRat(r *big.Rat, scale int64) Time {
	num, den := r.Num(), r.Denom()
	if den.IsInt64() && den.Int64() <= math.MaxInt32 && num.IsInt64() {
		return Time{Value: num.Int64(), Scale: int32(den.Int64())}
	}
	n := new(big.Int).Mul(num, big.NewInt(scale))
	q, m := new(big.Int).QuoRem(n, den, new(big.Int))
	if m.Abs(m).Lsh(m, 1).Cmp(den) >= 0 {
		q.Add(q, big.NewInt(int64(n.Sign())))
	}
	switch {
	case !q.IsInt64() && q.Sign() > 0:
		return Time{Value: math.MaxInt64, Scale: int32(scale)}
	case !q.IsInt64():
		return Time{Value: math.MinInt64, Scale: int32(scale)}
	}
	return Time{Value: q.Int64(), Scale: int32(scale)}
}

// Sub returns t - o on the least common timescale.
func (t Time) Sub(o Time) Time {
	return t.Add(o.Neg())
}

// Neg returns -t.
func (t Time) Neg() Time {
	return Time{Value: -t.Value, Scale: int32(t.scale())}
}

// MulFloat multiplies t by f, keeping t's scale.
func (t Time) MulFloat(f float64) Time {
	return Time{Value: int64(math.Round(float64(t.Value) * f)), Scale: int32(t.scale())}
}

// Ratio returns t / o as a float. It returns 0 when o is zero.
func (t Time) Ratio(o Time) float64 {
	if o.Value == 0 {
		return 0
	}
	return (float64(t.Value) / float64(t.scale())) / (float64(o.Value) / float64(o.scale()))
}

// Compare returns -1, 0 or +1. Cross products are taken in 128 bits so
// the result is exact for every representable pair.
func (t Time) Compare(o Time) int {
	ls, rs := sign(t.Value), sign(o.Value)
	if ls != rs {
		if ls < rs {
			return -1
		}
		return 1
	}
	if ls == 0 {
		return 0
	}
	lhi, llo := bits.Mul64(abs64(t.Value), uint64(o.scale()))
	rhi, rlo := bits.Mul64(abs64(o.Value), uint64(t.scale()))
	c := 0
	switch {
	case lhi < rhi || lhi == rhi && llo < rlo:
		c = -1
	case lhi > rhi || lhi == rhi && llo > rlo:
		c = 1
	}
	return c * ls
}

func (t Time) Before(o Time) bool { return t.Compare(o) < 0 }
func (t Time) After(o Time) bool  { return t.Compare(o) > 0 }
func (t Time) Equal(o Time) bool  { return t.Compare(o) == 0 }

// IsZero reports whether t is exactly zero seconds.
func (t Time) IsZero() bool { return t.Value == 0 }

// IsPositive reports whether t is strictly greater than zero.
func (t Time) IsPositive() bool { return t.Value > 0 }

func (t Time) String() string {
	return fmt.Sprintf("%d/%d", t.Value, t.scale())
}

// Min returns the earlier of a and b.
func Min(a, b Time) Time {
	if b.Before(a) {
		return b
	}
	return a
}

// Max returns the later of a and b.
func Max(a, b Time) Time {
	if b.After(a) {
		return b
	}
	return a
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func lcm(a, b int64) int64 {
	if a == b {
		return a
	}
	return a / gcd(a, b) * b
}

func sign(v int64) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	}
	return 0
}

// abs64 returns |v| as unsigned, so math.MinInt64 has a magnitude.
func abs64(v int64) uint64 {
	if v < 0 {
		return uint64(-(v + 1)) + 1
	}
	return uint64(v)
}

// mulExact returns v*m for m > 0 and whether it fit in an int64.
func mulExact(v, m int64) (int64, bool) {
	hi, lo := bits.Mul64(abs64(v), uint64(m))
	if hi != 0 || lo > math.MaxInt64 {
		return 0, false
	}
	if v < 0 {
		return -int64(lo), true
	}
	return int64(lo), true
}

func addExact(a, b int64) (int64, bool) {
	sum := a + b
	if (a >= 0) == (b >= 0) && (sum >= 0) != (a >= 0) {
		return 0, false
	}
	return sum, true
}

// mulDiv returns v*m/d for m, d > 0, rounded half away from zero and
// saturated to the int64 range.
func mulDiv(v, m, d int64) int64 {
	hi, lo := bits.Mul64(abs64(v), uint64(m))
	ud := uint64(d)
	if hi >= ud {
		if v < 0 {
			return math.MinInt64
		}
		return math.MaxInt64
	}
	q, r := bits.Div64(hi, lo, ud)
	if r >= ud-r && q < math.MaxUint64 {
		q++
	}
	if q > math.MaxInt64 {
		q = math.MaxInt64
	}
	if v < 0 {
		return -int64(q)
	}
	return int64(q)
}

