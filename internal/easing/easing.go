// Package easing provides timing curves mapping linear progress in [0,1]
// to eased progress.
package easing

import (
	"fmt"
	"strings"
)

// Func maps progress p in [0,1] to eased progress.
type Func func(p float64) float64

func Linear(p float64) float64 { return p }

func QuadraticEaseIn(p float64) float64  { return p * p }
func QuadraticEaseOut(p float64) float64 { return -(p * (p - 2)) }
func QuadraticEaseInOut(p float64) float64 {
	if p < 0.5 {
		return 2 * p * p
	}
	return -2*p*p + 4*p - 1
}

func CubicEaseIn(p float64) float64 { return p * p * p }
func CubicEaseOut(p float64) float64 {
	f := p - 1
	return f*f*f + 1
}
func CubicEaseInOut(p float64) float64 {
	if p < 0.5 {
		return 4 * p * p * p
	}
	f := 2*p - 2
	return 0.5*f*f*f + 1
}

func QuarticEaseIn(p float64) float64 { return p * p * p * p }
func QuarticEaseOut(p float64) float64 {
	f := p - 1
	return f*f*f*(1-p) + 1
}
func QuarticEaseInOut(p float64) float64 {
	if p < 0.5 {
		return 8 * p * p * p * p
	}
	f := p - 1
	return -8*f*f*f*f + 1
}

var byName = map[string]Func{
	"linear":             Linear,
	"easein":             QuadraticEaseIn,
	"easeout":            QuadraticEaseOut,
	"easeinout":          QuadraticEaseInOut,
	"quadraticeasein":    QuadraticEaseIn,
	"quadraticeaseout":   QuadraticEaseOut,
	"quadraticeaseinout": QuadraticEaseInOut,
	"cubiceasein":        CubicEaseIn,
	"cubiceaseout":       CubicEaseOut,
	"cubiceaseinout":     CubicEaseInOut,
	"quarticeasein":      QuarticEaseIn,
	"quarticeaseout":     QuarticEaseOut,
	"quarticeaseinout":   QuarticEaseInOut,
}

// ByName looks up a curve by case-insensitive name, ignoring '-' and '_'.
// An empty name resolves to Linear.
func ByName(name string) (Func, error) {
	if name == "" {
		return Linear, nil
	}
	key := strings.ToLower(strings.NewReplacer("-", "", "_", "").Replace(name))
	f, ok := byName[key]
	if !ok {
		return nil, fmt.Errorf("unknown easing function %q", name)
	}
	return f, nil
}

// Clamp limits p to [0,1].
func Clamp(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}
