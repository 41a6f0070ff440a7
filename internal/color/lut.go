// Package color converts 8-bit sRGB components to and from linear light
// using lookup tables.
package color

import "math"

// toLinear maps every sRGB byte to linear light in [0, 1].
var toLinear [256]float32

// toSRGB maps linear light quantized to 12 bits back to an sRGB byte.
var toSRGB [4096]uint8

func init() {
	for i := range toLinear {
		toLinear[i] = float32(decode(float64(i) / 255))
	}
	for i := range toSRGB {
		toSRGB[i] = quantize(encode(float64(i) / 4095))
	}
}

// Linear returns the linear-light value of sRGB byte s.
func Linear(s uint8) float32 {
	return toLinear[s]
}

// SRGB returns the sRGB byte for linear-light l. l is clamped to [0, 1].
func SRGB(l float32) uint8 {
	switch {
	case l <= 0:
		return 0
	case l >= 1:
		return 255
	}
	return toSRGB[int(l*4095+0.5)]
}

// LinearExact computes Linear without the table.
func LinearExact(s uint8) float32 {
	return float32(decode(float64(s) / 255))
}

// SRGBExact computes SRGB without the table.
func SRGBExact(l float32) uint8 {
	return quantize(encode(math.Max(0, math.Min(1, float64(l)))))
}

func decode(s float64) float64 {
	if s <= 0.04045 {
		return s / 12.92
	}
	return math.Pow((s+0.055)/1.055, 2.4)
}

func encode(l float64) float64 {
	if l <= 0.0031308 {
		return l * 12.92
	}
	return 1.055*math.Pow(l, 1/2.4) - 0.055
}

func quantize(v float64) uint8 {
	return uint8(math.Max(0, math.Min(255, math.Round(v*255))))
}
