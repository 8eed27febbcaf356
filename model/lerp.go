package model

import "math"

// Lerp interpolates between start and end. pct 0 yields start and pct 1
// yields end exactly.
func Lerp(start, end, pct float64) float64 {
	return start*(1-pct) + end*pct
}

// MapClamp linearly remaps v from [minIn,maxIn] to [minOut,maxOut] and clamps
// the result into the output range. Inverted output ranges are allowed. A
// degenerate input range maps everything to minOut.
func MapClamp(v, minIn, maxIn, minOut, maxOut float64) float64 {
	if maxIn == minIn {
		return minOut
	}
	mapped := minOut + (v-minIn)*(maxOut-minOut)/(maxIn-minIn)
	return clamp(mapped, math.Min(minOut, maxOut), math.Max(minOut, maxOut))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// clampBrightness also maps NaN to 0 so a bad input never poisons output.
func clampBrightness(b float64) float64 {
	if math.IsNaN(b) {
		return 0
	}
	return clamp(b, 0, 1)
}
