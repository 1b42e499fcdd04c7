package systems

import "math"

// Clamp functions for common value ranges

// clampFloat clamps a value between min and max.
func clampFloat(v, minVal, maxVal float64) float64 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

// Distance functions

// distanceSq returns the squared distance between two points.
func distanceSq(x1, y1, x2, y2 float64) float64 {
	dx := x1 - x2
	dy := y1 - y2
	return dx*dx + dy*dy
}

// distance returns the Euclidean distance between two points.
func distance(x1, y1, x2, y2 float64) float64 {
	return math.Sqrt(distanceSq(x1, y1, x2, y2))
}

// Distance returns the Euclidean distance between two points.
func Distance(x1, y1, x2, y2 float64) float64 {
	return distance(x1, y1, x2, y2)
}

// stepToward returns (x,y) moved by step along the direction to (tx,ty).
// A negative step moves directly away. Coincident points use angle 0.
func stepToward(x, y, tx, ty, step float64) (float64, float64) {
	angle := math.Atan2(ty-y, tx-x)
	return x + math.Cos(angle)*step, y + math.Sin(angle)*step
}
