// Package units provides shared constants and conversions for depth and
// propagation-velocity units used across the GPR pipeline.
package units

import "math"

// Depth unit constants
const (
	Meters = "m"
	Feet   = "ft"
	Inches = "in"
)

// SpeedOfLightMpns is the free-space propagation velocity in m/ns.
const SpeedOfLightMpns = 0.299792458

// ValidDepthUnits contains all valid depth unit values
var ValidDepthUnits = []string{Meters, Feet, Inches}

// IsValidDepthUnit checks if the given unit is in the list of valid units
func IsValidDepthUnit(unit string) bool {
	for _, validUnit := range ValidDepthUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// ConvertDepth converts a depth from meters to the target units.
// The pipeline stores depths in meters.
func ConvertDepth(depthM float64, targetUnits string) float64 {
	switch targetUnits {
	case Feet:
		return depthM * 3.28084 // m to ft
	case Inches:
		return depthM * 39.3701 // m to in
	case Meters:
		return depthM // no conversion needed
	default:
		return depthM // default to meters if unknown unit
	}
}

// VelocityFromPermittivity returns the subsurface propagation velocity in
// m/ns for a material with the given relative permittivity.
func VelocityFromPermittivity(epsilonR float64) float64 {
	if epsilonR <= 0 {
		return SpeedOfLightMpns
	}
	return SpeedOfLightMpns / math.Sqrt(epsilonR)
}

// MpnsToMps converts a velocity from meters per nanosecond to meters per
// second.
func MpnsToMps(v float64) float64 { return v * 1e9 }

// TwoWayTimeNs returns the round-trip travel time in nanoseconds for a
// reflector at depthM with propagation velocity velocityMpns.
func TwoWayTimeNs(depthM, velocityMpns float64) float64 {
	if velocityMpns <= 0 {
		return 0
	}
	return 2 * depthM / velocityMpns
}
