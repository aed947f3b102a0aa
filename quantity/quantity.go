// Package quantity decides what an integral measures (length, area, volume or
// mass) from its coordinate system, the shape of its integrand and the number
// of integrals, and derives the matching unit exponent.
package quantity

import (
	"github.com/korjavin/integralsheet/models"
)

// Kind is the physical reading of an integral's value. The zero value means unknown.
type Kind string

const (
	Unknown Kind = ""
	Length  Kind = "Length"
	Area    Kind = "Area"
	Volume  Kind = "Volume"
	Mass    Kind = "Mass"
)

// Exponent is the power the base unit is raised to.
func Exponent(k Kind) int {
	switch k {
	case Length:
		return 1
	case Area:
		return 2
	case Volume:
		return 3
	}
	return 0
}

// Suffix is the unit suffix appended to the base unit: "^2" for areas, "^3"
// for volumes, nothing for lengths and masses.
func Suffix(k Kind) string {
	switch k {
	case Area:
		return "^2"
	case Volume:
		return "^3"
	}
	return ""
}

// Units returns the unit string for k, or "" when k is unknown.
func Units(base string, k Kind) string {
	if k == Unknown {
		return ""
	}
	if base == "" {
		base = models.DefaultUnits
	}
	return base + Suffix(k)
}

// Label is the one-letter symbol printed in front of a result, as in "A = ...".
func Label(k Kind) string {
	switch k {
	case Length:
		return "L"
	case Area:
		return "A"
	case Volume:
		return "V"
	case Mass:
		return "M"
	}
	return ""
}

// IsPolarJacobian reports whether the integrand is just r.
func IsPolarJacobian(function string) bool {
	return Normalize(function) == "r"
}

// IsCylindricalJacobian reports whether the integrand is just r.
func IsCylindricalJacobian(function string) bool {
	return Normalize(function) == "r"
}

var sphericalJacobians = map[string]bool{
	"r**2*sin(phi)":     true,
	"r**2*sin(theta)":   true,
	"rho**2*sin(phi)":   true,
	"rho**2*sin(theta)": true,
}

// IsSphericalJacobian reports whether the integrand is r**2*sin(phi) or one of
// its spellings with rho and theta, in any factor order.
func IsSphericalJacobian(function string) bool {
	return sphericalJacobians[Normalize(function)]
}

// Classify applies the decision table. Combinations it does not cover return
// (Unknown, ""); callers show such results without units.
func Classify(function string, system models.CoordinateSystem, integrals int) (Kind, string) {
	k := classify(Normalize(function), system, integrals)
	return k, Suffix(k)
}

func classify(shape string, system models.CoordinateSystem, n int) Kind {
	switch system {
	case models.Cartesian:
		if shape == "1" {
			return pick(n, Length, Area, Volume)
		}
		return pick(n, Area, Volume, Mass)
	case models.Polar:
		if shape == "r" {
			return Area
		}
		return Volume
	case models.Cylindrical:
		if shape == "r" {
			return pick(n, Unknown, Area, Volume)
		}
		return pick(n, Unknown, Volume, Mass)
	case models.Spherical:
		if sphericalJacobians[shape] {
			return Volume
		}
		return Mass
	}
	return Unknown
}

// pick returns the kind for one, two or three integrals.
func pick(n int, one, two, three Kind) Kind {
	switch n {
	case 1:
		return one
	case 2:
		return two
	case 3:
		return three
	}
	return Unknown
}

// DetectSystem guesses the coordinate system from the integration variables.
// Anything unrecognised is treated as cartesian.
func DetectSystem(vars []string) models.CoordinateSystem {
	set := make(map[string]bool, len(vars))
	for _, v := range vars {
		set[v] = true
	}
	is := func(names ...string) bool {
		if len(set) != len(names) {
			return false
		}
		for _, n := range names {
			if !set[n] {
				return false
			}
		}
		return true
	}
	switch {
	case is("r", "theta"):
		return models.Polar
	case is("r", "theta", "z"):
		return models.Cylindrical
	case is("rho", "theta", "phi"):
		return models.Spherical
	}
	return models.Cartesian
}
