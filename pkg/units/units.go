// Package units tags numeric values with physical units and converts
// between units of the same dimension.
package units

import (
	"errors"
	"fmt"
	"math"
)

// Dimension is the physical quantity a unit measures
type Dimension int

const (
	Dimensionless Dimension = iota
	Length
	Angle
	Duration
)

func (d Dimension) String() string {
	switch d {
	case Dimensionless:
		return "dimensionless"
	case Length:
		return "length"
	case Angle:
		return "angle"
	case Duration:
		return "duration"
	}
	return fmt.Sprintf("Dimension(%d)", int(d))
}

// ErrIncompatible is returned when converting across dimensions
var ErrIncompatible = errors.New("incompatible units")

// hcAngstromKeV is Planck's constant times c in keV·Å
const hcAngstromKeV = 12.398419843320026

// Unit converts to and from its dimension's base unit. Length is based on
// the millimetre, angle on the degree and duration on the second.
type Unit struct {
	symbol string
	dim    Dimension

	// base units per unit for linear units
	scale float64

	// nonzero for reciprocal units, where base = inverse / value
	inverse float64
}

var (
	Millimetre = &Unit{symbol: "mm", dim: Length, scale: 1}
	Micron     = &Unit{symbol: "µm", dim: Length, scale: 1e-3}
	Metre      = &Unit{symbol: "m", dim: Length, scale: 1e3}
	Inch       = &Unit{symbol: "in", dim: Length, scale: 25.4}
	Angstrom   = &Unit{symbol: "Å", dim: Length, scale: 1e-7}

	// ElectronVolt and KiloElectronVolt express a wavelength as photon energy
	ElectronVolt     = &Unit{symbol: "eV", dim: Length, inverse: hcAngstromKeV * 1e3 * 1e-7}
	KiloElectronVolt = &Unit{symbol: "keV", dim: Length, inverse: hcAngstromKeV * 1e-7}

	Degree = &Unit{symbol: "°", dim: Angle, scale: 1}
	Radian = &Unit{symbol: "rad", dim: Angle, scale: 180 / math.Pi}

	Second      = &Unit{symbol: "s", dim: Duration, scale: 1}
	Millisecond = &Unit{symbol: "ms", dim: Duration, scale: 1e-3}

	One = &Unit{symbol: "", dim: Dimensionless, scale: 1}
)

// PixelSymbol is the symbol of every pixel unit
const PixelSymbol = "pixel"

// Pixel returns a length unit where one pixel is sizeMM millimetres. Each
// detector creates its own pixel unit from its current pixel size.
func Pixel(sizeMM float64) *Unit {
	return &Unit{symbol: PixelSymbol, dim: Length, scale: sizeMM}
}

// Symbol returns the display symbol
func (u *Unit) Symbol() string { return u.symbol }

// Dimension returns the measured quantity
func (u *Unit) Dimension() Dimension { return u.dim }

// IsPixel reports whether the unit is a pixel unit
func (u *Unit) IsPixel() bool { return u.symbol == PixelSymbol }

// Scale returns base units per unit, or zero for reciprocal units
func (u *Unit) Scale() float64 { return u.scale }

// ToBase converts v from this unit to the base unit
func (u *Unit) ToBase(v float64) float64 {
	if u.inverse != 0 {
		return u.inverse / v
	}
	return v * u.scale
}

// FromBase converts a base unit value to this unit
func (u *Unit) FromBase(b float64) float64 {
	if u.inverse != 0 {
		return u.inverse / b
	}
	return b / u.scale
}

// Equal reports whether two units convert identically
func (u *Unit) Equal(o *Unit) bool {
	if u == nil || o == nil {
		return u == o
	}
	return u.symbol == o.symbol && u.dim == o.dim && u.scale == o.scale && u.inverse == o.inverse
}

// Compatible reports whether values can be converted between the units
func (u *Unit) Compatible(o *Unit) bool {
	return u != nil && o != nil && u.dim == o.dim
}

func (u *Unit) String() string {
	if u.symbol == "" {
		return "1"
	}
	return u.symbol
}

// Convert expresses v, measured in from, in the unit to
func Convert(v float64, from, to *Unit) (float64, error) {
	if !from.Compatible(to) {
		return 0, fmt.Errorf("convert %s to %s: %w", from, to, ErrIncompatible)
	}
	if from.Equal(to) {
		return v, nil
	}
	return to.FromBase(from.ToBase(v)), nil
}

// Amount is a value with its unit
type Amount struct {
	Value float64
	Unit  *Unit
}

// Of creates an amount
func Of(v float64, u *Unit) Amount {
	return Amount{Value: v, Unit: u}
}

// To converts the amount to another unit
func (a Amount) To(u *Unit) (Amount, error) {
	v, err := Convert(a.Value, a.Unit, u)
	if err != nil {
		return Amount{}, err
	}
	return Amount{Value: v, Unit: u}, nil
}

func (a Amount) String() string {
	if a.Unit == nil || a.Unit.symbol == "" {
		return fmt.Sprintf("%g", a.Value)
	}
	return fmt.Sprintf("%g %s", a.Value, a.Unit.symbol)
}
