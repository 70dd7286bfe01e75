// SPDX-License-Identifier: MIT

package units

import "fmt"

// CGS constants.
const (
	// G is the gravitational constant [cm³ g⁻¹ s⁻²].
	G = 6.6743e-8
	// Kb is the Boltzmann constant [erg K⁻¹].
	Kb = 1.380649e-16
	// ProtonMass [g].
	ProtonMass = 1.67262192369e-24
	// SolarMass [g].
	SolarMass = 1.988409870698051e33
	// CmPerKpc is one kiloparsec in cm.
	CmPerKpc = 3.0856775814913673e21
	// CmPerMpc is one megaparsec in cm.
	CmPerMpc = 1e3 * CmPerKpc
	// SecondsPerYear is the Julian year in s.
	SecondsPerYear = 3.15576e7
	// CmPerKm is one kilometre in cm.
	CmPerKm = 1e5
)

// Length in cm.
type Length float64

// Mass in g.
type Mass float64

// MassRate in g s⁻¹.
type MassRate float64

// Velocity in cm s⁻¹.
type Velocity float64

// Temperature in K.
type Temperature float64

// NumberDensity in cm⁻³.
type NumberDensity float64

// Density is a mass density in g cm⁻³.
type Density float64

// Cm builds a Length from centimetres.
func Cm(x float64) Length { return Length(x) }

// Kpc builds a Length from kiloparsecs.
func Kpc(x float64) Length { return Length(x * CmPerKpc) }

// Cm returns the length in centimetres.
func (l Length) Cm() float64 { return float64(l) }

// Kpc returns the length in kiloparsecs.
func (l Length) Kpc() float64 { return float64(l) / CmPerKpc }

// String implements fmt.Stringer.
func (l Length) String() string { return fmt.Sprintf("%.4g kpc", l.Kpc()) }

// Grams builds a Mass from grams.
func Grams(x float64) Mass { return Mass(x) }

// Msun builds a Mass from solar masses.
func Msun(x float64) Mass { return Mass(x * SolarMass) }

// Grams returns the mass in grams.
func (m Mass) Grams() float64 { return float64(m) }

// Msun returns the mass in solar masses.
func (m Mass) Msun() float64 { return float64(m) / SolarMass }

// String implements fmt.Stringer.
func (m Mass) String() string { return fmt.Sprintf("%.4g Msun", m.Msun()) }

// GramsPerSecond builds a MassRate from g/s.
func GramsPerSecond(x float64) MassRate { return MassRate(x) }

// MsunPerYr builds a MassRate from Msun/yr.
func MsunPerYr(x float64) MassRate { return MassRate(x * SolarMass / SecondsPerYear) }

// GramsPerSecond returns the rate in g/s.
func (m MassRate) GramsPerSecond() float64 { return float64(m) }

// MsunPerYr returns the rate in Msun/yr.
func (m MassRate) MsunPerYr() float64 { return float64(m) * SecondsPerYear / SolarMass }

// String implements fmt.Stringer.
func (m MassRate) String() string { return fmt.Sprintf("%.4g Msun/yr", m.MsunPerYr()) }

// CmPerS builds a Velocity from cm/s.
func CmPerS(x float64) Velocity { return Velocity(x) }

// KmPerS builds a Velocity from km/s.
func KmPerS(x float64) Velocity { return Velocity(x * CmPerKm) }

// CmPerS returns the velocity in cm/s.
func (v Velocity) CmPerS() float64 { return float64(v) }

// KmPerS returns the velocity in km/s.
func (v Velocity) KmPerS() float64 { return float64(v) / CmPerKm }

// String implements fmt.Stringer.
func (v Velocity) String() string { return fmt.Sprintf("%.4g km/s", v.KmPerS()) }

// Kelvin builds a Temperature.
func Kelvin(x float64) Temperature { return Temperature(x) }

// K returns the temperature in kelvin.
func (t Temperature) K() float64 { return float64(t) }

// PerCm3 builds a NumberDensity from cm⁻³.
func PerCm3(x float64) NumberDensity { return NumberDensity(x) }

// PerCm3 returns the number density in cm⁻³.
func (n NumberDensity) PerCm3() float64 { return float64(n) }

// GramsPerCm3 builds a Density from g cm⁻³.
func GramsPerCm3(x float64) Density { return Density(x) }

// GramsPerCm3 returns the density in g cm⁻³.
func (d Density) GramsPerCm3() float64 { return float64(d) }
