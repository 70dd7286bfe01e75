// Package units carries physical quantities through cgmflow without mixing
// unit systems.
//
// Every quantity is stored in CGS as a distinct named float64 type, so a
// Length cannot be passed where a MassRate is expected without an explicit
// conversion. Constructors take the astronomer-friendly unit (kpc, Msun,
// Msun/yr, km/s); accessor methods return the value in a named unit.
//
// ⚙️ Usage:
//
//	r := units.Kpc(250)           // Length, stored in cm
//	mdot := units.MsunPerYr(3.0)  // MassRate, stored in g/s
//	fmt.Println(r.Kpc(), mdot.MsunPerYr())
//
// Constants follow the IAU 2015 / CODATA 2018 values used by astropy.
package units
