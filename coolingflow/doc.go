// Package coolingflow provides the physics inputs of a steady, spherically
// symmetric, radiatively cooling inflow and the shooting primitive that turns
// a trial sonic radius into a full flow solution.
//
// 🚀 What is a cooling flow?
//
//	Hot halo gas radiates, loses pressure support and sinks inward. In steady
//	state the flow is subsonic at large radii and becomes supersonic at the
//	sonic radius R_sonic. For a given potential and cooling function, every
//	R_sonic yields one transonic solution with one mass inflow rate Mdot.
//
// ✨ Contents:
//   - Potential / PowerLaw: vc(r) = Vvir (r/Rvir)^m
//   - Cooling / CIECooling: tabulated collisional-ionisation cooling curves
//   - Solution: immutable ordered (r, T, nH, v) trace plus Mdot
//   - Shooter: integrates the flow equations from R_sonic
//
// ⚙️ Flow equations (s = ln r, inflow speed u > 0):
//
//	d ln u / ds = (2 − vc²/cs² − q/γ) / (M² − 1)
//	d ln T / ds = q − (γ − 1)(2 + d ln u / ds)
//	q           = r / (u t_cool),   t_cool = P / ((γ − 1) nH² Λ)
//
// At the sonic point numerator and denominator vanish together; the free
// parameter x = vc²/(2cs²) at R_sonic is bisected between XLow and XHigh
// until the subsonic branch reaches the outer radius. Hot trials (small x)
// end with a positive Bernoulli parameter, measured against Phi(∞) when the
// potential converges; cold trials cool out or turn supersonic again.
package coolingflow
