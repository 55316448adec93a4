// Copyright (c) 2026 Aresys S.r.l. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.8.26
//

package perturb

// Solid Earth tides displacement, in-phase degree 2 and 3 terms of the
// IERS Conventions (2010) model with nominal Love/Shida numbers.
//
// The lunisolar ephemeris is an external collaborator: geocentric ECEF
// positions of Sun and Moon at the requested epoch.

// Ephemeris supplies the geocentric ECEF positions [m] of Sun and Moon
// at an epoch. Implementations report epochs outside their data span
// with a TemporalCoverageError.
type Ephemeris interface {
	SunMoon(t GTime) (sun, moon PosXYZ, err error)
}

type TidalModel struct {
	// Nominal degree 2 and 3 Love/Shida numbers
	H2, L2 float64
	H3, L3 float64

	// Body-to-Earth mass ratios
	MassRatioSun  float64
	MassRatioMoon float64

	Eph Ephemeris
}

func NewTidalModel(eph Ephemeris) *TidalModel {
	return &TidalModel{
		H2: 0.6078, L2: 0.0847,
		H3: 0.292, L3: 0.015,
		MassRatioSun:  332946.0482,
		MassRatioMoon: 0.0123000371,
		Eph:           eph,
	}
}

// TideDisplacement computes the solid tide displacement [m] of an ECEF
// point at epoch t as the sum of the Sun and Moon degree 2 and 3
// contributions.
func (m *TidalModel) TideDisplacement(pt PosXYZ, t GTime) (PosXYZ, error) {
	sun, moon, err := m.Eph.SunMoon(t)
	if err != nil {
		return PosXYZ{}, err
	}
	d := m.bodyTide(pt, sun, m.MassRatioSun)
	d = d.Add(m.bodyTide(pt, moon, m.MassRatioMoon))
	return d, nil
}

// In-phase displacement induced by one body: radial and transverse
// degree 2 and 3 terms (IERS Conventions 2010, eq. 7.5).
func (m *TidalModel) bodyTide(pt, body PosXYZ, massRatio float64) PosXYZ {
	ur := pt.Unit()
	ub := body.Unit()
	rb := body.Norm()

	// cosine of the angle between body and station directions
	scm := ur.Dot(ub)

	p2 := 3*(m.H2/2-m.L2)*scm*scm - m.H2/2
	x2 := 3 * m.L2 * scm
	p3 := 2.5*(m.H3-3*m.L3)*scm*scm*scm + 1.5*(m.L3-m.H3)*scm
	x3 := 1.5 * m.L3 * (5*scm*scm - 1)

	ratio := Re / rb
	fac2 := massRatio * Re * ratio * ratio * ratio
	fac3 := fac2 * ratio

	d := ub.Scale(fac2 * x2).Add(ur.Scale(fac2 * p2))
	return d.Add(ub.Scale(fac3 * x3)).Add(ur.Scale(fac3 * p3))
}
