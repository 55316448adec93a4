// Copyright (c) 2026 Aresys S.r.l. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.8.27
//

package perturb

import (
	"math"
)

// Tropospheric delay estimator based on the VMF3 discrete mapping
// functions (Landskron & Boehm 2018) and the TU Wien operational grids.
//
// The hydrostatic and wet zenith delays and the "a" coefficients are
// interpolated from the 6-hourly grids; the b and c coefficients come
// from the bundled empirical spherical harmonics expansion. Zenith delays
// are referred from the grid station height to the target height before
// mapping into the line of sight.

// Elevation cutoff below which the continued fraction is no longer
// considered valid [rad]
const TropoElevCutoff = 3.0 / 180.0 * PI

type TropoDelay struct {
	ZenithHydrostatic float64 // [m]
	ZenithWet         float64 // [m]
	SlantHydrostatic  float64 // [m]
	SlantWet          float64 // [m]
	MFHydrostatic     float64
	MFWet             float64
}

// Total returns the full slant tropospheric delay [m].
func (d TropoDelay) Total() float64 {
	return d.SlantHydrostatic + d.SlantWet
}

type TropoModel struct {
	Resolution  GridResolution
	ClampToGrid bool // Clamp out-of-grid points to the boundary node instead of failing

	coeffs   *vmf3Coeffs
	stations *StationGrid
}

// NewTropoModel loads the empirical coefficient tables and the station
// height grid for the given resolution from the provider.
func NewTropoModel(p ResourceProvider, res GridResolution) (*TropoModel, error) {
	coeffs, err := loadVMF3Coeffs(p)
	if err != nil {
		return nil, err
	}
	content, err := p.ReadResource(res.resourceID())
	if err != nil {
		return nil, err
	}
	stations, err := ParseStationGrid(content)
	if err != nil {
		return nil, err
	}
	return &TropoModel{
		Resolution: res,
		coeffs:     coeffs,
		stations:   stations,
	}, nil
}

// ZenithDelays interpolates the zenith hydrostatic and wet delays and the
// mapping "a" coefficients at the point and epoch: bilinear over the grid,
// linear in time between the two bracketing 6-hourly maps. The zenith
// delays are corrected from the grid station height to the point height.
func (m *TropoModel) ZenithDelays(g *VMF3Grid, pt PosLLH, t GTime) (zhd, zwd, ah, aw float64, err error) {
	start, end := g.Coverage()
	if t.Less(start) || end.Less(t) {
		return 0, 0, 0, 0, &TemporalCoverageError{Epoch: t, Start: start, End: end}
	}

	latDeg, lonDeg := ToDeg(pt.Lat), ToDeg(pt.Lon)
	lonDeg = wrapLon(g.LonAxis, lonDeg)

	k := 0
	if len(g.Epochs) > 1 {
		k = len(g.Epochs) - 2
		for i := 1; i < len(g.Epochs); i++ {
			if t.Less(g.Epochs[i]) {
				k = i - 1
				break
			}
		}
	}

	at := func(i int) (zhd, zwd, ah, aw float64, err error) {
		var ok bool
		if zhd, ok = bilinear(g.Zhd[i], g.LatAxis, g.LonAxis, latDeg, lonDeg, m.ClampToGrid); ok {
			if zwd, ok = bilinear(g.Zwd[i], g.LatAxis, g.LonAxis, latDeg, lonDeg, m.ClampToGrid); ok {
				if ah, ok = bilinear(g.Ah[i], g.LatAxis, g.LonAxis, latDeg, lonDeg, m.ClampToGrid); ok {
					aw, ok = bilinear(g.Aw[i], g.LatAxis, g.LonAxis, latDeg, lonDeg, m.ClampToGrid)
				}
			}
		}
		if !ok {
			return 0, 0, 0, 0, &SpatialCoverageError{
				LatDeg: latDeg, LonDeg: lonDeg,
				LatMin: g.LatAxis[0], LatMax: g.LatAxis[len(g.LatAxis)-1],
				LonMin: g.LonAxis[0], LonMax: g.LonAxis[len(g.LonAxis)-1],
			}
		}
		return zhd, zwd, ah, aw, nil
	}

	zhd, zwd, ah, aw, err = at(k)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	if len(g.Epochs) > 1 {
		zhd2, zwd2, ah2, aw2, err := at(k + 1)
		if err != nil {
			return 0, 0, 0, 0, err
		}
		t1, t2 := g.Epochs[k], g.Epochs[k+1]
		dt1 := t.Sub(t1)
		dt2 := t2.Sub(t)
		span := t2.Sub(t1)
		zhd = (dt2*zhd + dt1*zhd2) / span
		zwd = (dt2*zwd + dt1*zwd2) / span
		ah = (dt2*ah + dt1*ah2) / span
		aw = (dt2*aw + dt1*aw2) / span
	}

	// refer the zenith delays from the grid station height to the target
	hg, ok := bilinear(m.stations.Height, m.stations.LatAxis, m.stations.LonAxis, latDeg, wrapLon(m.stations.LonAxis, lonDeg), m.ClampToGrid)
	if !ok {
		return 0, 0, 0, 0, &SpatialCoverageError{
			LatDeg: latDeg, LonDeg: lonDeg,
			LatMin: m.stations.LatAxis[0], LatMax: m.stations.LatAxis[len(m.stations.LatAxis)-1],
			LonMin: m.stations.LonAxis[0], LonMax: m.stations.LonAxis[len(m.stations.LonAxis)-1],
		}
	}
	zhd = correctZhdHeight(zhd, pt.Lat, hg, pt.Hei)
	zwd *= math.Exp(-(pt.Hei - hg) / 2000)
	return zhd, zwd, ah, aw, nil
}

// MappingFunction evaluates the hydrostatic and wet VMF3 continued
// fractions at the given elevation [rad]. ah and aw are the grid "a"
// coefficients; b and c come from the empirical expansion.
func (m *TropoModel) MappingFunction(pt PosLLH, t GTime, elev, ah, aw float64) (mfh, mfw float64) {
	bh, bw, ch, cw := m.coeffs.evaluate(pt.Lat, pt.Lon, fractionalDOY(t))
	sinE := math.Sin(elev)
	return contFrac(sinE, ah, bh, ch), contFrac(sinE, aw, bw, cw)
}

// SlantDelay estimates the full tropospheric delay along the line of
// sight. Elevation angle in radians, at least TropoElevCutoff.
func (m *TropoModel) SlantDelay(g *VMF3Grid, pt PosLLH, t GTime, elev float64) (TropoDelay, error) {
	if elev < TropoElevCutoff || elev > PI/2 {
		return TropoDelay{}, &InvalidGeometryError{ElevDeg: ToDeg(elev), Reason: "elevation must be in [3, 90] deg"}
	}
	zhd, zwd, ah, aw, err := m.ZenithDelays(g, pt, t)
	if err != nil {
		return TropoDelay{}, err
	}
	mfh, mfw := m.MappingFunction(pt, t, elev, ah, aw)
	return TropoDelay{
		ZenithHydrostatic: zhd,
		ZenithWet:         zwd,
		SlantHydrostatic:  zhd * mfh,
		SlantWet:          zwd * mfw,
		MFHydrostatic:     mfh,
		MFWet:             mfw,
	}, nil
}

// Three-term continued fraction with unit numerator normalization
func contFrac(sinE, a, b, c float64) float64 {
	top := 1 + a/(1+b/(1+c))
	bot := sinE + a/(sinE+b/(sinE+c))
	return top / bot
}

// Saastamoinen inversion: move the zenith hydrostatic delay from the grid
// station height hg to the target height h through the surface pressure.
// The grid pressure is shifted by the barometric pressure difference
// between the two heights.
func correctZhdHeight(zhd, latRad, hg, h float64) float64 {
	if hg == h {
		return zhd
	}
	c := saastamoinenCnts
	cos2 := math.Cos(2 * latRad)
	pGrid := zhd * (1 - c[1]*cos2 - c[2]*hg) / c[0]
	p := pGrid + barometricPressure(h) - barometricPressure(hg)
	return c[0] * p / (1 - c[1]*cos2 - c[2]*h)
}

// Fractional day of year
func fractionalDOY(t GTime) float64 {
	ut := t.ToTime().UTC()
	sec := float64(ut.Hour()*3600+ut.Minute()*60+ut.Second()) + float64(ut.Nanosecond())/1e9
	return float64(ut.YearDay()) + sec/SecondsInDay
}
