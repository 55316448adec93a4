// Copyright (c) 2026 Aresys S.r.l. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.8.27
//

package perturb

import (
	"math"

	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/mat"
)

// Ionospheric delay estimator (first order approximation) from CDDIS
// IONEX TEC map data.
//
// The ionosphere is a dispersive medium: the propagation delay depends on
// the electron density along the path and on the carrier frequency,
//
//	dL = 40.3e16 / fc^2 * MF(z) * vTEC
//
// The layered ionosphere is condensed into a single thin shell at the
// height of maximum electron concentration, read from the map metadata.

type IonoModel struct {
	FreqHz      float64 // Carrier frequency of the signal [Hz]
	ScaleFactor float64 // Scaling applied to the resulting delay
	ClampToGrid bool    // Clamp out-of-grid points to the boundary node instead of failing
}

func NewIonoModel(freqHz float64) *IonoModel {
	return &IonoModel{
		FreqHz:      freqHz,
		ScaleFactor: 1.0,
	}
}

// VerticalTEC interpolates the vertical total electron content at the
// point: bilinear over the four bracketing grid nodes, then linear in time
// between the two maps bracketing the epoch. Longitudes are compensated
// for Earth rotation over the map/epoch time offset.
func (m *IonoModel) VerticalTEC(tm *TECMap, pt PosLLH, t GTime) (float64, error) {
	return m.verticalTEC(tm, ToDeg(pt.Lat), ToDeg(pt.Lon), t)
}

func (m *IonoModel) verticalTEC(tm *TECMap, latDeg, lonDeg float64, t GTime) (float64, error) {
	switch tm.Era {
	case EraLegacy, EraLongName:
	default:
		return 0, &FormatVersionError{Era: tm.Era}
	}

	start, end := tm.Coverage()
	if t.Less(start) || end.Less(t) {
		return 0, &TemporalCoverageError{Epoch: t, Start: start, End: end}
	}
	if len(tm.Epochs) == 1 {
		// degenerate single-map file, epoch matches exactly
		return m.interpTEC(tm, tm.Maps[0], latDeg, lonDeg)
	}

	// bracketing maps
	k := len(tm.Epochs) - 2
	for i := 1; i < len(tm.Epochs); i++ {
		if t.Less(tm.Epochs[i]) {
			k = i - 1
			break
		}
	}
	t1, t2 := tm.Epochs[k], tm.Epochs[k+1]
	dt1 := t.Sub(t1)
	dt2 := t2.Sub(t)
	span := t2.Sub(t1)

	// compensating longitude for Earth rotation between the acquisition
	// epoch and each map epoch
	v1, err := m.interpTEC(tm, tm.Maps[k], latDeg, lonDeg-360.0/24.0*dt1/3600)
	if err != nil {
		return 0, err
	}
	v2, err := m.interpTEC(tm, tm.Maps[k+1], latDeg, lonDeg+360.0/24.0*dt2/3600)
	if err != nil {
		return 0, err
	}
	return (dt2*v1 + dt1*v2) / span, nil
}

func (m *IonoModel) interpTEC(tm *TECMap, grid *mat.Dense, latDeg, lonDeg float64) (float64, error) {
	lonDeg = wrapLon(tm.LonAxis, lonDeg)
	v, ok := bilinear(grid, tm.LatAxis, tm.LonAxis, latDeg, lonDeg, m.ClampToGrid)
	if !ok {
		return 0, &SpatialCoverageError{
			LatDeg: latDeg, LonDeg: lonDeg,
			LatMin: tm.LatAxis[0], LatMax: tm.LatAxis[len(tm.LatAxis)-1],
			LonMin: tm.LonAxis[0], LonMax: tm.LonAxis[len(tm.LonAxis)-1],
		}
	}
	return v, nil
}

// VerticalDelay converts the interpolated vertical TEC into a path delay
// in meters.
func (m *IonoModel) VerticalDelay(tm *TECMap, pt PosLLH, t GTime) (float64, error) {
	vtec, err := m.VerticalTEC(tm, pt, t)
	if err != nil {
		return 0, err
	}
	return TECDelayFactor / SQ(m.FreqHz) * vtec * m.ScaleFactor, nil
}

// SlantDelay maps the vertical delay into the line of sight through the
// thin-shell mapping function, parameterized by the map's own base radius
// and shell height. Returns the slant delay and the mapping function value
// used. Elevation angle in radians.
func (m *IonoModel) SlantDelay(tm *TECMap, pt PosLLH, t GTime, elev float64) (delay, mf float64, err error) {
	if elev <= 0 || elev > PI/2 {
		return 0, 0, &InvalidGeometryError{ElevDeg: ToDeg(elev), Reason: "elevation must be in (0, 90] deg"}
	}
	vertical, err := m.VerticalDelay(tm, pt, t)
	if err != nil {
		return 0, 0, err
	}
	mf = thinShellMF(elev, tm.BaseRadius, tm.ShellHeight)
	return vertical * mf, mf, nil
}

// SlantDelayIPP is the pierce-point variant of SlantDelay: the TEC is
// interpolated at the ionospheric pierce point of the line of sight
// instead of the ground point, which requires the look azimuth (radians,
// clockwise from north).
func (m *IonoModel) SlantDelayIPP(tm *TECMap, pt PosLLH, t GTime, elev, az float64) (delay, mf float64, err error) {
	if elev <= 0 || elev > PI/2 {
		return 0, 0, &InvalidGeometryError{ElevDeg: ToDeg(elev), Reason: "elevation must be in (0, 90] deg"}
	}
	ipp := PiercePoint(pt, elev, az, tm.BaseRadius, tm.ShellHeight)
	vtec, err := m.verticalTEC(tm, ToDeg(ipp.Lat), ToDeg(ipp.Lon), t)
	if err != nil {
		return 0, 0, err
	}
	mf = thinShellMF(elev, tm.BaseRadius, tm.ShellHeight)
	delay = TECDelayFactor / SQ(m.FreqHz) * vtec * m.ScaleFactor * mf
	return delay, mf, nil
}

// Thin-shell (single layer) mapping function: secant of the zenith angle
// at the shell crossing.
func thinShellMF(elev, earthRadius, shellHeight float64) float64 {
	s := earthRadius / (earthRadius + shellHeight) * math.Cos(elev)
	return 1 / math.Sqrt(1-SQ(s))
}

// PiercePoint returns the geodetic coordinates of the intersection between
// the line of sight and the ionospheric shell (single-layer model,
// spherical Earth).
func PiercePoint(pt PosLLH, elev, az, earthRadius, shellHeight float64) PosLLH {
	// Earth central angle between ground point and pierce point
	psi := PI/2 - elev - math.Asin(earthRadius/(earthRadius+shellHeight)*math.Cos(elev))

	lat := math.Asin(math.Sin(pt.Lat)*math.Cos(psi) + math.Cos(pt.Lat)*math.Sin(psi)*math.Cos(az))
	lon := pt.Lon + math.Asin(math.Sin(psi)*math.Sin(az)/math.Cos(lat))
	return PosLLH{Lat: lat, Lon: lon, Hei: shellHeight}
}

//-------------------------------------------------------------------
// Grid interpolation
//-------------------------------------------------------------------

// Bilinear interpolation on a regular grid. Rows of g follow latAxis,
// columns follow lonAxis (both ascending). On a full-circle longitude
// axis the seam between the last node and the first node + 360 is a
// valid cell. With clamp set, out-of-grid coordinates are clamped to
// the boundary node.
func bilinear(g *mat.Dense, latAxis, lonAxis []float64, lat, lon float64, clamp bool) (float64, bool) {
	i, u, ok := axisLocate(latAxis, lat, clamp)
	if !ok {
		return 0, false
	}
	j, jn, v, ok := lonLocate(lonAxis, lon, clamp)
	if !ok {
		return 0, false
	}
	return (1-u)*(1-v)*g.At(i, j) +
		(1-u)*v*g.At(i, jn) +
		u*(1-v)*g.At(i+1, j) +
		u*v*g.At(i+1, jn), true
}

// lonLocate brackets a longitude, wrapping the cell across the seam of
// a full-circle axis. Returns both column indices.
func lonLocate(axis []float64, lon float64, clamp bool) (j, jn int, v float64, ok bool) {
	n := len(axis)
	if max := axis[n-1]; fullCircle(axis) && lon > max && lon < axis[0]+360 {
		return n - 1, 0, (lon - max) / (axis[0] + 360 - max), true
	}
	j, v, ok = axisLocate(axis, lon, clamp)
	if !ok {
		return 0, 0, 0, false
	}
	return j, j + 1, v, true
}

// axisLocate returns the lower bracketing index and the fractional weight
// of value x on an ascending axis.
func axisLocate(axis []float64, x float64, clamp bool) (int, float64, bool) {
	n := len(axis)
	idx, found := slices.BinarySearch(axis, x)
	switch {
	case found:
		if idx == n-1 {
			return n - 2, 1, true
		}
		return idx, 0, true
	case idx == 0:
		if clamp {
			return 0, 0, true
		}
		return 0, 0, false
	case idx == n:
		if clamp {
			return n - 2, 1, true
		}
		return 0, 0, false
	default:
		i := idx - 1
		return i, (x - axis[i]) / (axis[i+1] - axis[i]), true
	}
}

// Wrap a longitude into [min, min+360) when the grid covers the full
// circle; regional grids are left untouched.
func wrapLon(axis []float64, lon float64) float64 {
	if !fullCircle(axis) {
		return lon
	}
	for lon >= axis[0]+360 {
		lon -= 360
	}
	for lon < axis[0] {
		lon += 360
	}
	return lon
}

// A longitude axis covers the full circle when one more step closes it.
func fullCircle(axis []float64) bool {
	span := axis[len(axis)-1] - axis[0]
	step := axis[1] - axis[0]
	return span+step >= 360-1e-9
}
