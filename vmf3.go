// Copyright (c) 2026 Aresys S.r.l. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.8.26
//

package perturb

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/mat"
)

// VMF3 OP GRID troposphere products
// https://vmf.geo.tuwien.ac.at/trop_products/
//

type GridResolution int

const (
	ResolutionFine   GridResolution = iota // 1x1 deg station grid
	ResolutionCoarse                       // 5x5 deg station grid
)

func (r GridResolution) String() string {
	switch r {
	case ResolutionFine:
		return "1x1"
	case ResolutionCoarse:
		return "5x5"
	default:
		return "UNKNOWN!"
	}
}

func (r GridResolution) resourceID() string {
	switch r {
	case ResolutionFine:
		return ResGridStationsFine
	case ResolutionCoarse:
		return ResGridStationsCoarse
	default:
		return ""
	}
}

// VMF3Grid is an immutable set of VMF3 coefficient grids, one per file
// epoch. Rows follow LatAxis, columns LonAxis (both ascending, longitudes
// shifted into [-180, 180]).
type VMF3Grid struct {
	Resolution GridResolution
	Epochs     []GTime
	Ah         []*mat.Dense // hydrostatic "a" coefficient
	Aw         []*mat.Dense // wet "a" coefficient
	Zhd        []*mat.Dense // zenith hydrostatic delay [m]
	Zwd        []*mat.Dense // zenith wet delay [m]
	LatAxis    []float64    // [deg]
	LonAxis    []float64    // [deg]
}

// Coverage returns the temporal validity window of the grid set.
func (g *VMF3Grid) Coverage() (start, end GTime) {
	return g.Epochs[0], g.Epochs[len(g.Epochs)-1]
}

// TroposphericMapFilenames selects the four VMF3 GRID files needed around
// the acquisition time. Files are recorded every 6 hours (H00, H06, H12,
// H18); the selection is the file closest below the acquisition time, the
// one before it and the two after it.
func TroposphericMapFilenames(t GTime) ([]string, []GTime) {
	ut := t.ToTime().UTC()
	base := time.Date(ut.Year(), ut.Month(), ut.Day(), ut.Hour()/6*6, 0, 0, 0, time.UTC)

	names := make([]string, 0, 4)
	epochs := make([]GTime, 0, 4)
	for _, off := range []time.Duration{-6 * time.Hour, 0, 6 * time.Hour, 12 * time.Hour} {
		e := base.Add(off)
		names = append(names, fmt.Sprintf("VMF3_%s.H%02d", e.Format("20060102"), e.Hour()))
		epochs = append(epochs, *NewGTime(e))
	}
	return names, epochs
}

// ParseVMF3Files decodes a set of VMF3 OP GRID files into one grid, in
// ascending epoch order. Header lines start with "!"; data rows hold
// lat, lon, ah, aw, zhd, zwd.
func ParseVMF3Files(files [][]byte, epochs []GTime, res GridResolution) (*VMF3Grid, error) {
	if len(files) == 0 || len(files) != len(epochs) {
		return nil, &ConfigurationError{Resource: "VMF3 grid", Reason: "file and epoch lists must be non-empty and of equal length"}
	}
	for i := 1; i < len(epochs); i++ {
		if !epochs[i-1].Less(epochs[i]) {
			return nil, &ConfigurationError{Resource: "VMF3 grid", Reason: "epochs must be strictly ascending"}
		}
	}

	g := &VMF3Grid{Resolution: res, Epochs: epochs}
	for fi, content := range files {
		lats, lons, values, err := parseVMF3Rows(content, 6)
		if err != nil {
			return nil, err
		}
		if fi == 0 {
			g.LatAxis, g.LonAxis = buildAxes(lats, lons)
			if len(g.LatAxis) < 2 || len(g.LonAxis) < 2 {
				return nil, &ConfigurationError{Resource: "VMF3 grid", Reason: "degenerate station grid"}
			}
		}
		planes, err := fillPlanes(g.LatAxis, g.LonAxis, lats, lons, values)
		if err != nil {
			return nil, err
		}
		g.Ah = append(g.Ah, planes[0])
		g.Aw = append(g.Aw, planes[1])
		g.Zhd = append(g.Zhd, planes[2])
		g.Zwd = append(g.Zwd, planes[3])
	}
	return g, nil
}

// StationGrid carries the ellipsoidal heights of the VMF3 grid points,
// used to refer the zenith delays to the target height.
type StationGrid struct {
	LatAxis []float64 // [deg]
	LonAxis []float64 // [deg]
	Height  *mat.Dense
}

// ParseStationGrid decodes a grid point station coordinates file
// (columns: point id, lat, lon, ellipsoidal height, orthometric height;
// comment lines start with "%").
func ParseStationGrid(content []byte) (*StationGrid, error) {
	lats, lons, values, err := parseStationRows(content)
	if err != nil {
		return nil, err
	}
	latAxis, lonAxis := buildAxes(lats, lons)
	if len(latAxis) < 2 || len(lonAxis) < 2 {
		return nil, &ConfigurationError{Resource: "station grid", Reason: "degenerate station grid"}
	}
	planes, err := fillPlanes(latAxis, lonAxis, lats, lons, values)
	if err != nil {
		return nil, err
	}
	return &StationGrid{LatAxis: latAxis, LonAxis: lonAxis, Height: planes[0]}, nil
}

// Rows of a VMF3 grid file: lat lon + (cols-2) values
func parseVMF3Rows(content []byte, cols int) (lats, lons []float64, values [][]float64, err error) {
	values = make([][]float64, cols-2)
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "!") {
			continue
		}
		f := strings.Fields(line)
		if len(f) != cols {
			return nil, nil, nil, &ConfigurationError{Resource: "VMF3 grid", Reason: fmt.Sprintf("expected %d columns, got %d", cols, len(f))}
		}
		row := make([]float64, cols)
		for i, s := range f {
			row[i], err = strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, nil, nil, &ConfigurationError{Resource: "VMF3 grid", Reason: fmt.Sprintf("bad value %q", s)}
			}
		}
		lats = append(lats, row[0])
		lons = append(lons, shiftLon(row[1]))
		for i := 0; i < cols-2; i++ {
			values[i] = append(values[i], row[2+i])
		}
	}
	if len(lats) == 0 {
		return nil, nil, nil, &ConfigurationError{Resource: "VMF3 grid", Reason: "no data rows"}
	}
	return lats, lons, values, nil
}

// Rows of a station coordinates file: id lat lon h_ell h_ortho
func parseStationRows(content []byte) (lats, lons []float64, values [][]float64, err error) {
	values = make([][]float64, 1)
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "%") {
			continue
		}
		f := strings.Fields(line)
		if len(f) < 4 {
			return nil, nil, nil, &ConfigurationError{Resource: "station grid", Reason: fmt.Sprintf("expected at least 4 columns, got %d", len(f))}
		}
		var lat, lon, hei float64
		if lat, err = strconv.ParseFloat(f[1], 64); err != nil {
			return nil, nil, nil, &ConfigurationError{Resource: "station grid", Reason: fmt.Sprintf("bad latitude %q", f[1])}
		}
		if lon, err = strconv.ParseFloat(f[2], 64); err != nil {
			return nil, nil, nil, &ConfigurationError{Resource: "station grid", Reason: fmt.Sprintf("bad longitude %q", f[2])}
		}
		if hei, err = strconv.ParseFloat(f[3], 64); err != nil {
			return nil, nil, nil, &ConfigurationError{Resource: "station grid", Reason: fmt.Sprintf("bad height %q", f[3])}
		}
		lats = append(lats, lat)
		lons = append(lons, shiftLon(lon))
		values[0] = append(values[0], hei)
	}
	if len(lats) == 0 {
		return nil, nil, nil, &ConfigurationError{Resource: "station grid", Reason: "no data rows"}
	}
	return lats, lons, values, nil
}

// [0,360] -> [-180,180]
func shiftLon(lon float64) float64 {
	if lon > 180 {
		return lon - 360
	}
	return lon
}

// Ascending deduplicated axes from scattered regular-grid nodes
func buildAxes(lats, lons []float64) (latAxis, lonAxis []float64) {
	latAxis = slices.Clone(lats)
	slices.Sort(latAxis)
	latAxis = slices.Compact(latAxis)
	lonAxis = slices.Clone(lons)
	slices.Sort(lonAxis)
	lonAxis = slices.Compact(lonAxis)
	return latAxis, lonAxis
}

// Scattered rows -> dense planes, one per value column. Every grid cell
// must be covered exactly once.
func fillPlanes(latAxis, lonAxis []float64, lats, lons []float64, values [][]float64) ([]*mat.Dense, error) {
	nLat, nLon := len(latAxis), len(lonAxis)
	planes := make([]*mat.Dense, len(values))
	for i := range planes {
		planes[i] = mat.NewDense(nLat, nLon, nil)
	}
	seen := make([]bool, nLat*nLon)
	for k := range lats {
		i, iok := slices.BinarySearch(latAxis, lats[k])
		j, jok := slices.BinarySearch(lonAxis, lons[k])
		if !iok || !jok {
			return nil, &ConfigurationError{Resource: "grid", Reason: fmt.Sprintf("node (%.3f, %.3f) off the first file's grid", lats[k], lons[k])}
		}
		if seen[i*nLon+j] {
			return nil, &ConfigurationError{Resource: "grid", Reason: fmt.Sprintf("duplicate node (%.3f, %.3f)", lats[k], lons[k])}
		}
		seen[i*nLon+j] = true
		for c := range values {
			planes[c].Set(i, j, values[c][k])
		}
	}
	for _, s := range seen {
		if !s {
			return nil, &ConfigurationError{Resource: "grid", Reason: "incomplete grid: uncovered nodes"}
		}
	}
	return planes, nil
}
