// Copyright (c) 2026 Aresys S.r.l. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.8.27
//

package perturb

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"gonum.org/v1/gonum/mat"
)

// 2x2 VMF3 test grid around (45, 10) with constant planes
func testVMF3Grid(epochs []GTime, zhd, zwd, ah, aw float64) *VMF3Grid {
	g := &VMF3Grid{
		Resolution: ResolutionFine,
		Epochs:     epochs,
		LatAxis:    []float64{44.5, 45.5},
		LonAxis:    []float64{9.5, 10.5},
	}
	for range epochs {
		g.Ah = append(g.Ah, mat.NewDense(2, 2, []float64{ah, ah, ah, ah}))
		g.Aw = append(g.Aw, mat.NewDense(2, 2, []float64{aw, aw, aw, aw}))
		g.Zhd = append(g.Zhd, mat.NewDense(2, 2, []float64{zhd, zhd, zhd, zhd}))
		g.Zwd = append(g.Zwd, mat.NewDense(2, 2, []float64{zwd, zwd, zwd, zwd}))
	}
	return g
}

// Resources with zero b/c tables and a flat station grid at the given height
func flatResources(stationHeight float64) mapResourceProvider {
	res := zeroCoeffResources()
	grid := ""
	for _, row := range []struct{ lat, lon float64 }{
		{45.5, 9.5}, {45.5, 10.5}, {44.5, 9.5}, {44.5, 10.5},
	} {
		grid += formatStationRow(row.lat, row.lon, stationHeight)
	}
	res[ResGridStationsFine] = "% test station grid\n" + grid
	res[ResGridStationsCoarse] = "% test station grid\n" + grid
	return res
}

func formatStationRow(lat, lon, hei float64) string {
	return fmt.Sprintf("  1  %6.1f %6.1f %8.2f %8.2f\n", lat, lon, hei, hei)
}

func testEpochs() []GTime {
	t0 := *NewGTime(time.Date(2023, 10, 26, 12, 0, 0, 0, time.UTC))
	return []GTime{t0, t0.AddSec(6 * 3600)}
}

func TestZenithDelaysPassthrough(t *testing.T) {
	pt := PosLLH{Lat: ToRad(45), Lon: ToRad(10), Hei: 200}
	model, err := NewTropoModel(flatResources(pt.Hei), ResolutionFine)
	if err != nil {
		t.Fatalf("NewTropoModel failed: %v", err)
	}

	epochs := testEpochs()
	g := testVMF3Grid(epochs, 2.3, 0.15, 0.00127, 0.00058)

	// station height equals the point height: the grid delays pass through
	zhd, zwd, ah, aw, err := model.ZenithDelays(g, pt, epochs[0])
	if err != nil {
		t.Fatalf("ZenithDelays failed: %v", err)
	}
	if math.Abs(zhd-2.3) > 1e-12 || math.Abs(zwd-0.15) > 1e-12 {
		t.Errorf("zenith delays = (%v, %v), want (2.3, 0.15)", zhd, zwd)
	}
	if math.Abs(ah-0.00127) > 1e-12 || math.Abs(aw-0.00058) > 1e-12 {
		t.Errorf("a coefficients = (%v, %v), want (0.00127, 0.00058)", ah, aw)
	}
}

func TestZenithDelaysTemporalInterpolation(t *testing.T) {
	pt := PosLLH{Lat: ToRad(45), Lon: ToRad(10), Hei: 0}
	model, err := NewTropoModel(flatResources(0), ResolutionFine)
	if err != nil {
		t.Fatalf("NewTropoModel failed: %v", err)
	}

	epochs := testEpochs()
	g := testVMF3Grid(epochs, 2.0, 0.1, 0.001, 0.0005)
	// second epoch carries different values
	g.Zhd[1] = mat.NewDense(2, 2, []float64{3.0, 3.0, 3.0, 3.0})
	g.Zwd[1] = mat.NewDense(2, 2, []float64{0.2, 0.2, 0.2, 0.2})

	mid := epochs[0].AddSec(3 * 3600)
	zhd, zwd, _, _, err := model.ZenithDelays(g, pt, mid)
	if err != nil {
		t.Fatalf("ZenithDelays failed: %v", err)
	}
	if math.Abs(zhd-2.5) > 1e-9 {
		t.Errorf("midpoint zhd = %v, want 2.5", zhd)
	}
	if math.Abs(zwd-0.15) > 1e-9 {
		t.Errorf("midpoint zwd = %v, want 0.15", zwd)
	}
}

func TestZenithDelaysHeightCorrection(t *testing.T) {
	// grid stations at sea level, target 2000 m above
	model, err := NewTropoModel(flatResources(0), ResolutionFine)
	if err != nil {
		t.Fatalf("NewTropoModel failed: %v", err)
	}

	epochs := testEpochs()
	g := testVMF3Grid(epochs, 2.3, 0.15, 0.00127, 0.00058)
	pt := PosLLH{Lat: ToRad(45), Lon: ToRad(10), Hei: 2000}

	zhd, zwd, _, _, err := model.ZenithDelays(g, pt, epochs[0])
	if err != nil {
		t.Fatalf("ZenithDelays failed: %v", err)
	}

	// wet delay decays exponentially with a 2 km scale height
	if want := 0.15 * math.Exp(-1); math.Abs(zwd-want) > 1e-12 {
		t.Errorf("lifted zwd = %v, want %v", zwd, want)
	}
	// hydrostatic delay follows the barometric pressure difference:
	// p = 2.3/0.0022768 + P(2000) - P(0), zhd = 0.0022768*p/(1 - 0.28e-6*2000)
	// (the cos(2*lat) term vanishes at 45 deg)
	if want := 1.803997089182628; math.Abs(zhd-want) > 1e-9 {
		t.Errorf("lifted zhd = %v, want %v", zhd, want)
	}
}

func TestMappingFunctionZenith(t *testing.T) {
	model, err := NewTropoModel(flatResources(0), ResolutionFine)
	if err != nil {
		t.Fatalf("NewTropoModel failed: %v", err)
	}
	pt := PosLLH{Lat: ToRad(45), Lon: ToRad(10), Hei: 0}

	// with zero b/c tables the continued fraction is (1+a)/(sin e + a/sin e)
	// which is exactly one at the zenith
	mfh, mfw := model.MappingFunction(pt, testEpochs()[0], PI/2, 0.00127, 0.00058)
	if math.Abs(mfh-1) > 1e-12 || math.Abs(mfw-1) > 1e-12 {
		t.Errorf("zenith mapping functions = (%v, %v), want (1, 1)", mfh, mfw)
	}

	// increasing toward the horizon
	prevH, prevW := mfh, mfw
	for _, e := range []float64{60, 30, 10, 5} {
		mfh, mfw = model.MappingFunction(pt, testEpochs()[0], ToRad(e), 0.00127, 0.00058)
		if mfh <= prevH || mfw <= prevW {
			t.Fatalf("mapping function not increasing toward the horizon at %v deg", e)
		}
		prevH, prevW = mfh, mfw
	}
}

func TestSlantDelayZenithEqualsZenithDelays(t *testing.T) {
	pt := PosLLH{Lat: ToRad(45), Lon: ToRad(10), Hei: 0}
	model, err := NewTropoModel(flatResources(0), ResolutionFine)
	if err != nil {
		t.Fatalf("NewTropoModel failed: %v", err)
	}

	epochs := testEpochs()
	g := testVMF3Grid(epochs, 2.3, 0.15, 0.00127, 0.00058)

	d, err := model.SlantDelay(g, pt, epochs[0], PI/2)
	if err != nil {
		t.Fatalf("SlantDelay failed: %v", err)
	}
	if math.Abs(d.SlantHydrostatic-d.ZenithHydrostatic) > 1e-12 || math.Abs(d.SlantWet-d.ZenithWet) > 1e-12 {
		t.Errorf("slant delay at the zenith = (%v, %v), want the zenith delays (%v, %v)",
			d.SlantHydrostatic, d.SlantWet, d.ZenithHydrostatic, d.ZenithWet)
	}
	if math.Abs(d.Total()-(2.3+0.15)) > 1e-12 {
		t.Errorf("total = %v, want %v", d.Total(), 2.3+0.15)
	}
}

func TestSlantDelayElevationCutoff(t *testing.T) {
	pt := PosLLH{Lat: ToRad(45), Lon: ToRad(10), Hei: 0}
	model, err := NewTropoModel(flatResources(0), ResolutionFine)
	if err != nil {
		t.Fatalf("NewTropoModel failed: %v", err)
	}
	epochs := testEpochs()
	g := testVMF3Grid(epochs, 2.3, 0.15, 0.00127, 0.00058)

	for _, elevDeg := range []float64{2.9, 0, -5, 91} {
		_, err := model.SlantDelay(g, pt, epochs[0], ToRad(elevDeg))
		var geomErr *InvalidGeometryError
		if !errors.As(err, &geomErr) {
			t.Errorf("elevation %v deg: expected InvalidGeometryError, got %v", elevDeg, err)
		}
	}

	// the cutoff itself is accepted
	if _, err := model.SlantDelay(g, pt, epochs[0], TropoElevCutoff); err != nil {
		t.Errorf("elevation at the cutoff failed: %v", err)
	}
}

func TestZenithDelaysCoverage(t *testing.T) {
	pt := PosLLH{Lat: ToRad(45), Lon: ToRad(10), Hei: 0}
	model, err := NewTropoModel(flatResources(0), ResolutionFine)
	if err != nil {
		t.Fatalf("NewTropoModel failed: %v", err)
	}
	epochs := testEpochs()
	g := testVMF3Grid(epochs, 2.3, 0.15, 0.00127, 0.00058)

	late := epochs[1].AddSec(1)
	_, _, _, _, err = model.ZenithDelays(g, pt, late)
	var covErr *TemporalCoverageError
	if !errors.As(err, &covErr) {
		t.Fatalf("expected TemporalCoverageError, got %v", err)
	}

	// a point outside the grid without the clamp policy
	outside := PosLLH{Lat: ToRad(47), Lon: ToRad(10), Hei: 0}
	_, _, _, _, err = model.ZenithDelays(g, outside, epochs[0])
	var spErr *SpatialCoverageError
	if !errors.As(err, &spErr) {
		t.Fatalf("expected SpatialCoverageError, got %v", err)
	}

	model.ClampToGrid = true
	if _, _, _, _, err = model.ZenithDelays(g, outside, epochs[0]); err != nil {
		t.Errorf("clamped ZenithDelays failed: %v", err)
	}
}
