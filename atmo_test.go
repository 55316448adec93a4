// Copyright (c) 2026 Aresys S.r.l. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.8.26
//

package perturb

import (
	"errors"
	"math"
	"testing"
	"time"
)

func testDelayEngine(t *testing.T) (*AtmosphericDelayEngine, *TECMap, *VMF3Grid, GTime) {
	t.Helper()

	start := time.Date(2023, 10, 26, 12, 0, 0, 0, time.UTC)
	tm := uniformTECMap([]float64{10, 10}, start, 6*3600)
	tm.Era = EraLongName

	epochs := []GTime{*NewGTime(start), NewGTime(start).AddSec(6 * 3600)}
	grid := testVMF3Grid(epochs, 2.3, 0.15, 0.00127, 0.00058)

	tropo, err := NewTropoModel(flatResources(0), ResolutionFine)
	if err != nil {
		t.Fatalf("NewTropoModel failed: %v", err)
	}
	engine := NewAtmosphericDelayEngine(NewIonoModel(5.405e9), tropo)
	return engine, tm, grid, epochs[0]
}

func TestTotalSlantDelaySum(t *testing.T) {
	engine, tm, grid, epoch := testDelayEngine(t)
	pt := PosLLH{Lat: ToRad(45), Lon: ToRad(10), Hei: 0}

	res, err := engine.TotalSlantDelay(tm, grid, pt, epoch, PI/2)
	if err != nil {
		t.Fatalf("TotalSlantDelay failed: %v", err)
	}

	// at the zenith both mapping functions are one
	if math.Abs(res.IonoMF-1) > 1e-12 {
		t.Errorf("iono mf = %v, want 1", res.IonoMF)
	}
	wantIono := TECDelayFactor / (5.405e9 * 5.405e9) * 10
	if math.Abs(res.Ionospheric-wantIono) > 1e-9 {
		t.Errorf("iono delay = %v, want %v", res.Ionospheric, wantIono)
	}
	if math.Abs(res.Tropospheric-(2.3+0.15)) > 1e-9 {
		t.Errorf("tropo delay = %v, want %v", res.Tropospheric, 2.3+0.15)
	}
	if math.Abs(res.Total()-(res.Ionospheric+res.Tropospheric)) > 1e-15 {
		t.Errorf("total = %v, want the sum of the components", res.Total())
	}
}

func TestTotalSlantDelayFailsWhole(t *testing.T) {
	engine, tm, grid, epoch := testDelayEngine(t)
	pt := PosLLH{Lat: ToRad(45), Lon: ToRad(10), Hei: 0}

	// 2.9 deg: fine for the ionosphere model, below the troposphere cutoff;
	// the combined computation must fail as a whole
	_, err := engine.TotalSlantDelay(tm, grid, pt, epoch, ToRad(2.9))
	var geomErr *InvalidGeometryError
	if !errors.As(err, &geomErr) {
		t.Fatalf("expected InvalidGeometryError, got %v", err)
	}

	// failing ionosphere epoch fails the whole result too
	late := epoch.AddSec(13 * 3600)
	_, err = engine.TotalSlantDelay(tm, grid, pt, late, PI/2)
	var covErr *TemporalCoverageError
	if !errors.As(err, &covErr) {
		t.Fatalf("expected TemporalCoverageError, got %v", err)
	}
}
