// Copyright (c) 2026 Aresys S.r.l. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.8.26
//

package perturb

import (
	"math"
	"testing"
	"time"
)

func TestGTimeRoundTrip(t *testing.T) {
	ref := time.Date(2023, 10, 26, 15, 12, 3, 250000000, time.UTC)
	gt := NewGTime(ref)
	back := gt.ToTime().UTC()
	if d := back.Sub(ref); math.Abs(d.Seconds()) > 1e-6 {
		t.Errorf("round trip drift = %v, want < 1us", d)
	}
}

func TestGTimeSub(t *testing.T) {
	a := NewGTime(time.Date(2023, 10, 26, 0, 0, 0, 0, time.UTC))
	b := a.AddSec(3600 * 24 * 8) // crosses a week boundary
	if got := b.Sub(*a); math.Abs(got-3600*24*8) > 1e-9 {
		t.Errorf("Sub = %f s, want %f s", got, 3600.0*24*8)
	}
	if got := a.Sub(b); math.Abs(got+3600*24*8) > 1e-9 {
		t.Errorf("reverse Sub = %f s, want %f s", got, -3600.0*24*8)
	}
}

func TestGTimeDayOfYear(t *testing.T) {
	gt := NewGTime(time.Date(2018, 10, 26, 12, 0, 0, 0, time.UTC))
	if got := gt.DayOfYear(); got != 299 {
		t.Errorf("DayOfYear = %d, want 299", got)
	}
	if got := gt.Year(); got != 2018 {
		t.Errorf("Year = %d, want 2018", got)
	}
}

func TestFormatEraBoundary(t *testing.T) {
	// GPS week 2238 starts on 2022/11/27 00:00:00 UTC
	boundary := time.Date(2022, 11, 27, 0, 0, 0, 0, time.UTC)

	gt := NewGTime(boundary)
	if gt.Week != EraBoundaryWeek || gt.Sec != 0 {
		t.Fatalf("boundary epoch = week %d sec %f, want week %d sec 0", gt.Week, gt.Sec, EraBoundaryWeek)
	}

	before := NewGTime(boundary.Add(-time.Second))
	if got := FormatEraOf(*before); got != EraLegacy {
		t.Errorf("era one second before the boundary = %v, want %v", got, EraLegacy)
	}
	if got := FormatEraOf(*gt); got != EraLongName {
		t.Errorf("era at the boundary = %v, want %v", got, EraLongName)
	}
	after := NewGTime(boundary.Add(time.Second))
	if got := FormatEraOf(*after); got != EraLongName {
		t.Errorf("era one second after the boundary = %v, want %v", got, EraLongName)
	}
}

func TestGTimeLess(t *testing.T) {
	a := NewGTime(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC))
	b := a.AddSec(0.001)
	if !a.Less(b) || b.Less(*a) {
		t.Errorf("ordering broken for epochs 1ms apart")
	}
	if !a.LessOrEqual(*a) {
		t.Errorf("LessOrEqual must hold for equal epochs")
	}
}
