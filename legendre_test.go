// Copyright (c) 2026 Aresys S.r.l. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.8.26
//

package perturb

import (
	"fmt"
	"math"
	"strings"
	"testing"
)

// In-memory resource provider for tests
type mapResourceProvider map[string]string

func (p mapResourceProvider) ReadResource(id string) ([]byte, error) {
	s, ok := p[id]
	if !ok {
		return nil, &ConfigurationError{Resource: id, Reason: "not bundled"}
	}
	return []byte(s), nil
}

// Coefficient table with every row equal to the given five values
func coeffTable(a0, a1, b1, a2, b2 float64) string {
	var b strings.Builder
	for i := 0; i < legendreRows; i++ {
		fmt.Fprintf(&b, "%g %g %g %g %g\n", a0, a1, b1, a2, b2)
	}
	return b.String()
}

func zeroCoeffResources() mapResourceProvider {
	zero := coeffTable(0, 0, 0, 0, 0)
	return mapResourceProvider{
		ResLegendreAnmBh: zero,
		ResLegendreAnmBw: zero,
		ResLegendreAnmCh: zero,
		ResLegendreAnmCw: zero,
		ResLegendreBnmBh: zero,
		ResLegendreBnmBw: zero,
		ResLegendreBnmCh: zero,
		ResLegendreBnmCw: zero,
	}
}

func TestVWLegendreAtPole(t *testing.T) {
	V, W := vwLegendre(PI/2, 0, legendreDegree)

	// at the pole the zonal functions are all one, everything else vanishes
	for n := 0; n <= legendreDegree; n++ {
		if math.Abs(V.At(n, 0)-1) > 1e-12 {
			t.Errorf("V(%d, 0) at the pole = %v, want 1", n, V.At(n, 0))
		}
		for m := 1; m <= n; m++ {
			if math.Abs(V.At(n, m)) > 1e-12 || math.Abs(W.At(n, m)) > 1e-12 {
				t.Errorf("V/W(%d, %d) at the pole = %v, %v, want 0", n, m, V.At(n, m), W.At(n, m))
			}
		}
	}
}

func TestVWLegendreLowDegrees(t *testing.T) {
	lat, lon := ToRad(37.5), ToRad(-12.25)
	V, W := vwLegendre(lat, lon, legendreDegree)

	z := math.Sin(lat)
	if math.Abs(V.At(1, 0)-z) > 1e-14 {
		t.Errorf("V(1, 0) = %v, want sin(lat) = %v", V.At(1, 0), z)
	}
	if want := (3*z*z - 1) / 2; math.Abs(V.At(2, 0)-want) > 1e-14 {
		t.Errorf("V(2, 0) = %v, want %v", V.At(2, 0), want)
	}
	if want := math.Cos(lat) * math.Sin(lon); math.Abs(W.At(1, 1)-want) > 1e-14 {
		t.Errorf("W(1, 1) = %v, want cos(lat)sin(lon) = %v", W.At(1, 1), want)
	}
	if want := math.Cos(lat) * math.Cos(lon); math.Abs(V.At(1, 1)-want) > 1e-14 {
		t.Errorf("V(1, 1) = %v, want cos(lat)cos(lon) = %v", V.At(1, 1), want)
	}
}

func TestLoadVMF3Coeffs(t *testing.T) {
	c, err := loadVMF3Coeffs(zeroCoeffResources())
	if err != nil {
		t.Fatalf("loadVMF3Coeffs failed: %v", err)
	}
	bh, bw, ch, cw := c.evaluate(ToRad(45), ToRad(9), 120)
	if bh != 0 || bw != 0 || ch != 0 || cw != 0 {
		t.Errorf("zero tables gave (%v, %v, %v, %v), want zeros", bh, bw, ch, cw)
	}

	incomplete := zeroCoeffResources()
	delete(incomplete, ResLegendreBnmCw)
	if _, err := loadVMF3Coeffs(incomplete); err == nil {
		t.Errorf("expected an error for a missing coefficient table")
	}
}

func TestEvaluateSeasonalMean(t *testing.T) {
	// only the constant term of the hydrostatic b tables is set: the
	// result is independent of the day of year and, with every row set,
	// sums the full V+W expansion at the location
	res := zeroCoeffResources()
	res[ResLegendreAnmBh] = coeffTable(0.00123, 0, 0, 0, 0)
	c, err := loadVMF3Coeffs(res)
	if err != nil {
		t.Fatalf("loadVMF3Coeffs failed: %v", err)
	}

	bh1, bw1, _, _ := c.evaluate(ToRad(45), ToRad(9), 1)
	bh2, _, _, _ := c.evaluate(ToRad(45), ToRad(9), 200)
	if math.Abs(bh1-bh2) > 1e-15 {
		t.Errorf("mean-only expansion varies with doy: %v vs %v", bh1, bh2)
	}
	if bw1 != 0 {
		t.Errorf("wet coefficient = %v, want 0", bw1)
	}

	V, _ := vwLegendre(ToRad(45), ToRad(9), legendreDegree)
	want := 0.0
	for n := 0; n <= legendreDegree; n++ {
		for m := 0; m <= n; m++ {
			want += 0.00123 * V.At(n, m)
		}
	}
	if math.Abs(bh1-want) > 1e-12 {
		t.Errorf("expansion = %v, want %v", bh1, want)
	}
}

func TestEvaluateSeasonalPhase(t *testing.T) {
	// annual cosine only: extremes a quarter period apart
	res := zeroCoeffResources()
	res[ResLegendreAnmBh] = coeffTable(0, 0.001, 0, 0, 0)
	c, err := loadVMF3Coeffs(res)
	if err != nil {
		t.Fatalf("loadVMF3Coeffs failed: %v", err)
	}

	atDoy := func(doy float64) float64 {
		bh, _, _, _ := c.evaluate(ToRad(45), ToRad(9), doy)
		return bh
	}
	if math.Abs(atDoy(0)+atDoy(DaysInYear/2)) > 1e-12 {
		t.Errorf("annual term not antisymmetric over half a year: %v vs %v", atDoy(0), atDoy(DaysInYear/2))
	}
	// the unnormalized expansion amplifies rounding in cos(pi/2)
	if math.Abs(atDoy(DaysInYear/4)) > 1e-6 {
		t.Errorf("annual cosine at a quarter year = %v, want 0", atDoy(DaysInYear/4))
	}
}

func TestParseCoeffTableRowCount(t *testing.T) {
	if _, err := parseCoeffTable("anm_bh", []byte("1 2 3 4 5\n")); err == nil {
		t.Errorf("expected an error for too few rows")
	}
	long := coeffTable(0, 0, 0, 0, 0) + "0 0 0 0 0\n"
	if _, err := parseCoeffTable("anm_bh", []byte(long)); err == nil {
		t.Errorf("expected an error for too many rows")
	}
	if _, err := parseCoeffTable("anm_bh", []byte(strings.Repeat("1 2 3\n", legendreRows))); err == nil {
		t.Errorf("expected an error for wrong column count")
	}
}
