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
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Empirical b and c coefficients of the VMF3 continued fraction, expanded
// in spherical harmonics up to degree and order 12 with annual and
// semi-annual variation (Landskron & Boehm 2018).

const (
	legendreDegree = 12
	legendreRows   = (legendreDegree + 1) * (legendreDegree + 2) / 2
	legendreCols   = 5 // mean, annual cos/sin, semi-annual cos/sin
)

type vmf3Coeffs struct {
	anmBh, anmBw, anmCh, anmCw *mat.Dense
	bnmBh, bnmBw, bnmCh, bnmCw *mat.Dense
}

func loadVMF3Coeffs(p ResourceProvider) (*vmf3Coeffs, error) {
	c := &vmf3Coeffs{}
	for _, tb := range []struct {
		id   string
		dest **mat.Dense
	}{
		{ResLegendreAnmBh, &c.anmBh},
		{ResLegendreAnmBw, &c.anmBw},
		{ResLegendreAnmCh, &c.anmCh},
		{ResLegendreAnmCw, &c.anmCw},
		{ResLegendreBnmBh, &c.bnmBh},
		{ResLegendreBnmBw, &c.bnmBw},
		{ResLegendreBnmCh, &c.bnmCh},
		{ResLegendreBnmCw, &c.bnmCw},
	} {
		content, err := p.ReadResource(tb.id)
		if err != nil {
			return nil, err
		}
		m, err := parseCoeffTable(tb.id, content)
		if err != nil {
			return nil, err
		}
		*tb.dest = m
	}
	return c, nil
}

func parseCoeffTable(id string, content []byte) (*mat.Dense, error) {
	m := mat.NewDense(legendreRows, legendreCols, nil)
	row := 0
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "%") || strings.HasPrefix(line, "!") {
			continue
		}
		f := strings.Fields(line)
		if len(f) != legendreCols {
			return nil, &ConfigurationError{Resource: id, Reason: fmt.Sprintf("expected %d columns, got %d", legendreCols, len(f))}
		}
		if row >= legendreRows {
			return nil, &ConfigurationError{Resource: id, Reason: fmt.Sprintf("more than %d coefficient rows", legendreRows)}
		}
		for j, s := range f {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, &ConfigurationError{Resource: id, Reason: fmt.Sprintf("bad value %q", s)}
			}
			m.Set(row, j, v)
		}
		row++
	}
	if row != legendreRows {
		return nil, &ConfigurationError{Resource: id, Reason: fmt.Sprintf("expected %d coefficient rows, got %d", legendreRows, row)}
	}
	return m, nil
}

// evaluate expands the b and c coefficients at the given location and
// fractional day of year.
func (c *vmf3Coeffs) evaluate(latRad, lonRad, doy float64) (bh, bw, ch, cw float64) {
	V, W := vwLegendre(latRad, lonRad, legendreDegree)

	phase := doy / DaysInYear * 2 * PI
	s := [legendreCols]float64{
		1,
		math.Cos(phase), math.Sin(phase),
		math.Cos(2 * phase), math.Sin(2 * phase),
	}

	seasonal := func(t *mat.Dense, i int) float64 {
		v := 0.0
		for j := 0; j < legendreCols; j++ {
			v += t.At(i, j) * s[j]
		}
		return v
	}

	i := 0
	for n := 0; n <= legendreDegree; n++ {
		for m := 0; m <= n; m++ {
			v, w := V.At(n, m), W.At(n, m)
			bh += seasonal(c.anmBh, i)*v + seasonal(c.bnmBh, i)*w
			bw += seasonal(c.anmBw, i)*v + seasonal(c.bnmBw, i)*w
			ch += seasonal(c.anmCh, i)*v + seasonal(c.bnmCh, i)*w
			cw += seasonal(c.anmCw, i)*v + seasonal(c.bnmCw, i)*w
			i++
		}
	}
	return bh, bw, ch, cw
}

// vwLegendre computes the unnormalized V and W Legendre functions up to
// the given degree by column recursion.
func vwLegendre(latRad, lonRad float64, degree int) (V, W *mat.Dense) {
	x := math.Cos(latRad) * math.Cos(lonRad)
	y := math.Cos(latRad) * math.Sin(lonRad)
	z := math.Sin(latRad)

	V = mat.NewDense(degree+1, degree+1, nil)
	W = mat.NewDense(degree+1, degree+1, nil)

	V.Set(0, 0, 1)
	V.Set(1, 0, z)
	for n := 2; n <= degree; n++ {
		fn := float64(n)
		V.Set(n, 0, ((2*fn-1)*z*V.At(n-1, 0)-(fn-1)*V.At(n-2, 0))/fn)
	}
	for m := 1; m <= degree; m++ {
		fm := float64(m)
		V.Set(m, m, (2*fm-1)*(x*V.At(m-1, m-1)-y*W.At(m-1, m-1)))
		W.Set(m, m, (2*fm-1)*(x*W.At(m-1, m-1)+y*V.At(m-1, m-1)))
		if m < degree {
			V.Set(m+1, m, (2*fm+1)*z*V.At(m, m))
			W.Set(m+1, m, (2*fm+1)*z*W.At(m, m))
		}
		for n := m + 2; n <= degree; n++ {
			fn := float64(n)
			V.Set(n, m, ((2*fn-1)*z*V.At(n-1, m)-(fn+fm-1)*V.At(n-2, m))/(fn-fm))
			W.Set(n, m, ((2*fn-1)*z*W.At(n-1, m)-(fn+fm-1)*W.At(n-2, m))/(fn-fm))
		}
	}
	return V, W
}
