// Copyright (c) 2026 Aresys S.r.l. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.8.25
//

package perturb

import (
	"fmt"
	"math"
	"os"
	"time"

	"gonum.org/v1/gonum/mat"
)

// ------------------------------------
// Mini functions
// ------------------------------------

func SQ(x float64) float64 {
	return x * x
}

func ToDeg(rad float64) float64 {
	return rad / PI * 180.0
}

func ToRad(deg float64) float64 {
	return deg / 180.0 * PI
}

// Barometric formula: pressure [mbar] at the given height for the
// troposphere ISA level.
func barometricPressure(height float64) float64 {
	exponent := GravitationalAccel * MolarMassAir / UniversalGasConst / TempLapseRate
	return AtmosphericPressureMb * math.Pow(1-TempLapseRate/TempReference*height, exponent)
}

// ------------------------------------
// Debug print function
// ------------------------------------

func PrintMat(X mat.Matrix) {
	r, c := X.Dims()
	fmt.Fprintf(os.Stderr, "(%d x %d)\n", r, c)
	fa := mat.Formatted(X, mat.Prefix(""), mat.Squeeze())
	fmt.Fprintf(os.Stderr, "%v\n", fa)
}

func PrintA(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format, a...)
}

func PrintAIf(cond bool, format string, a ...any) {
	if cond {
		PrintA(format, a...)
	}
}

func PrintB(t GTime, format string, a ...any) {
	fmt.Fprintf(os.Stderr, t.ToTime().UTC().Format("2006-01-02T15:04:05.000000")+"\t"+format, a...)
}

// Debug display level
var DBG_ int

// Debug display
func PrintD(v int, format string, a ...any) {
	PrintAIf(DBG_ >= v, format, a...)
}

func PrintE(err error) {
	fmt.Fprintf(os.Stderr, "err=%s\n", err.Error())
}

// ------------------------------------
// For command argument parsing
// ------------------------------------

// Date and Time Parser (for command arguments)
type TimeStr time.Time

func (p *TimeStr) MarshalText() (text []byte, err error) {
	text, err = time.Time(*p).MarshalText()
	if err != nil {
		return nil, err
	}
	return text, nil
}

func (p *TimeStr) UnmarshalText(text []byte) error {
	s := string(text)
	t, err := time.Parse("2006/01/02 15:04:05", s)
	if err != nil {
		return err
	}
	*p = TimeStr(t)
	return nil
}

func NewTimeStr(t time.Time) *TimeStr {
	m := new(TimeStr)
	*m = TimeStr(t)
	return m
}
