// Copyright (c) 2026 Aresys S.r.l. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.8.26
//

package perturb

// Facade summing the ionospheric and tropospheric slant delays for one
// line of sight. All-or-nothing: no partial result is returned when a
// sub-model fails.

type DelayResult struct {
	Ionospheric  float64 // slant ionospheric delay [m]
	Tropospheric float64 // slant tropospheric delay [m]
	IonoMF       float64 // thin-shell mapping function value used
	Tropo        TropoDelay
}

// Total returns the combined slant atmospheric delay [m].
func (r DelayResult) Total() float64 {
	return r.Ionospheric + r.Tropospheric
}

type AtmosphericDelayEngine struct {
	Iono  *IonoModel
	Tropo *TropoModel
}

func NewAtmosphericDelayEngine(iono *IonoModel, tropo *TropoModel) *AtmosphericDelayEngine {
	return &AtmosphericDelayEngine{Iono: iono, Tropo: tropo}
}

// TotalSlantDelay computes the ionospheric and tropospheric slant delays
// for the same line of sight and sums them. Elevation angle in radians.
func (e *AtmosphericDelayEngine) TotalSlantDelay(tm *TECMap, g *VMF3Grid, pt PosLLH, t GTime, elev float64) (DelayResult, error) {
	ionoDelay, ionoMF, err := e.Iono.SlantDelay(tm, pt, t, elev)
	if err != nil {
		return DelayResult{}, err
	}
	tropoDelay, err := e.Tropo.SlantDelay(g, pt, t, elev)
	if err != nil {
		return DelayResult{}, err
	}
	return DelayResult{
		Ionospheric:  ionoDelay,
		Tropospheric: tropoDelay.Total(),
		IonoMF:       ionoMF,
		Tropo:        tropoDelay,
	}, nil
}
