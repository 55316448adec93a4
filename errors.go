// Copyright (c) 2026 Aresys S.r.l. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.8.25
//

package perturb

import "fmt"

// Failure taxonomy of the perturbation engines. Every error carries the
// offending epoch/point/key so callers can diagnose without re-running.
// No engine falls back to defaults silently.

// Missing or malformed resource/map content
type ConfigurationError struct {
	Resource string
	Reason   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error in %s: %s", e.Resource, e.Reason)
}

// Epoch outside the temporal coverage of a dataset or model
type TemporalCoverageError struct {
	Epoch GTime
	Start GTime
	End   GTime
}

func (e *TemporalCoverageError) Error() string {
	return fmt.Sprintf("epoch %s outside temporal coverage [%s, %s]", e.Epoch.String(), e.Start.String(), e.End.String())
}

// Point outside grid coverage with no extrapolation policy set
type SpatialCoverageError struct {
	LatDeg float64
	LonDeg float64
	LatMin float64
	LatMax float64
	LonMin float64
	LonMax float64
}

func (e *SpatialCoverageError) Error() string {
	return fmt.Sprintf("point (%.4f, %.4f) outside grid coverage lat [%.2f, %.2f] lon [%.2f, %.2f]",
		e.LatDeg, e.LonDeg, e.LatMin, e.LatMax, e.LonMin, e.LonMax)
}

// Unrecognized map/grid format era
type FormatVersionError struct {
	Era MapFormatEra
}

func (e *FormatVersionError) Error() string {
	return fmt.Sprintf("unrecognized map format era %d", int(e.Era))
}

// Degenerate viewing geometry (elevation below cutoff etc.)
type InvalidGeometryError struct {
	ElevDeg float64
	Reason  string
}

func (e *InvalidGeometryError) Error() string {
	return fmt.Sprintf("invalid geometry (elevation %.3f deg): %s", e.ElevDeg, e.Reason)
}

// Plate key not listed in the plate motion model
type InvalidPlateIDError struct {
	Plate string
}

func (e *InvalidPlateIDError) Error() string {
	return fmt.Sprintf("plate %q is not defined in the plate motion model", e.Plate)
}
