// Copyright (c) 2026 Aresys S.r.l. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.8.24
//

package perturb

const (
	PI = 3.1415926535897932  // Pi
	C  = 2.99792458e8        // Speed of light [m/s]
	Re = 6378137.0           // Earth's semi-major axis [m]
	Fe = 1.0 / 298.257223563 // Earth's flattening

	// Ionosphere thin-shell model defaults, overridden by map metadata
	DefaultEarthRadius      = 6371000.0 // Mean Earth radius [m]
	DefaultIonosphereHeight = 450000.0  // Single-layer ionosphere height [m]

	// First-order ionospheric delay: dL = TECDelayFactor / fc^2 * vTEC [m]
	// (1 TECU = 1e16 electrons per m^2)
	TECDelayFactor = 40.3e16

	// Troposphere ISA level
	AtmosphericPressureMb = 1013.25   // Sea level standard pressure [mbar]
	TempLapseRate         = 0.0065    // Temperature lapse rate [K/m]
	TempReference         = 288.15    // Reference temperature [K]
	GravitationalAccel    = 9.80665   // [m/s^2]
	MolarMassAir          = 0.0289644 // [kg/mol]
	UniversalGasConst     = 8.3144598 // [J/mol/K]

	SecondsInDay  = 86400  // [s]
	DaysInYear    = 365.25 // [d]
	SecondsInYear = SecondsInDay * DaysInYear
)

// Saastamoinen hydrostatic zenith delay constants
var saastamoinenCnts = [3]float64{0.0022768, 0.00266, 0.28e-6}
