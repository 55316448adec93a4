// Copyright (c) 2026 Aresys S.r.l. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.8.27
//

package perturb

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

//-------------------------------------------------------------------
// PosLLH
//-------------------------------------------------------------------

type PosLLH struct {
	Lat float64
	Lon float64
	Hei float64
}

func NewPosLLH(lat, lon, hei float64) *PosLLH {
	return &PosLLH{
		Lat: lat,
		Lon: lon,
		Hei: hei,
	}
}

func (llh *PosLLH) ToXYZ() PosXYZ {
	// Ellipsoid parameters
	f := Fe                     // Flattening
	a := Re                     // Semi-major axis
	e := math.Sqrt(f * (2 - f)) // Eccentricity

	// Conversion to Cartesian coordinates
	n := a / math.Sqrt(1-e*e*math.Sin(llh.Lat)*math.Sin(llh.Lat))
	return PosXYZ{
		X: (n + llh.Hei) * math.Cos(llh.Lat) * math.Cos(llh.Lon),
		Y: (n + llh.Hei) * math.Cos(llh.Lat) * math.Sin(llh.Lon),
		Z: (n*(1-e*e) + llh.Hei) * math.Sin(llh.Lat),
	}
}

// Geocentric latitude from the geodetic one
func (llh *PosLLH) GeocentricLat() float64 {
	return math.Atan((1 - Fe) * (1 - Fe) * math.Tan(llh.Lat))
}

// Read from string "lat lon hei" (lat/lon in degrees)
func (llh *PosLLH) Set(s string) error {
	var err error
	f := strings.Fields(s)
	if len(f) != 3 {
		return fmt.Errorf("expected \"lat lon hei\", got %q", s)
	}
	llh.Lat, err = strconv.ParseFloat(f[0], 64)
	if err != nil {
		return err
	}
	llh.Lon, err = strconv.ParseFloat(f[1], 64)
	if err != nil {
		return err
	}
	llh.Hei, err = strconv.ParseFloat(f[2], 64)
	if err != nil {
		return err
	}
	llh.Lat *= math.Pi / 180
	llh.Lon *= math.Pi / 180
	return nil
}

// Convert to string
func (llh *PosLLH) String() string {
	return fmt.Sprintf("%.8f %.8f %.4f", llh.Lat, llh.Lon, llh.Hei)
}

//-------------------------------------------------------------------
// PosXYZ
//-------------------------------------------------------------------

type PosXYZ struct {
	X float64
	Y float64
	Z float64
}

func NewPosXYZ(x, y, z float64) *PosXYZ {
	return &PosXYZ{
		X: x,
		Y: y,
		Z: z,
	}
}

func (pos *PosXYZ) ToLLH() PosLLH {
	// In case of origin
	if pos.X == 0 && pos.Y == 0 && pos.Z == 0 {
		return PosLLH{Lat: 0, Lon: 0, Hei: -Re}
	}

	// Ellipsoid parameters
	f := Fe                     // Flattening
	a := Re                     // Semi-major axis
	b := a * (1 - f)            // Semi-minor axis
	e := math.Sqrt(f * (2 - f)) // Eccentricity

	// Parameters for coordinate transformation
	h := a*a - b*b
	p := math.Sqrt(pos.X*pos.X + pos.Y*pos.Y)
	t := math.Atan2(pos.Z*a, p*b)
	sint := math.Sin(t)
	cost := math.Cos(t)

	// Conversion to latitude and longitude
	lat := math.Atan2(pos.Z+h/b*sint*sint*sint, p-h/a*cost*cost*cost)
	lon := math.Atan2(pos.Y, pos.X)
	n := a / math.Sqrt(1-e*e*math.Sin(lat)*math.Sin(lat)) // Radius of curvature in the prime vertical
	hei := p/math.Cos(lat) - n
	return PosLLH{Lat: lat, Lon: lon, Hei: hei}
}

func (pos *PosXYZ) ToENU(base PosXYZ) PosENU {
	// Relative position from the reference location
	x := pos.X - base.X
	y := pos.Y - base.Y
	z := pos.Z - base.Z

	// Latitude and longitude of the reference location
	llh := base.ToLLH()
	s1 := math.Sin(llh.Lon)
	c1 := math.Cos(llh.Lon)
	s2 := math.Sin(llh.Lat)
	c2 := math.Cos(llh.Lat)

	// Rotate the relative position to convert to ENU coordinates
	return PosENU{
		E: -x*s1 + y*c1,
		N: -x*c1*s2 - y*s1*s2 + z*c2,
		U: x*c1*c2 + y*s1*c2 + z*s2,
	}
}

func (usr *PosXYZ) Elevation(sat PosXYZ) float64 {
	// Convert to ENU coordinates to calculate elevation angle
	enu := sat.ToENU(*usr)
	return enu.Elevation()
}

func (usr *PosXYZ) Azimuth(sat PosXYZ) float64 {
	// Convert to ENU coordinates to calculate azimuth
	enu := sat.ToENU(*usr)
	return enu.Azimuth()
}

//-------------------------------------------------------------------
// Vector operations on PosXYZ
//-------------------------------------------------------------------

func (pos PosXYZ) Add(b PosXYZ) PosXYZ {
	return PosXYZ{X: pos.X + b.X, Y: pos.Y + b.Y, Z: pos.Z + b.Z}
}

func (pos PosXYZ) Sub(b PosXYZ) PosXYZ {
	return PosXYZ{X: pos.X - b.X, Y: pos.Y - b.Y, Z: pos.Z - b.Z}
}

func (pos PosXYZ) Scale(s float64) PosXYZ {
	return PosXYZ{X: pos.X * s, Y: pos.Y * s, Z: pos.Z * s}
}

func (pos PosXYZ) Dot(b PosXYZ) float64 {
	return pos.X*b.X + pos.Y*b.Y + pos.Z*b.Z
}

func (pos PosXYZ) Cross(b PosXYZ) PosXYZ {
	return PosXYZ{
		X: pos.Y*b.Z - pos.Z*b.Y,
		Y: pos.Z*b.X - pos.X*b.Z,
		Z: pos.X*b.Y - pos.Y*b.X,
	}
}

func (pos PosXYZ) Norm() float64 {
	return math.Sqrt(pos.Dot(pos))
}

func (pos PosXYZ) Unit() PosXYZ {
	n := pos.Norm()
	if n == 0 {
		return pos
	}
	return pos.Scale(1 / n)
}

//-------------------------------------------------------------------
// PosENU
//-------------------------------------------------------------------

type PosENU struct {
	E float64
	N float64
	U float64
}

func NewPosENU(e, n, u float64) *PosENU {
	return &PosENU{
		E: e,
		N: n,
		U: u,
	}
}

func (enu *PosENU) ToXYZ(base PosXYZ) PosXYZ {
	// Latitude and longitude of the reference location
	llh := base.ToLLH()
	s1 := math.Sin(llh.Lon)
	c1 := math.Cos(llh.Lon)
	s2 := math.Sin(llh.Lat)
	c2 := math.Cos(llh.Lat)

	// Rotate the ENU coordinates to convert to relative position
	x := -enu.E*s1 - enu.N*c1*s2 + enu.U*c1*c2
	y := enu.E*c1 - enu.N*s1*s2 + enu.U*s1*c2
	z := enu.N*c2 + enu.U*s2

	// Add to the reference location
	return PosXYZ{
		X: x + base.X,
		Y: y + base.Y,
		Z: z + base.Z,
	}
}

func (enu *PosENU) Elevation() float64 {
	return math.Atan2(enu.U, math.Sqrt(enu.E*enu.E+enu.N*enu.N))
}

func (enu *PosENU) Azimuth() float64 {
	return math.Atan2(enu.E, enu.N)
}
