// Copyright (c) 2026 Aresys S.r.l. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.8.25
//

package perturb

import (
	"math"
	"time"
)

type GTime struct {
	Week int
	Sec  float64
}

func NewGTime(dt time.Time) *GTime {
	t := dt.Unix()
	t -= time.Date(1980, 1, 6, 0, 0, 0, 0, time.UTC).Unix() // Elapsed seconds since 1980/1/6 00:00:00
	return &GTime{
		Week: int(t / (3600 * 24 * 7)),
		Sec:  float64(t%(3600*24*7)) + float64(dt.Nanosecond())/1000000000,
	}
}

func (p *GTime) ToTime() time.Time {
	o := time.Date(1980, 1, 6, 0, 0, 0, 0, time.UTC).Unix() // GPS time starts from 1980/1/6 00:00:00
	i := int64(math.Trunc(p.Sec))
	t := int64(3600*24*7*p.Week) + i + o
	n := int64((p.Sec - float64(i)) * 1e9)
	return time.Unix(t, n) // Unix time is the elapsed seconds since 1970/1/1 00:00:00
}

func (p *GTime) Less(b GTime) bool {
	if p.Week == b.Week {
		return p.Sec < b.Sec
	}
	return p.Week < b.Week
}

func (p *GTime) LessOrEqual(b GTime) bool {
	if p.Week == b.Week {
		return p.Sec <= b.Sec
	}
	return p.Week < b.Week
}

// Sub returns p - b in seconds
func (p *GTime) Sub(b GTime) float64 {
	return float64(p.Week-b.Week)*(3600*24*7) + p.Sec - b.Sec
}

func (p *GTime) AddSec(sec float64) GTime {
	s := p.Sec + sec
	w := p.Week
	for s >= 3600*24*7 {
		s -= 3600 * 24 * 7
		w++
	}
	for s < 0 {
		s += 3600 * 24 * 7
		w--
	}
	return GTime{Week: w, Sec: s}
}

// Day of the year (1..366)
func (p *GTime) DayOfYear() int {
	return p.ToTime().UTC().YearDay()
}

func (p *GTime) Year() int {
	return p.ToTime().UTC().Year()
}

func (p *GTime) String() string {
	return p.ToTime().UTC().Format("2006-01-02T15:04:05.000")
}

//-------------------------------------------------------------------
// Map format era
//-------------------------------------------------------------------

// CDDIS atmospheric product conventions changed at GPS week 2238
// (2022/11/27): long product names, mandatory metadata fields.
const EraBoundaryWeek = 2238

type MapFormatEra int

const (
	// Pre GPS week 2238 products (short lowercase names, lax metadata)
	EraLegacy MapFormatEra = iota
	// GPS week 2238 and later products (long names, strict metadata)
	EraLongName
)

func (e MapFormatEra) String() string {
	switch e {
	case EraLegacy:
		return "legacy"
	case EraLongName:
		return "long-name"
	default:
		return "unknown"
	}
}

// FormatEraOf selects the map format era for a given epoch. Pure function
// of the epoch, same dispatch for filename generation and map decoding.
func FormatEraOf(t GTime) MapFormatEra {
	if t.Week < EraBoundaryWeek {
		return EraLegacy
	}
	return EraLongName
}
