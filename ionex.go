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
	"time"

	"gonum.org/v1/gonum/mat"
)

// CDDIS IONEX TEC map products
// https://cddis.nasa.gov/Data_and_Derived_Products/GNSS/atmospheric_products.html
//

//-------------------------------------------------------------------
// Analysis centers
//-------------------------------------------------------------------

type AnalysisCenter int

const (
	CenterCOD AnalysisCenter = iota // Final solution (CODE)
	CenterCOR                       // Rapid solution (CODE)
	CenterEHR                       // Rapid high-rate solution, one map per hour (ESA)
	CenterESA                       // Final solution (ESA)
	CenterESR                       // Rapid solution (ESA)
	CenterIGR                       // Rapid solution (IGS combined)
	CenterIGS                       // Final combined solution (IGS combined)
	CenterJPL                       // Final solution (JPL)
	CenterUPC                       // Final solution (UPC)
	CenterUHR                       // Rapid high-rate solution, one map per hour (UPC)
	CenterUPR                       // Rapid solution (UPC)
	CenterUQR                       // Rapid high-rate solution, one map per 15 minutes (UPC)
)

func (c AnalysisCenter) String() string {
	switch c {
	case CenterCOD:
		return "COD"
	case CenterCOR:
		return "COR"
	case CenterEHR:
		return "EHR"
	case CenterESA:
		return "ESA"
	case CenterESR:
		return "ESR"
	case CenterIGR:
		return "IGR"
	case CenterIGS:
		return "IGS"
	case CenterJPL:
		return "JPL"
	case CenterUPC:
		return "UPC"
	case CenterUHR:
		return "UHR"
	case CenterUPR:
		return "UPR"
	case CenterUQR:
		return "UQR"
	default:
		return "UNKNOWN!"
	}
}

func ParseAnalysisCenter(s string) (AnalysisCenter, error) {
	for c := CenterCOD; c <= CenterUQR; c++ {
		if strings.EqualFold(s, c.String()) {
			return c, nil
		}
	}
	return 0, &ConfigurationError{Resource: "analysis center", Reason: fmt.Sprintf("%q is not a supported CDDIS analysis center", s)}
}

// TEC map solution type
type SolutionType int

const (
	SolutionFinal SolutionType = iota
	SolutionRapid
)

func (s SolutionType) code() string {
	switch s {
	case SolutionFinal:
		return "FIN"
	case SolutionRapid:
		return "RAP"
	default:
		return "UNKNOWN!"
	}
}

// TEC map time resolution
type TimeResolution int

const (
	ResolutionHalfHour TimeResolution = iota
	ResolutionHour
	ResolutionTwoHours
)

func (r TimeResolution) code() string {
	switch r {
	case ResolutionHalfHour:
		return "30M"
	case ResolutionHour:
		return "01H"
	case ResolutionTwoHours:
		return "02H"
	default:
		return "UNKNOWN!"
	}
}

// IonosphericMapFilename builds the CDDIS map file name for the given
// epoch. The naming convention changed at GPS week 2238, the era dispatch
// is a pure function of the epoch.
func IonosphericMapFilename(t GTime, center AnalysisCenter, sol SolutionType, res TimeResolution) (string, error) {
	era := FormatEraOf(t)
	switch era {
	case EraLegacy:
		// name format AAAgDDD#.YYi
		return fmt.Sprintf("%sg%03d0.%02di", strings.ToLower(center.String()), t.DayOfYear(), t.Year()%100), nil
	case EraLongName:
		// name format AAA0OPSTYP_YYYYDDDHHMM_01D_SMP_CNT.INX
		return fmt.Sprintf("%s0OPS%s_%d%03d0000_01D_%s_GIM.INX",
			center.String(), sol.code(), t.Year(), t.DayOfYear(), res.code()), nil
	default:
		return "", &FormatVersionError{Era: era}
	}
}

//-------------------------------------------------------------------
// TEC map
//-------------------------------------------------------------------

// TECMap is an immutable set of vertical TEC grids read from one IONEX
// file. Rows follow LatAxis (ascending), columns follow LonAxis. Values
// are in TECU, already scaled by the file exponent.
type TECMap struct {
	Center      AnalysisCenter
	Era         MapFormatEra
	Epochs      []GTime
	Maps        []*mat.Dense
	LatAxis     []float64 // [deg], ascending
	LonAxis     []float64 // [deg], ascending
	BaseRadius  float64   // [m]
	ShellHeight float64   // [m]
	Scale       float64   // 10^EXPONENT applied to the raw integer values
}

// Coverage returns the temporal validity window of the map set.
func (m *TECMap) Coverage() (start, end GTime) {
	return m.Epochs[0], m.Epochs[len(m.Epochs)-1]
}

// ParseIONEX decodes a CDDIS IONEX TEC map file. The era tag drives the
// metadata extraction strategy: long-name products must declare the TEC
// scaling exponent, legacy products may omit it (0.1 TECU units implied).
func ParseIONEX(content []byte, center AnalysisCenter, era MapFormatEra) (*TECMap, error) {
	switch era {
	case EraLegacy, EraLongName:
	default:
		return nil, &FormatVersionError{Era: era}
	}

	lines := strings.Split(string(content), "\n")

	m := &TECMap{
		Center:      center,
		Era:         era,
		BaseRadius:  DefaultEarthRadius,
		ShellHeight: DefaultIonosphereHeight,
	}

	// Header scan
	exponent := -1.0 // legacy products imply 0.1 TECU units
	exponentSet := false
	var lat1, lat2, dlat float64
	var lon1, lon2, dlon float64
	axesSet := 0
	headerEnd := -1
	for i, line := range lines {
		switch {
		case strings.Contains(line, "END OF HEADER"):
			headerEnd = i
		case strings.Contains(line, "HGT1"):
			v, err := firstField(line)
			if err != nil {
				return nil, &ConfigurationError{Resource: "IONEX header", Reason: "malformed HGT1 / HGT2 / DHGT line"}
			}
			m.ShellHeight = v * 1000 // [km] -> [m]
		case strings.Contains(line, "BASE RADIUS"):
			v, err := firstField(line)
			if err != nil {
				return nil, &ConfigurationError{Resource: "IONEX header", Reason: "malformed BASE RADIUS line"}
			}
			m.BaseRadius = v * 1000 // [km] -> [m]
		case strings.Contains(line, "EXPONENT"):
			v, err := firstField(line)
			if err != nil {
				return nil, &ConfigurationError{Resource: "IONEX header", Reason: "malformed EXPONENT line"}
			}
			exponent = v
			exponentSet = true
		case strings.Contains(line, "LAT1 / LAT2 / DLAT"):
			var err error
			lat1, lat2, dlat, err = threeFields(line)
			if err != nil {
				return nil, &ConfigurationError{Resource: "IONEX header", Reason: "malformed LAT1 / LAT2 / DLAT line"}
			}
			axesSet++
		case strings.Contains(line, "LON1 / LON2 / DLON"):
			var err error
			lon1, lon2, dlon, err = threeFields(line)
			if err != nil {
				return nil, &ConfigurationError{Resource: "IONEX header", Reason: "malformed LON1 / LON2 / DLON line"}
			}
			axesSet++
		}
		if headerEnd >= 0 {
			break
		}
	}
	if headerEnd < 0 {
		return nil, &ConfigurationError{Resource: "IONEX header", Reason: "END OF HEADER not found"}
	}
	if axesSet != 2 || dlat == 0 || dlon == 0 {
		return nil, &ConfigurationError{Resource: "IONEX header", Reason: "grid axes not declared"}
	}
	if era == EraLongName && !exponentSet {
		return nil, &ConfigurationError{Resource: "IONEX header", Reason: "EXPONENT missing in long-name product"}
	}
	m.Scale = math.Pow(10, exponent)
	if !(m.ShellHeight > 0) || !(m.BaseRadius > 0) || !(m.Scale > 0) {
		return nil, &ConfigurationError{Resource: "IONEX header", Reason: "shell height, base radius and scale must be strictly positive"}
	}

	nLat := int(math.Round((lat2-lat1)/dlat)) + 1
	nLon := int(math.Round((lon2-lon1)/dlon)) + 1
	if nLat < 2 || nLon < 2 {
		return nil, &ConfigurationError{Resource: "IONEX header", Reason: "degenerate grid axes"}
	}
	m.LatAxis = makeAxis(lat1, lat2, dlat, nLat)
	m.LonAxis = makeAxis(lon1, lon2, dlon, nLon)

	// TEC map sections
	flipLat := dlat < 0
	for i := headerEnd + 1; i < len(lines); i++ {
		if !strings.Contains(lines[i], "START OF TEC MAP") {
			continue
		}
		end := -1
		for j := i + 1; j < len(lines); j++ {
			if strings.Contains(lines[j], "END OF TEC MAP") {
				end = j
				break
			}
		}
		if end < 0 {
			return nil, &ConfigurationError{Resource: "IONEX body", Reason: "could not isolate each TEC MAP section"}
		}

		grid := mat.NewDense(nLat, nLon, nil)
		row := -1
		col := 0
		for _, line := range lines[i+1 : end] {
			switch {
			case strings.Contains(line, "EPOCH OF CURRENT MAP"):
				epoch, err := parseIONEXEpoch(line)
				if err != nil {
					return nil, err
				}
				m.Epochs = append(m.Epochs, epoch)
			case strings.Contains(line, "LAT/LON1/LON2/DLON/H"):
				// new latitude section: the lat value in this line may run
				// into the longitude bound, the file row order is taken
				// from the header axes instead
				if row >= 0 && col != nLon {
					return nil, &ConfigurationError{Resource: "IONEX body", Reason: fmt.Sprintf("latitude row %d holds %d of %d values", row, col, nLon)}
				}
				row++
				col = 0
			default:
				for _, f := range strings.Fields(line) {
					v, err := strconv.ParseFloat(f, 64)
					if err != nil {
						return nil, &ConfigurationError{Resource: "IONEX body", Reason: fmt.Sprintf("bad TEC value %q", f)}
					}
					if row < 0 || row >= nLat || col >= nLon {
						return nil, &ConfigurationError{Resource: "IONEX body", Reason: "TEC values outside declared grid"}
					}
					r := row
					if flipLat {
						r = nLat - 1 - row
					}
					grid.Set(r, col, v*m.Scale)
					col++
				}
			}
		}
		if row != nLat-1 || col != nLon {
			return nil, &ConfigurationError{Resource: "IONEX body", Reason: fmt.Sprintf("TEC section holds %d of %d latitude rows", row+1, nLat)}
		}
		m.Maps = append(m.Maps, grid)
		i = end
	}

	if len(m.Maps) == 0 {
		return nil, &ConfigurationError{Resource: "IONEX body", Reason: "no TEC map sections found"}
	}
	if len(m.Maps) != len(m.Epochs) {
		return nil, &ConfigurationError{Resource: "IONEX body", Reason: "TEC sections and epochs out of step"}
	}
	return m, nil
}

// First whitespace-separated value of a header line
func firstField(line string) (float64, error) {
	f := strings.Fields(line)
	if len(f) == 0 {
		return 0, fmt.Errorf("empty line")
	}
	return strconv.ParseFloat(f[0], 64)
}

// First three whitespace-separated values of a header line
func threeFields(line string) (a, b, c float64, err error) {
	f := strings.Fields(line)
	if len(f) < 3 {
		return 0, 0, 0, fmt.Errorf("expected three values")
	}
	if a, err = strconv.ParseFloat(f[0], 64); err != nil {
		return
	}
	if b, err = strconv.ParseFloat(f[1], 64); err != nil {
		return
	}
	c, err = strconv.ParseFloat(f[2], 64)
	return
}

// "  2019     1     8     0     0     0 ... EPOCH OF CURRENT MAP"
func parseIONEXEpoch(line string) (GTime, error) {
	f := strings.Fields(line)
	if len(f) < 6 {
		return GTime{}, &ConfigurationError{Resource: "IONEX body", Reason: "malformed EPOCH OF CURRENT MAP line"}
	}
	v := [6]int{}
	for i := 0; i < 6; i++ {
		n, err := strconv.Atoi(f[i])
		if err != nil {
			return GTime{}, &ConfigurationError{Resource: "IONEX body", Reason: fmt.Sprintf("bad epoch component %q", f[i])}
		}
		v[i] = n
	}
	t := time.Date(v[0], time.Month(v[1]), v[2], v[3], v[4], v[5], 0, time.UTC)
	return *NewGTime(t), nil
}

// Ascending axis from the header bounds; the file order may be descending
func makeAxis(a, b, step float64, n int) []float64 {
	axis := make([]float64, n)
	lo := a
	if step < 0 {
		lo = b
		step = -step
	}
	for i := range axis {
		axis[i] = lo + float64(i)*step
	}
	return axis
}
