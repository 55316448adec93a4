// Copyright (c) 2026 Aresys S.r.l. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.8.27
//

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	m "github.com/aresys-srl/goperturb"
)

func main() {

	// Parse command line arguments
	args, err := parseArgs()
	if err != nil {
		m.PrintE(err)
		flag.Usage()
		os.Exit(1)
	}

	// Run the main application
	if err := runApplication(args); err != nil {
		m.PrintE(err)
		os.Exit(1)
	}
}

// Structure to hold command line argument information
type cmdOpt struct {
	mode      string
	t         time.Time
	point     m.PosLLH
	elevDeg   float64
	azDeg     float64
	freqHz    float64
	center    m.AnalysisCenter
	ionexFn   string
	vmf3Fns   string
	resDir    string
	coarse    bool
	clamp     bool
	plate       string
	tRef        time.Time
	driftStr    string
	driftENUStr string
	satStr      string
	usePierce   bool
	sunStr      string
	moonStr     string
}

// Parse command line arguments
func parseArgs() (a cmdOpt, err error) {
	flag.Usage = func() {
		m.PrintA(`
[Usage]
	%s -p names -t "2023/10/26 15:12:00" [-c COD]
	%s -p atmo  -t "2023/10/26 15:12:00" -l "lat lon hei" -e 35 -i ionex_file -v "grid.H06,grid.H12,grid.H18,grid.H00" -r resource_dir
	%s -p plate -t "2023/10/26 15:12:00" -tr "2021/01/01 00:00:00" -l "lat lon hei" -plate ARAB
	%s -p tides -t "2023/10/26 15:12:00" -l "lat lon hei" -sun "x y z" -moon "x y z"

[Options]
`, filepath.Base(os.Args[0]), filepath.Base(os.Args[0]), filepath.Base(os.Args[0]), filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}

	flag.StringVar(&a.mode, "p", "atmo", "Processing mode. names(map file names), atmo(atmospheric slant delay), plate(plate tectonics displacement), tides(solid tides displacement)")
	var t_, tr_ m.TimeStr
	flag.TextVar(&t_, "t", m.NewTimeStr(time.Now().UTC()), "Acquisition epoch. Enclose in quotes like -t \"2023/10/26 15:12:00\"")
	flag.TextVar(&tr_, "tr", m.NewTimeStr(time.Time{}), "Coordinates reference epoch for plate mode. Enclose in quotes like -tr \"2021/01/01 00:00:00\"")
	flag.Var(&a.point, "l", "Ground point latitude/longitude/ellipsoidal height. Enclose in quotes like -l \"45.478 9.227 139.0\"")
	flag.Float64Var(&a.elevDeg, "e", 90, "Elevation angle of the line of sight [deg]")
	flag.Float64Var(&a.azDeg, "a", 0, "Azimuth angle of the line of sight, clockwise from north [deg]")
	flag.Float64Var(&a.freqHz, "fc", 5.405e9, "Carrier frequency [Hz]")
	var center string
	flag.StringVar(&center, "c", "COD", "Analysis center of the TEC map product")
	flag.StringVar(&a.ionexFn, "i", "", "IONEX TEC map file path")
	flag.StringVar(&a.vmf3Fns, "v", "", "VMF3 grid file paths in ascending epoch order, comma-separated without spaces")
	flag.StringVar(&a.resDir, "r", "", "Directory holding the VMF3 coefficient and station grid resources")
	flag.BoolVar(&a.coarse, "g5", false, "Use the 5x5 deg station grid instead of the 1x1 deg one")
	flag.BoolVar(&a.clamp, "clamp", false, "Clamp points outside grid coverage to the boundary node instead of failing")
	flag.StringVar(&a.plate, "plate", "", "ITRF2014-PMM plate id for plate mode (e.g. EURA)")
	flag.StringVar(&a.driftStr, "drift", "", "Additional ECEF drift velocity [m/s] for plate mode, like -drift \"0.01 0.0 0.0\"")
	flag.StringVar(&a.driftENUStr, "driftenu", "", "Additional drift velocity in local ENU [m/s] for plate mode, rotated to ECEF at the ground point")
	flag.StringVar(&a.satStr, "sat", "", "Sensor ECEF position [m] for atmo mode; derives the -e and -a angles from the ground point when given")
	flag.StringVar(&a.sunStr, "sun", "", "Geocentric ECEF Sun position [m] for tides mode, like -sun \"1.4e11 0 0\"")
	flag.StringVar(&a.moonStr, "moon", "", "Geocentric ECEF Moon position [m] for tides mode, like -moon \"3.8e8 0 0\"")
	flag.BoolVar(&a.usePierce, "ipp", false, "Interpolate TEC at the ionospheric pierce point instead of the ground point")
	var dbg int
	flag.IntVar(&dbg, "x", 0, "Debug information display. Specify level value. 0(OFF), 1(display), 2(detailed display)")
	flag.Parse()

	a.t = time.Time(t_)
	a.tRef = time.Time(tr_)
	m.DBG_ = dbg

	a.center, err = m.ParseAnalysisCenter(center)
	if err != nil {
		return a, err
	}

	switch a.mode {
	case "names":
	case "atmo":
		if a.ionexFn == "" || a.vmf3Fns == "" || a.resDir == "" {
			return a, fmt.Errorf("atmo mode needs the -i, -v and -r options")
		}
	case "plate":
		if a.plate == "" {
			return a, fmt.Errorf("plate mode needs the -plate option")
		}
		if a.tRef.IsZero() {
			return a, fmt.Errorf("plate mode needs the -tr option")
		}
		if a.driftStr != "" && a.driftENUStr != "" {
			return a, fmt.Errorf("the -drift and -driftenu options are mutually exclusive")
		}
	case "tides":
		if a.sunStr == "" || a.moonStr == "" {
			return a, fmt.Errorf("tides mode needs the -sun and -moon options")
		}
	default:
		return a, fmt.Errorf("unknown mode %q", a.mode)
	}
	return a, nil
}

// Main application processing
func runApplication(args cmdOpt) error {
	t := *m.NewGTime(args.t)

	switch args.mode {
	case "names":
		return printMapNames(t, args)
	case "atmo":
		return printAtmoDelay(t, args)
	case "plate":
		return printPlateDisplacement(t, args)
	case "tides":
		return printTideDisplacement(t, args)
	}
	return nil
}

// Print the atmospheric map file names needed around the epoch
func printMapNames(t m.GTime, args cmdOpt) error {
	name, err := m.IonosphericMapFilename(t, args.center, m.SolutionFinal, m.ResolutionHour)
	if err != nil {
		return err
	}
	fmt.Printf("ionosphere : %s\n", name)

	names, epochs := m.TroposphericMapFilenames(t)
	for i, n := range names {
		fmt.Printf("troposphere: %s (%s)\n", n, epochs[i].String())
	}
	return nil
}

// Compute and print the combined atmospheric slant delay
func printAtmoDelay(t m.GTime, args cmdOpt) error {
	cache := m.NewMapCache()

	key := m.MapKey{Year: t.Year(), Doy: t.DayOfYear(), Center: args.center, Kind: "tec"}
	tecMap, err := cache.LoadTECMap(key, func() (*m.TECMap, error) {
		return readIONEX(args.ionexFn, args.center, m.FormatEraOf(t))
	})
	if err != nil {
		return fmt.Errorf("failed to load TEC map: %w", err)
	}
	if m.DBG_ >= 2 {
		m.PrintMat(tecMap.Maps[0])
	}

	res := m.ResolutionFine
	if args.coarse {
		res = m.ResolutionCoarse
	}
	_, epochs := m.TroposphericMapFilenames(t)
	key = m.MapKey{Year: t.Year(), Doy: t.DayOfYear(), Slot: int(epochs[0].Sec) / 21600, Res: res, Kind: "vmf3"}
	grid, err := cache.LoadVMF3Grid(key, func() (*m.VMF3Grid, error) {
		return readVMF3(strings.Split(args.vmf3Fns, ","), epochs, res)
	})
	if err != nil {
		return fmt.Errorf("failed to load VMF3 grids: %w", err)
	}

	tropo, err := m.NewTropoModel(m.DirResourceProvider{Dir: args.resDir}, res)
	if err != nil {
		return fmt.Errorf("failed to set up the troposphere model: %w", err)
	}
	tropo.ClampToGrid = args.clamp

	iono := m.NewIonoModel(args.freqHz)
	iono.ClampToGrid = args.clamp

	// the line of sight comes either from the -e/-a angles or from a
	// sensor position
	elevDeg, azDeg := args.elevDeg, args.azDeg
	if args.satStr != "" {
		sat, err := parseXYZ(args.satStr)
		if err != nil {
			return fmt.Errorf("bad sensor position %q: %w", args.satStr, err)
		}
		ground := args.point.ToXYZ()
		elevDeg = m.ToDeg(ground.Elevation(sat))
		azDeg = m.ToDeg(ground.Azimuth(sat))
		m.PrintD(1, "line of sight    : elev %.3f deg, az %.3f deg\n", elevDeg, azDeg)
	}

	elev := m.ToRad(elevDeg)
	engine := m.NewAtmosphericDelayEngine(iono, tropo)

	var result m.DelayResult
	if args.usePierce {
		delay, mf, err := iono.SlantDelayIPP(tecMap, args.point, t, elev, m.ToRad(azDeg))
		if err != nil {
			return err
		}
		td, err := tropo.SlantDelay(grid, args.point, t, elev)
		if err != nil {
			return err
		}
		result = m.DelayResult{Ionospheric: delay, Tropospheric: td.Total(), IonoMF: mf, Tropo: td}
	} else {
		result, err = engine.TotalSlantDelay(tecMap, grid, args.point, t, elev)
		if err != nil {
			return err
		}
	}

	m.PrintD(1, "iono shell height: %.0f m, base radius: %.0f m\n", tecMap.ShellHeight, tecMap.BaseRadius)
	m.PrintD(1, "tropo mf (h/w)   : %.6f %.6f\n", result.Tropo.MFHydrostatic, result.Tropo.MFWet)
	if m.DBG_ >= 2 {
		m.PrintB(t, "slant delay computed\n")
	}

	fmt.Printf("%% epoch                  elev(deg)  iono(m)      mf_i   zhd(m)    zwd(m)    tropo(m)  total(m)  total(ns)\n")
	fmt.Printf("%s %9.3f %10.4f %8.4f %9.4f %9.4f %9.4f %9.4f %10.4f\n",
		t.ToTime().UTC().Format("2006/01/02 15:04:05.000"), elevDeg,
		result.Ionospheric, result.IonoMF,
		result.Tropo.ZenithHydrostatic, result.Tropo.ZenithWet,
		result.Tropospheric, result.Total(), result.Total()/m.C*1e9)
	return nil
}

// Compute and print the plate tectonics displacement
func printPlateDisplacement(t m.GTime, args cmdOpt) error {
	plate, err := m.ParsePlate(args.plate)
	if err != nil {
		return err
	}

	var drift *m.PosXYZ
	if args.driftStr != "" {
		d, err := parseXYZ(args.driftStr)
		if err != nil {
			return fmt.Errorf("bad drift velocity %q: %w", args.driftStr, err)
		}
		drift = &d
	}
	if args.driftENUStr != "" {
		enu, err := parseENU(args.driftENUStr)
		if err != nil {
			return fmt.Errorf("bad drift velocity %q: %w", args.driftENUStr, err)
		}
		base := args.point.ToXYZ()
		d := enu.ToXYZ(base).Sub(base)
		drift = &d
	}

	model := m.NewPlateMotionModel(*m.NewGTime(args.tRef))
	xyz := args.point.ToXYZ()
	disp, err := model.PlateDisplacement(xyz, plate, t, drift)
	if err != nil {
		return err
	}

	fmt.Printf("%% plate  dt(s)           dx(m)      dy(m)      dz(m)\n")
	fmt.Printf("%-6s %14.3f %10.6f %10.6f %10.6f\n", plate, t.Sub(*m.NewGTime(args.tRef)), disp.X, disp.Y, disp.Z)
	return nil
}

// Fixed-position ephemeris built from the command line
type cmdEphemeris struct {
	sun  m.PosXYZ
	moon m.PosXYZ
}

func (e cmdEphemeris) SunMoon(t m.GTime) (m.PosXYZ, m.PosXYZ, error) {
	return e.sun, e.moon, nil
}

// Compute and print the solid tide displacement
func printTideDisplacement(t m.GTime, args cmdOpt) error {
	sun, err := parseXYZ(args.sunStr)
	if err != nil {
		return fmt.Errorf("bad sun position: %w", err)
	}
	moon, err := parseXYZ(args.moonStr)
	if err != nil {
		return fmt.Errorf("bad moon position: %w", err)
	}

	model := m.NewTidalModel(cmdEphemeris{sun: sun, moon: moon})
	disp, err := model.TideDisplacement(args.point.ToXYZ(), t)
	if err != nil {
		return err
	}

	fmt.Printf("%% epoch                  dx(m)      dy(m)      dz(m)\n")
	fmt.Printf("%s %10.6f %10.6f %10.6f\n", t.ToTime().UTC().Format("2006/01/02 15:04:05.000"), disp.X, disp.Y, disp.Z)
	return nil
}

// Read "x y z" into an ECEF vector
func parseXYZ(s string) (m.PosXYZ, error) {
	var v m.PosXYZ
	if _, err := fmt.Sscanf(s, "%f %f %f", &v.X, &v.Y, &v.Z); err != nil {
		return m.PosXYZ{}, err
	}
	return v, nil
}

// Read "e n u" into a local ENU vector
func parseENU(s string) (m.PosENU, error) {
	var v m.PosENU
	if _, err := fmt.Sscanf(s, "%f %f %f", &v.E, &v.N, &v.U); err != nil {
		return m.PosENU{}, err
	}
	return v, nil
}

// Read an IONEX TEC map file
func readIONEX(fn string, center m.AnalysisCenter, era m.MapFormatEra) (*m.TECMap, error) {
	b, err := os.ReadFile(fn)
	if err != nil {
		return nil, err
	}
	return m.ParseIONEX(b, center, era)
}

// Read a set of VMF3 grid files
func readVMF3(fns []string, epochs []m.GTime, res m.GridResolution) (*m.VMF3Grid, error) {
	files := make([][]byte, 0, len(fns))
	for _, fn := range fns {
		b, err := os.ReadFile(fn)
		if err != nil {
			return nil, err
		}
		files = append(files, b)
	}
	return m.ParseVMF3Files(files, epochs, res)
}
