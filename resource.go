// Copyright (c) 2026 Aresys S.r.l. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.8.25
//

package perturb

import (
	"fmt"
	"os"
	"path/filepath"
)

// Logical ids of the bundled auxiliary resources. The Legendre coefficient
// tables parameterize the empirical b/c terms of the VMF3 mapping function;
// the grid station files carry the ellipsoidal heights of the VMF3 grid
// points (https://vmf.geo.tuwien.ac.at/station_coord_files/).
const (
	ResLegendreAnmBh = "anm_bh"
	ResLegendreAnmBw = "anm_bw"
	ResLegendreAnmCh = "anm_ch"
	ResLegendreAnmCw = "anm_cw"
	ResLegendreBnmBh = "bnm_bh"
	ResLegendreBnmBw = "bnm_bw"
	ResLegendreBnmCh = "bnm_ch"
	ResLegendreBnmCw = "bnm_cw"

	ResGridStationsFine   = "gridpoint_coord_1x1"
	ResGridStationsCoarse = "gridpoint_coord_5x5"
)

// ResourceProvider supplies byte content for bundled resources, keyed by
// logical id. Implementations may embed, bundle or fetch the data; the
// engines never touch the filesystem themselves.
type ResourceProvider interface {
	ReadResource(id string) ([]byte, error)
}

// DirResourceProvider reads resources from <Dir>/<id>.txt.
type DirResourceProvider struct {
	Dir string
}

func (p DirResourceProvider) ReadResource(id string) ([]byte, error) {
	b, err := os.ReadFile(filepath.Join(p.Dir, id+".txt"))
	if err != nil {
		return nil, &ConfigurationError{Resource: id, Reason: fmt.Sprintf("read failed: %v", err)}
	}
	return b, nil
}
