// Copyright (c) 2026 Aresys S.r.l. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.8.26
//

package perturb

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Process-wide cache of loaded map datasets. Entries are immutable once
// stored and replaced wholesale; concurrent loads of the same key are
// deduplicated so only one parse runs.

// MapKey identifies one dataset: an epoch bucket (day of year for TEC
// maps, 6-hourly slot for VMF3 grids) plus the product qualifiers.
type MapKey struct {
	Year   int
	Doy    int
	Slot   int // 6-hourly slot index, 0 for daily products
	Center AnalysisCenter
	Res    GridResolution
	Kind   string // "tec" or "vmf3"
}

func (k MapKey) String() string {
	return fmt.Sprintf("%s/%d-%03d.%d/%s/%s", k.Kind, k.Year, k.Doy, k.Slot, k.Center.String(), k.Res.String())
}

type MapCache struct {
	mu      sync.RWMutex
	entries map[MapKey]any
	group   singleflight.Group
}

func NewMapCache() *MapCache {
	return &MapCache{entries: make(map[MapKey]any)}
}

// Load returns the cached dataset for the key, running the loader at
// most once per key across concurrent callers. Failed loads are not
// cached.
func (c *MapCache) Load(key MapKey, load func() (any, error)) (any, error) {
	c.mu.RLock()
	v, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return v, nil
	}

	v, err, _ := c.group.Do(key.String(), func() (any, error) {
		c.mu.RLock()
		v, ok := c.entries[key]
		c.mu.RUnlock()
		if ok {
			return v, nil
		}
		v, err := load()
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[key] = v
		c.mu.Unlock()
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Replace stores a freshly loaded dataset, displacing any previous entry
// for the key.
func (c *MapCache) Replace(key MapKey, v any) {
	c.mu.Lock()
	c.entries[key] = v
	c.mu.Unlock()
}

// Drop removes the entry for the key, if any.
func (c *MapCache) Drop(key MapKey) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// LoadTECMap is the typed wrapper of Load for IONEX datasets.
func (c *MapCache) LoadTECMap(key MapKey, load func() (*TECMap, error)) (*TECMap, error) {
	v, err := c.Load(key, func() (any, error) { return load() })
	if err != nil {
		return nil, err
	}
	return v.(*TECMap), nil
}

// LoadVMF3Grid is the typed wrapper of Load for VMF3 grid datasets.
func (c *MapCache) LoadVMF3Grid(key MapKey, load func() (*VMF3Grid, error)) (*VMF3Grid, error) {
	v, err := c.Load(key, func() (any, error) { return load() })
	if err != nil {
		return nil, err
	}
	return v.(*VMF3Grid), nil
}
