// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package spatial

import (
	"sync"
	"time"

	"github.com/tomtom215/harborwatch/internal/filter"
	"github.com/tomtom215/harborwatch/internal/metrics"
	"github.com/tomtom215/harborwatch/internal/models"
)

// Config configures an Aggregator.
type Config struct {
	GridSize        float64
	ClusterRadiusPx float64
	CacheSize       int
}

type aggregateKey struct {
	view filter.Key
	zoom int
}

// Aggregator computes and caches aggregates per (view, zoom). It is safe
// for concurrent use.
type Aggregator struct {
	cfg Config

	mu    sync.Mutex
	cache map[aggregateKey]models.Aggregates
	order []aggregateKey
}

// NewAggregator creates an aggregator, applying defaults to zero fields.
func NewAggregator(cfg Config) *Aggregator {
	if cfg.GridSize <= 0 {
		cfg.GridSize = DefaultGridSize
	}
	if cfg.ClusterRadiusPx <= 0 {
		cfg.ClusterRadiusPx = DefaultClusterRadiusPx
	}
	if cfg.CacheSize < 1 {
		cfg.CacheSize = 8
	}
	return &Aggregator{cfg: cfg, cache: make(map[aggregateKey]models.Aggregates, cfg.CacheSize)}
}

// Compute returns the aggregates of view at zoom, reusing the cached result
// when neither the view nor the zoom changed.
func (a *Aggregator) Compute(view *filter.View, zoom int) models.Aggregates {
	key := aggregateKey{view: view.Key(), zoom: zoom}

	a.mu.Lock()
	if agg, ok := a.cache[key]; ok {
		a.mu.Unlock()
		metrics.RecordCacheLookup("aggregates", true)
		return agg
	}
	a.mu.Unlock()
	metrics.RecordCacheLookup("aggregates", false)

	agg := a.compute(view, zoom)

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.cache[key]; !ok {
		if len(a.order) >= a.cfg.CacheSize {
			delete(a.cache, a.order[0])
			a.order = a.order[1:]
		}
		a.order = append(a.order, key)
	}
	a.cache[key] = agg
	return agg
}

func (a *Aggregator) compute(view *filter.View, zoom int) models.Aggregates {
	agg := models.Aggregates{GridSize: a.cfg.GridSize, Zoom: zoom}

	start := time.Now()
	agg.HeatBuckets = Heatmap(view.Vessels, a.cfg.GridSize)
	metrics.ObserveStage("heatmap", start)

	start = time.Now()
	agg.Clusters = Clusters(view.Vessels, zoom, a.cfg.ClusterRadiusPx)
	metrics.ObserveStage("clusters", start)

	if view.Source != nil {
		start = time.Now()
		agg.Routes = Routes(view.Vessels, view.Source.Port)
		metrics.ObserveStage("routes", start)
	}
	return agg
}

// GridSize returns the configured heatmap bucket size.
func (a *Aggregator) GridSize() float64 {
	return a.cfg.GridSize
}
