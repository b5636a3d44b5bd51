package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"tilecore/atlas"
	"tilecore/render"
)

// renderStats accumulate over every session and are kept in data/stats.json.
type renderStats struct {
	Sessions     int           `json:"sessions"`
	Frames       int           `json:"frames"`
	DrawCalls    int           `json:"drawCalls"`
	Dropped      int           `json:"dropped"`
	AssembleTime time.Duration `json:"assembleTime"`
	AtlasHits    int           `json:"atlasHits"`
	AtlasMisses  int           `json:"atlasMisses"`
	Evictions    int           `json:"evictions"`
	Failures     int           `json:"failures"`
}

const statsFile = "stats.json"
const dataDirPath = "data"

var (
	stats      renderStats
	statsMu    sync.Mutex
	statsDirty bool

	// session baselines, so repeated records add only the delta
	lastTotals render.Totals
	lastAtlas  atlas.Stats
)

func statsPath() string {
	return filepath.Join(baseDir, dataDirPath, statsFile)
}

// loadStats reads the stored totals and saves them every minute until ctx
// ends.
func loadStats(ctx context.Context) {
	statsMu.Lock()
	stats = renderStats{}
	if data, err := os.ReadFile(statsPath()); err == nil {
		if err := json.Unmarshal(data, &stats); err != nil {
			log.Printf("load stats: %v", err)
		}
	}
	stats.Sessions++
	statsDirty = true
	lastTotals = render.Totals{}
	lastAtlas = atlas.Stats{}
	statsMu.Unlock()

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				saveStats()
			}
		}
	}()
}

func saveStats() {
	statsMu.Lock()
	if !statsDirty {
		statsMu.Unlock()
		return
	}
	statsDirty = false
	data, err := json.MarshalIndent(stats, "", "  ")
	statsMu.Unlock()
	if err != nil {
		log.Printf("save stats: %v", err)
		return
	}
	if err := os.MkdirAll(filepath.Dir(statsPath()), 0755); err != nil {
		log.Printf("save stats: %v", err)
		return
	}
	if err := os.WriteFile(statsPath(), data, 0644); err != nil {
		log.Printf("save stats: %v", err)
	}
}

// recordStats folds the counters since the last call into the totals.
func recordStats(t render.Totals, a atlas.Stats) {
	if !gs.RecordStats {
		return
	}
	statsMu.Lock()
	stats.Frames += t.Frames - lastTotals.Frames
	stats.DrawCalls += t.DrawCalls - lastTotals.DrawCalls
	stats.Dropped += t.Dropped - lastTotals.Dropped
	stats.AssembleTime += t.AssembleTime - lastTotals.AssembleTime
	stats.AtlasHits += a.Hits - lastAtlas.Hits
	stats.AtlasMisses += a.Misses - lastAtlas.Misses
	stats.Evictions += a.Evictions - lastAtlas.Evictions
	stats.Failures += a.Failures - lastAtlas.Failures
	lastTotals, lastAtlas = t, a
	statsDirty = true
	statsMu.Unlock()
}
