package main

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2"
)

type Settings struct {
	SpritePath    string `json:"spritePath"`
	Scale         int    `json:"scale"`
	Vsync         bool   `json:"vsync"`
	Lighting      bool   `json:"lighting"`
	AtlasCapacity int    `json:"atlasCapacity"`
	ShowStats     bool   `json:"showStats"`
	RecordStats   bool   `json:"recordStats"`
}

var gsdef = Settings{
	Scale:         2,
	Vsync:         true,
	Lighting:      true,
	AtlasCapacity: 4096,
	ShowStats:     true,
	RecordStats:   true,
}

var gs = gsdef

var settingsDirty bool

func settingsPath() string {
	return filepath.Join(baseDir, "settings.json")
}

// loadSettings reads settings.json over the defaults. It reports whether a
// file was read.
func loadSettings() bool {
	data, err := os.ReadFile(settingsPath())
	if err != nil {
		return false
	}
	s := gsdef
	if err := json.Unmarshal(data, &s); err != nil {
		log.Printf("load settings: %v", err)
		return false
	}
	if s.Scale < 1 || s.Scale > 8 {
		s.Scale = gsdef.Scale
	}
	if s.AtlasCapacity <= 0 {
		s.AtlasCapacity = gsdef.AtlasCapacity
	}
	gs = s
	return true
}

func applySettings() {
	ebiten.SetVsyncEnabled(gs.Vsync)
	w, h := viewportSize()
	ebiten.SetWindowSize(w*gs.Scale, h*gs.Scale)
}

func saveSettings() {
	data, err := json.MarshalIndent(gs, "", "  ")
	if err != nil {
		log.Printf("save settings: %v", err)
		return
	}
	if err := os.WriteFile(settingsPath(), data, 0644); err != nil {
		log.Printf("save settings: %v", err)
		return
	}
	settingsDirty = false
}
