package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sqweek/dialog"

	"tilecore/spr"
)

var (
	baseDir      string
	debugLogging bool
	sprPath      string
	verifyOnly   bool
	snapshotPath string
	workers      int
	seed         int64
)

var errNoSpriteFile = errors.New("no sprite file selected")

func main() {
	flag.StringVar(&sprPath, "spr", "", "sprite file to load")
	flag.BoolVar(&debugLogging, "debug", false, "verbose/debug logging")
	flag.BoolVar(&verifyOnly, "verify", false, "decode every sprite, report failures and exit")
	flag.StringVar(&snapshotPath, "snapshot", "", "render one frame to this PNG and exit")
	flag.IntVar(&workers, "workers", runtime.NumCPU(), "decoders used by -verify")
	flag.Int64Var(&seed, "seed", 1, "demo world seed")
	flag.Parse()

	baseDir = os.Getenv("PWD")
	if baseDir == "" {
		var err error
		if baseDir, err = os.Getwd(); err != nil {
			log.Fatalf("get working directory: %v", err)
		}
	}

	loadSettings()
	setupLogging(debugLogging)
	defer func() {
		if r := recover(); r != nil {
			logError("panic: %v\n%s", r, debug.Stack())
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	path, err := resolveSpritePath()
	if err != nil {
		logError("sprite file: %v", err)
		os.Exit(1)
	}
	sprites, err := spr.Load(path)
	if err != nil {
		logError("failed to load %s: %v", path, err)
		os.Exit(1)
	}
	logDebug("loaded %s: version %d, %s sprites, %s",
		path, sprites.Version, humanize.Comma(int64(sprites.Count())), humanize.Bytes(uint64(sprites.Bytes())))

	if verifyOnly {
		if rep := runVerify(ctx, sprites, workers); len(rep.Failures) > 0 {
			os.Exit(2)
		}
		return
	}

	world := newDemoWorld(sprites.IDs(), seed, time.Now())
	if snapshotPath != "" {
		if err := writeSnapshot(snapshotPath, sprites, world); err != nil {
			logError("snapshot: %v", err)
			os.Exit(1)
		}
		return
	}

	loadStats(ctx)
	g, err := newGame(ctx, sprites, world)
	if err != nil {
		logError("start: %v", err)
		os.Exit(1)
	}
	runGame(g)
}

// resolveSpritePath picks the sprite file from the flag, the settings or a
// file dialog, remembering a dialog choice.
func resolveSpritePath() (string, error) {
	if sprPath != "" {
		return absPath(sprPath), nil
	}
	if gs.SpritePath != "" {
		if _, err := os.Stat(gs.SpritePath); err == nil {
			return gs.SpritePath, nil
		}
		logError("stored sprite file %s is missing", gs.SpritePath)
	}
	path, err := pickSpriteFile()
	if err != nil {
		return "", err
	}
	gs.SpritePath = path
	saveSettings()
	return path, nil
}

func absPath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}

func pickSpriteFile() (string, error) {
	path, err := dialog.File().Filter("Sprite files", "spr").SetStartDir(baseDir).Title("Open sprite file").Load()
	if errors.Is(err, dialog.ErrCancelled) {
		return "", errNoSpriteFile
	}
	return path, err
}

func runVerify(ctx context.Context, sprites *spr.Sprites, workers int) spr.Report {
	start := time.Now()
	rep := spr.Verify(ctx, sprites, workers)
	for _, f := range rep.Failures {
		logError("sprite %d: %v", f.ID, f.Err)
	}
	fmt.Println(verifySummary(rep, sprites.Bytes(), time.Since(start)))
	return rep
}

func verifySummary(rep spr.Report, size int, took time.Duration) string {
	return fmt.Sprintf("verified %s sprites (%s) in %s: %s failed",
		humanize.Comma(int64(rep.Checked)), humanize.Bytes(uint64(size)),
		took.Round(time.Millisecond), humanize.Comma(int64(len(rep.Failures))))
}
