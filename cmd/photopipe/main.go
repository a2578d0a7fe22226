package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	photopipeline "github.com/aagedal/photo-pipeline"
	"github.com/aagedal/photo-pipeline/internal/config"
	"github.com/aagedal/photo-pipeline/internal/utils"
	"github.com/aagedal/photo-pipeline/pkg/decode"
	"github.com/aagedal/photo-pipeline/pkg/loader"
	"github.com/aagedal/photo-pipeline/pkg/prefetch"
)

func main() {
	var in, cfgPath string
	var width, height int
	var scale float64
	var capacity, warm int
	var fullRes bool
	var delay time.Duration

	flag.StringVar(&in, "in", "", "directory of images to browse")
	flag.StringVar(&cfgPath, "config", "", "config file path (JSON), defaults built in")
	flag.IntVar(&width, "width", 0, "logical screen width in points (overrides config)")
	flag.IntVar(&height, "height", 0, "logical screen height in points (overrides config)")
	flag.Float64Var(&scale, "scale", 0, "backing scale factor, e.g. 2 for Retina (overrides config)")
	flag.IntVar(&capacity, "capacity", 0, "prefetch cache capacity in images (overrides config)")
	flag.IntVar(&warm, "warm", 0, "images to warm ahead of the selection (overrides config)")
	flag.BoolVar(&fullRes, "full", false, "request the full-resolution tier for every image")
	flag.DurationVar(&delay, "delay", 0, "pause between selections, simulating browsing pace")

	flag.Parse()
	if in == "" {
		log.Fatalf("usage: %s -in photodir [-config cfg.json] [-width 1920 -height 1200 -scale 2] [-capacity 5 -warm 2] [-full] [-delay 200ms]", filepath.Base(os.Args[0]))
	}

	cfg := config.Default()
	if cfgPath != "" {
		if !utils.FileExists(cfgPath) {
			log.Fatalf("Config file not found: %s", cfgPath)
		}
		loaded, err := config.LoadFromFile(cfgPath)
		if err != nil {
			log.Fatal(err)
		}
		cfg = loaded
	}
	if width > 0 {
		cfg.Loader.ScreenWidth = width
	}
	if height > 0 {
		cfg.Loader.ScreenHeight = height
	}
	if scale > 0 {
		cfg.Loader.BackingScale = scale
	}
	if capacity > 0 {
		cfg.Prefetch.Capacity = capacity
	}
	if warm > 0 {
		cfg.Prefetch.WarmCount = warm
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	files, err := utils.ListBrowsableFiles(in)
	if err != nil {
		log.Fatal(err)
	}
	if len(files) == 0 {
		log.Fatalf("No browsable images found in %s", in)
	}
	log.Printf("found %d images in %s", len(files), in)

	dec := decode.NewFileDecoder()

	probeStart := time.Now()
	sources := photopipeline.ProbeSources(ctx, dec, files)
	log.Printf("probed %d sources in %v", len(sources), time.Since(probeStart).Round(time.Millisecond))

	viewer := photopipeline.NewWithConfig(dec,
		loader.Config{
			ScreenWidth:  cfg.Loader.ScreenWidth,
			ScreenHeight: cfg.Loader.ScreenHeight,
			BackingScale: cfg.Loader.BackingScale,
		},
		prefetch.Config{
			Capacity:     cfg.Prefetch.Capacity,
			WarmCount:    cfg.Prefetch.WarmCount,
			TargetMaxDim: cfg.Prefetch.TargetMaxDim,
		})
	defer viewer.Close()
	viewer.SetSources(sources)

	// Walk the library in navigation order, the pattern the prefetch cache
	// is tuned for, and report how each image arrived.
	for i, src := range sources {
		if ctx.Err() != nil {
			log.Printf("interrupted after %d images", i)
			break
		}
		selectStart := time.Now()
		viewer.SelectIndex(i)

		var size int64
		if info, err := os.Stat(src.Path); err == nil {
			size = info.Size()
		}

		for u := range viewer.Updates() {
			// A full-resolution result for the previous image may still
			// arrive after the selection moved on.
			if u.Source.Path != src.Path {
				continue
			}
			elapsed := time.Since(selectStart).Round(time.Millisecond)
			switch {
			case u.Err != nil:
				log.Printf("[%d/%d] %s: load failed after %v: %v", i+1, len(sources), filepath.Base(src.Path), elapsed, u.Err)
			case u.Bitmap != nil:
				log.Printf("[%d/%d] %s (%s): %s %dx%d at %v", i+1, len(sources), filepath.Base(src.Path),
					utils.FormatFileSize(size), u.Phase, u.Bitmap.Width, u.Bitmap.Height, elapsed)
			}
			if u.Final {
				break
			}
		}

		if fullRes {
			viewer.MaybeRequestFullResolution()
		}
		if delay > 0 {
			time.Sleep(delay)
		}
	}

	stats := viewer.CacheStats()
	log.Printf("cache: %d hits, %d misses, %d evictions, %d joined decodes",
		stats.Hits, stats.Misses, stats.Evictions, stats.Joins)
}
