package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zeusync/glengine/internal/core/config"
	"github.com/zeusync/glengine/internal/core/observability/log"
	"github.com/zeusync/glengine/internal/injector"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML configuration file")
	duration := flag.Duration("duration", 10*time.Second, "how long to run; zero runs until interrupted")
	flag.Parse()

	if err := run(*configPath, *duration); err != nil {
		fmt.Fprintln(os.Stderr, "scene:", err)
		os.Exit(1)
	}
}

func run(configPath string, duration time.Duration) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.LoadFile(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if cfg.Engine.FrameInterval == 0 {
		// headless: do not spin a core
		cfg.Engine.FrameInterval = time.Second / 120
	}

	app, cleanup, err := injector.InitializeApp(cfg)
	if err != nil {
		return err
	}
	defer cleanup()
	logger := app.Log

	d, err := buildDemo(app.Scene, cfg)
	if err != nil {
		return fmt.Errorf("build demo scene: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	if app.Inspector != nil {
		if err := app.Inspector.Start(ctx); err != nil {
			return err
		}
	}

	logger.Info("Scene running",
		log.Int("objects", app.Scene.Len()),
		log.Bool("threaded", cfg.Engine.Threaded),
		log.Duration("duration", duration),
	)
	if cfg.Engine.Threaded {
		err = app.Engine.RunThreaded(ctx)
	} else {
		err = app.Engine.Run(ctx)
	}
	if err != nil {
		return err
	}

	stats := app.Engine.Stats()
	logger.Info("Scene finished",
		log.Uint64("frames", stats.Frames),
		log.Uint64("fixed_ticks", stats.FixedTicks),
		log.Uint64("dropped_ticks", stats.DroppedTicks),
		log.Uint64("draws", d.drawer.draws.Load()),
		log.Float64("fps", stats.FPS),
	)
	for _, body := range d.bodies {
		logger.Info("Body at rest", log.String("id", body.ID().String()), log.Vec3("position", body.Transform().Position))
	}
	return nil
}
