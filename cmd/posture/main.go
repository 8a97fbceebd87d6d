// go-posture - watches your posture through the webcam and nudges you when
// you slouch.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/teslashibe/go-posture/internal/config"
	"github.com/teslashibe/go-posture/internal/log"
	"github.com/teslashibe/go-posture/pkg/camera"
	"github.com/teslashibe/go-posture/pkg/monitor"
)

func main() {
	env := config.Load()

	logLevel := flag.String("log-level", env.LogLevel, "Log level: debug, info, warn, error")
	images := flag.String("image", "", "Comma separated image files: analyze once, print JSON and exit")
	replay := flag.Bool("replay", false, "With -image, serve the images as a looping camera instead of exiting")
	enable := flag.Bool("enable", env.StartEnabled, "Start with sampling enabled")
	preset := flag.String("camera-preset", "", "Camera resolution preset: "+strings.Join(camera.PresetNames(), ", "))
	port := flag.String("port", env.HTTPPort, "HTTP port")
	flag.Parse()

	log.Init(*logLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var paths []string
	if *images != "" {
		paths = strings.Split(*images, ",")
	}

	if len(paths) > 0 && !*replay {
		results, err := monitor.AnalyzeImages(ctx, env.ModelPaths, paths)
		if err != nil {
			log.Error("analysis failed", "error", err)
			os.Exit(1)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			log.Error("encode results", "error", err)
			os.Exit(1)
		}
		return
	}

	cfg := monitor.FromEnv(env)
	cfg.Settings.Enabled = *enable
	cfg.HTTPPort = *port
	cfg.Images = paths
	if *preset != "" {
		p := camera.GetPreset(*preset)
		if p == nil {
			log.Error("unknown camera preset", "preset", *preset)
			os.Exit(2)
		}
		p.Device = cfg.Camera.Device
		cfg.Camera = *p
	}

	app, err := monitor.New(cfg)
	if err != nil {
		log.Error("configuration error", "error", err)
		os.Exit(2)
	}
	if err := app.Init(); err != nil {
		log.Error("initialization failed", "error", err)
		os.Exit(1)
	}
	defer app.Shutdown()

	if err := app.Run(ctx); err != nil {
		log.Error("runtime error", "error", err)
	}
}
