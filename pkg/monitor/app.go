package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/teslashibe/go-posture/internal/log"
	"github.com/teslashibe/go-posture/pkg/camera"
	"github.com/teslashibe/go-posture/pkg/inference"
	"github.com/teslashibe/go-posture/pkg/mqtt"
	"github.com/teslashibe/go-posture/pkg/notify"
	"github.com/teslashibe/go-posture/pkg/pipeline"
	"github.com/teslashibe/go-posture/pkg/posture"
	"github.com/teslashibe/go-posture/pkg/scheduler"
	"github.com/teslashibe/go-posture/pkg/settings"
	"github.com/teslashibe/go-posture/pkg/state"
	"github.com/teslashibe/go-posture/pkg/web"
)

// App is the posture monitor. It manages all components and their lifecycle.
type App struct {
	config Config
	logger *slog.Logger

	settings *settings.Manager
	dist     *state.Distributor

	adapter  *inference.Adapter
	source   camera.Source
	pipeline *pipeline.Pipeline
	runner   *pipeline.Runner

	webServer  *web.Server
	mqttClient *mqtt.Client

	wg sync.WaitGroup
}

// New creates the monitor.
func New(cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &App{
		config: cfg,
		logger: log.With("component", "monitor"),
	}, nil
}

// Init builds every component. A model that fails to load is not fatal to the
// process: the web surface still runs and reports the persistent error, but
// sampling stays unavailable.
func (a *App) Init() error {
	a.settings = settings.NewManager(a.config.Settings)
	a.dist = state.NewDistributor()

	model, path, err := inference.LoadNet(a.config.ModelPaths)
	if err != nil {
		a.logger.Error("model unavailable, sampling disabled", "error", err)
		a.dist.PublishError(&pipeline.SetupError{Stage: "model", Err: err})
	} else {
		a.logger.Info("model loaded", "path", path)
		a.adapter = inference.NewAdapter(model)
	}

	a.connectMQTT()

	// The web server must exist before the runner: it owns the UI notifier.
	webCfg := web.Config{
		Port:        a.config.HTTPPort,
		StaticDir:   a.config.StaticDir,
		Settings:    a.settings,
		Distributor: a.dist,
	}
	if a.adapter != nil {
		a.initSampling()
		webCfg.Inputs = a.runner
		webCfg.RunnerStats = func() any { return a.runner.Stats() }
	}
	a.webServer = web.NewServer(webCfg)
	if a.pipeline != nil {
		a.attachNotifiers()
	}
	return nil
}

// initSampling builds the capture source, pipeline and runner.
func (a *App) initSampling() {
	if len(a.config.Images) > 0 {
		a.source = camera.NewStill(a.config.Images...)
	} else {
		// Config was validated in New.
		a.source, _ = camera.NewDevice(a.config.Camera)
	}

	a.pipeline = pipeline.New(a.source, a.adapter, nil, a.dist)

	machine := scheduler.NewMachine(a.config.StretchingRoute, a.config.Settings.Interval())
	a.runner = pipeline.NewRunner(a.pipeline, machine, func() posture.Checks {
		return a.settings.Get().Checks()
	})
	a.runner.OnSetupError = func(err error) {
		if err := a.settings.Update(map[string]interface{}{"enabled": false}); err != nil {
			a.logger.Warn("could not disable sampling", "error", err)
		}
	}

	a.settings.OnChange = func(prev, next settings.Settings) {
		if prev.Enabled != next.Enabled {
			a.runner.Send(scheduler.Toggle(next.Enabled))
		}
		if prev.SampleIntervalMs != next.SampleIntervalMs {
			a.runner.Send(scheduler.IntervalSelected(next.Interval()))
		}
	}
}

// attachNotifiers gives the pipeline its throttled alert path: connected UIs,
// plus the broker when MQTT is on.
func (a *App) attachNotifiers() {
	notifiers := notify.Multi{a.webServer.Notifier()}
	if a.mqttClient != nil {
		notifiers = append(notifiers, mqtt.NewAlertNotifier(a.mqttClient, a.config.MQTTPrefix))
	}

	var opts []notify.ThrottleOption
	if a.config.AlertCooldown > 0 {
		opts = append(opts, notify.WithCooldown(a.config.AlertCooldown))
	}
	a.pipeline.SetThrottle(notify.NewThrottle(notifiers, opts...))
}

func (a *App) connectMQTT() {
	if a.config.MQTT.Broker == "" {
		return
	}
	client, err := mqtt.NewClient(a.config.MQTT)
	if err != nil {
		a.logger.Warn("mqtt disabled", "error", err)
		return
	}
	a.mqttClient = client
}

// Run starts every component and blocks until ctx is done. On return the
// runner has stopped and released the capture source.
func (a *App) Run(ctx context.Context) error {
	a.webServer.StartAsync(ctx)

	if a.mqttClient != nil {
		_, updates, cancel := a.dist.Subscribe(state.DefaultBuffer)
		defer cancel()
		sink := mqtt.NewStateSink(a.mqttClient, a.config.MQTTPrefix)
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			sink.Run(ctx, updates)
		}()

		if a.runner != nil {
			if err := mqtt.SubscribeControl(a.mqttClient, a.config.MQTTPrefix, a.runner.Send); err != nil {
				a.logger.Warn("mqtt control unavailable", "error", err)
			}
		}
	}

	if a.runner != nil {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.runner.Run(ctx)
		}()
		if a.settings.Get().Enabled {
			a.runner.Send(scheduler.Toggle(true))
		}
	}

	a.logger.Info("posture monitor running", "port", a.config.HTTPPort, "sampling", a.runner != nil)

	<-ctx.Done()
	a.wg.Wait()
	return nil
}

// Shutdown stops the remaining components. Call after Run returns.
func (a *App) Shutdown() {
	if a.webServer != nil {
		if err := a.webServer.Shutdown(); err != nil {
			a.logger.Warn("web shutdown", "error", err)
		}
	}
	if a.mqttClient != nil {
		a.mqttClient.Close()
	}
	if a.adapter != nil {
		a.adapter.Close()
	}
	if a.dist != nil {
		a.dist.Close()
	}
	a.logger.Info("posture monitor stopped")
}
