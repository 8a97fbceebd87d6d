// Package web serves the posture monitor's HTTP and websocket surface: state,
// settings, UI route and focus reports, and notification permission.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-posture/internal/log"
	"github.com/teslashibe/go-posture/pkg/hub"
	"github.com/teslashibe/go-posture/pkg/notify"
	"github.com/teslashibe/go-posture/pkg/scheduler"
	"github.com/teslashibe/go-posture/pkg/settings"
	"github.com/teslashibe/go-posture/pkg/state"
)

// Inputs receives scheduler events reported by the UI.
type Inputs interface {
	Send(ev scheduler.Event)
}

// Message types pushed on /ws/state.
const (
	MessageSnapshot = "snapshot"
	MessageState    = "state"
)

// Push is a websocket message to UI clients.
type Push struct {
	Type   string          `json:"type"`
	State  *state.Snapshot `json:"state,omitempty"`
	Update *state.Update   `json:"update,omitempty"`
}

// Config configures a Server.
type Config struct {
	Port      string
	StaticDir string // optional UI bundle

	Settings    *settings.Manager
	Distributor *state.Distributor
	Inputs      Inputs     // nil when sampling is unavailable
	RunnerStats func() any // optional, reported by /api/health
}

// Server is the HTTP and websocket server.
type Server struct {
	app  *fiber.App
	port string

	settings *settings.Manager
	dist     *state.Distributor
	inputs   Inputs
	stats    func() any

	stateHub *hub.Hub
	notifier *notify.HubNotifier

	startedAt time.Time
	logger    *slog.Logger
}

// NewServer creates the server and its routes.
func NewServer(cfg Config) *Server {
	s := &Server{
		port:      cfg.Port,
		settings:  cfg.Settings,
		dist:      cfg.Distributor,
		inputs:    cfg.Inputs,
		stats:     cfg.RunnerStats,
		stateHub:  hub.New("state"),
		startedAt: time.Now(),
		logger:    log.With("component", "web"),
	}
	s.notifier = notify.NewHubNotifier(s.stateHub)
	s.stateHub.OnConnect = s.snapshotMessage
	s.stateHub.OnMessage = s.handleClientMessage

	app := fiber.New(fiber.Config{
		AppName:               "go-posture",
		DisableStartupMessage: true,
	})

	// CORS for the desktop shell and local development
	app.Use(cors.New())

	if cfg.StaticDir != "" {
		app.Static("/", cfg.StaticDir)
	}

	api := app.Group("/api")
	api.Get("/health", s.handleHealth)
	api.Get("/state", s.handleState)
	api.Get("/settings", s.handleGetSettings)
	api.Put("/settings", s.handlePutSettings)
	api.Post("/route", s.handleRoute)
	api.Post("/focus", s.handleFocus)
	api.Get("/notifications/permission", s.handleGetPermission)
	api.Post("/notifications/permission", s.handleSetPermission)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/state", websocket.New(s.handleStateWS))

	s.app = app
	return s
}

// App returns the fiber app, for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Notifier returns the notifier that shows alerts through connected UIs.
func (s *Server) Notifier() *notify.HubNotifier {
	return s.notifier
}

// Hub returns the state hub.
func (s *Server) Hub() *hub.Hub {
	return s.stateHub
}

// Start starts the hub and state forwarding, then listens on the configured
// port until Shutdown.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", ":"+s.port)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go s.stateHub.Run(ctx)
	go s.forward(ctx)

	s.logger.Info("listening", "addr", ln.Addr().String())
	return s.app.Listener(ln)
}

// StartAsync starts the server in a goroutine.
func (s *Server) StartAsync(ctx context.Context) {
	go func() {
		if err := s.Start(ctx); err != nil {
			s.logger.Error("server stopped", "error", err)
		}
	}()
}

// forward pushes every distributor update to websocket clients.
func (s *Server) forward(ctx context.Context) {
	_, updates, cancel := s.dist.Subscribe(state.DefaultBuffer)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			if err := s.stateHub.BroadcastJSON(Push{Type: MessageState, Update: &u}); err != nil {
				s.logger.Warn("encode update failed", "error", err)
			}
		}
	}
}

func (s *Server) snapshotMessage() (hub.Message, bool) {
	snap := s.dist.Snapshot()
	msg, err := hub.Encode(Push{Type: MessageSnapshot, State: &snap})
	if err != nil {
		return hub.Message{}, false
	}
	return msg, true
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// clientMessage is what UI windows send on /ws/state.
type clientMessage struct {
	Type       string            `json:"type"` // focus, route, permission
	Focused    bool              `json:"focused"`
	Route      string            `json:"route"`
	Permission notify.Permission `json:"permission"`
}

func (s *Server) handleClientMessage(data []byte) {
	var msg clientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.logger.Debug("ignoring malformed client message", "error", err)
		return
	}

	switch msg.Type {
	case "focus":
		s.send(scheduler.FocusChanged(msg.Focused))
	case "route":
		s.send(scheduler.RouteChanged(msg.Route))
	case "permission":
		if validPermission(msg.Permission) {
			s.notifier.SetPermission(msg.Permission)
		}
	default:
		s.logger.Debug("ignoring client message", "type", msg.Type)
	}
}

func (s *Server) send(ev scheduler.Event) bool {
	if s.inputs == nil {
		return false
	}
	s.inputs.Send(ev)
	return true
}

func validPermission(p notify.Permission) bool {
	switch p {
	case notify.PermissionDefault, notify.PermissionGranted, notify.PermissionDenied:
		return true
	}
	return false
}
