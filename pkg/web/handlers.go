package web

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-posture/pkg/hub"
	"github.com/teslashibe/go-posture/pkg/notify"
	"github.com/teslashibe/go-posture/pkg/scheduler"
)

// handleHealth reports liveness and a few counters.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	resp := fiber.Map{
		"status":             "ok",
		"uptime_seconds":     int(time.Since(s.startedAt).Seconds()),
		"clients":            s.stateHub.ClientCount(),
		"sampling_available": s.inputs != nil,
	}
	if s.stats != nil {
		resp["runner"] = s.stats()
	}
	return c.JSON(resp)
}

// handleState returns the latest recognition, keypoints and analysis.
func (s *Server) handleState(c *fiber.Ctx) error {
	return c.JSON(s.dist.Snapshot())
}

func (s *Server) handleGetSettings(c *fiber.Ctx) error {
	return c.JSON(s.settings.Get())
}

// handlePutSettings applies a partial settings update.
func (s *Server) handlePutSettings(c *fiber.Ctx) error {
	var params map[string]interface{}
	if err := c.BodyParser(&params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
	}
	if err := s.settings.Update(params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(s.settings.Get())
}

// RouteRequest reports a UI navigation.
type RouteRequest struct {
	Route string `json:"route"`
}

func (s *Server) handleRoute(c *fiber.Ctx) error {
	var req RouteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
	}
	if !s.send(scheduler.RouteChanged(req.Route)) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "sampling unavailable"})
	}
	return c.JSON(fiber.Map{"route": req.Route})
}

// FocusRequest reports a window focus change.
type FocusRequest struct {
	Focused *bool `json:"focused"`
}

func (s *Server) handleFocus(c *fiber.Ctx) error {
	var req FocusRequest
	if err := c.BodyParser(&req); err != nil || req.Focused == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "focused (bool) is required"})
	}
	if !s.send(scheduler.FocusChanged(*req.Focused)) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "sampling unavailable"})
	}
	return c.JSON(fiber.Map{"focused": *req.Focused})
}

// PermissionRequest carries the user's answer to the permission prompt.
type PermissionRequest struct {
	Permission notify.Permission `json:"permission"`
}

func (s *Server) handleGetPermission(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"permission": s.notifier.Permission()})
}

func (s *Server) handleSetPermission(c *fiber.Ctx) error {
	var req PermissionRequest
	if err := c.BodyParser(&req); err != nil || !validPermission(req.Permission) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "permission must be default, granted or denied",
		})
	}
	s.notifier.SetPermission(req.Permission)
	s.logger.Info("notification permission", "permission", req.Permission)
	return c.JSON(fiber.Map{"permission": req.Permission})
}

// handleStateWS streams state updates and alerts, and accepts focus, route
// and permission reports.
func (s *Server) handleStateWS(c *websocket.Conn) {
	client := hub.NewClient(s.stateHub, c)
	if client == nil {
		c.Close()
		return
	}
	client.Run()
}
