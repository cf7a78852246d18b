package web

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-readbuddy/pkg/layout"
	"github.com/teslashibe/go-readbuddy/pkg/metrics"
	"github.com/teslashibe/go-readbuddy/pkg/session"
)

// StatusResponse is returned by GET /api/status.
type StatusResponse struct {
	Session       session.Status `json:"session"`
	LayoutVersion uint64         `json:"layout_version"`
	LayoutWords   int            `json:"layout_words"`
	Viewers       int            `json:"viewers"`
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	snap := s.index.Snapshot()
	return c.JSON(StatusResponse{
		Session:       s.controller.Status(),
		LayoutVersion: snap.Version,
		LayoutWords:   len(snap.Regions),
		Viewers:       s.gazeHub.ClientCount(),
	})
}

// errorStatus maps controller errors onto HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, session.ErrAlreadyActive), errors.Is(err, session.ErrNotActive):
		return fiber.StatusConflict
	case errors.Is(err, session.ErrTrackingUnavailable):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, session.ErrStopFailure):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func (s *Server) handleStart(c *fiber.Ctx) error {
	if err := s.controller.Start(c.UserContext()); err != nil {
		return c.Status(errorStatus(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(s.controller.Status())
}

func (s *Server) handleStop(c *fiber.Ctx) error {
	summary, err := s.controller.Stop(c.UserContext())
	if err != nil {
		resp := fiber.Map{"error": err.Error()}
		// The session still ended locally; hand back what was collected
		if errors.Is(err, session.ErrStopFailure) {
			resp["summary"] = summary
		}
		return c.Status(errorStatus(err)).JSON(resp)
	}
	return c.JSON(summary)
}

func (s *Server) handleToggle(c *fiber.Ctx) error {
	if err := s.controller.Toggle(c.UserContext()); err != nil {
		resp := fiber.Map{"error": err.Error()}
		if errors.Is(err, session.ErrStopFailure) {
			resp["summary"] = s.controller.Summary()
		}
		return c.Status(errorStatus(err)).JSON(resp)
	}
	return c.JSON(s.controller.Status())
}

func (s *Server) handleSummary(c *fiber.Ctx) error {
	return c.JSON(s.controller.Summary())
}

func (s *Server) handleLive(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"state":      s.controller.State(),
		"session_id": s.controller.SessionID(),
		"top_words":  s.controller.Live(),
	})
}

func (s *Server) handleGetLayout(c *fiber.Ctx) error {
	return c.JSON(s.index.Snapshot())
}

// handlePutLayout publishes the segment now, or after the "settle" query
// duration (e.g. ?settle=300ms) so the page can finish reflowing first.
func (s *Server) handlePutLayout(c *fiber.Ctx) error {
	var seg layout.Segment
	if err := c.BodyParser(&seg); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid segment: " + err.Error(),
		})
	}

	if q := c.Query("settle"); q != "" {
		settle, err := time.ParseDuration(q)
		if err != nil || settle < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid settle duration: " + q,
			})
		}
		if err := seg.Validate(); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		done := s.index.PublishAfter(s.ctx, seg, settle)
		go func() {
			if err := <-done; err == nil {
				s.layoutPublished(s.index.Snapshot())
			}
		}()
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"settle_ms": settle.Milliseconds(),
		})
	}

	snap, err := s.index.Publish(seg)
	if err != nil {
		status := fiber.StatusInternalServerError
		if errors.Is(err, layout.ErrInvalidSegment) {
			status = fiber.StatusBadRequest
		}
		return c.Status(status).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	s.layoutPublished(snap)
	return c.JSON(snap)
}

func (s *Server) handleClearLayout(c *fiber.Ctx) error {
	s.index.Clear()
	s.layoutPublished(s.index.Snapshot())
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) layoutPublished(snap *layout.Snapshot) {
	metrics.RecordLayoutPublish()
	s.logger.Debug("layout published", "version", snap.Version, "words", len(snap.Regions))
	s.broadcastLayout(snap)
}
