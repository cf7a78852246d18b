package web

import (
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-readbuddy/pkg/gaze"
	"github.com/teslashibe/go-readbuddy/pkg/hub"
	"github.com/teslashibe/go-readbuddy/pkg/layout"
	"github.com/teslashibe/go-readbuddy/pkg/protocol"
	"github.com/teslashibe/go-readbuddy/pkg/session"
)

// OnStateChange implements session.Listener.
func (s *Server) OnStateChange(state session.State, sessionID string) {
	msg, err := protocol.NewStateMessage(state.String(), sessionID)
	s.broadcast(s.statusHub, msg, err)
}

// OnSample implements session.Listener.
func (s *Server) OnSample(sample gaze.Sample, word string) {
	msg, err := protocol.NewGazeMessage(sample.X, sample.Y, word, sample.HasFrame())
	s.broadcast(s.gazeHub, msg, err)
	if sample.HasFrame() {
		s.cameraHub.BroadcastBinary(sample.Frame)
	}
}

// OnSummary implements session.Listener.
func (s *Server) OnSummary(summary session.Summary) {
	msg, err := protocol.NewSummaryMessage(summary)
	s.broadcast(s.statusHub, msg, err)
}

func (s *Server) broadcastLayout(snap *layout.Snapshot) {
	msg, err := protocol.NewLayoutMessage(snap.Version, len(snap.Regions))
	s.broadcast(s.statusHub, msg, err)
}

func (s *Server) broadcast(h *hub.Hub, msg *protocol.Message, err error) {
	if err != nil {
		s.logger.Error("encode message failed", "hub", h.Name(), "error", err)
		return
	}
	data, err := msg.Bytes()
	if err != nil {
		s.logger.Error("encode message failed", "hub", h.Name(), "error", err)
		return
	}
	h.Broadcast(hub.Text(data))
}

func (s *Server) handleGazeWS(conn *websocket.Conn) {
	hub.NewClient(s.gazeHub, conn).Serve(s.ctx, nil)
}

func (s *Server) handleCameraWS(conn *websocket.Conn) {
	hub.NewClient(s.cameraHub, conn).Serve(s.ctx, nil)
}

// handleStatusWS greets new clients with the current state so they don't
// wait for the next transition.
func (s *Server) handleStatusWS(conn *websocket.Conn) {
	var greeting *hub.Frame
	msg, err := protocol.NewStateMessage(s.controller.State().String(), s.controller.SessionID())
	if err == nil {
		if data, err := msg.Bytes(); err == nil {
			m := hub.Text(data)
			greeting = &m
		}
	}
	hub.NewClient(s.statusHub, conn).Serve(s.ctx, greeting)
}
