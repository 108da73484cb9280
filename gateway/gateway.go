// Package gateway exposes the agent over a websocket chat surface. It
// is thin adaptation code: user identity arrives as a query parameter,
// frames carry text in and out, and everything interesting happens in
// the engine.
package gateway

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/verdantlabs/gardener/engine"
	"github.com/verdantlabs/gardener/tools"
)

// Frame is one client request over the websocket.
type Frame struct {
	// Type selects the operation: "chat" (default), "plants",
	// "reminders", or "clear".
	Type string `json:"type"`
	Text string `json:"text"`
}

// Reply is the server's response frame.
type Reply struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Server handles websocket chat connections.
type Server struct {
	agent    *engine.Agent
	tools    *tools.Dispatcher
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// New creates a gateway server.
func New(agent *engine.Agent, td *tools.Dispatcher, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		agent:  agent,
		tools:  td,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
}

// Handler returns the HTTP mux with the websocket and health endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return mux
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user")
	if userID == "" {
		http.Error(w, "missing user parameter", http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	s.logger.Info("client connected", zap.String("user", userID))

	for {
		var frame Frame
		if err := conn.ReadJSON(&frame); err != nil {
			s.logger.Info("client disconnected", zap.String("user", userID), zap.Error(err))
			return
		}

		reply := s.handleFrame(r, userID, frame)
		if err := conn.WriteJSON(reply); err != nil {
			s.logger.Warn("write failed", zap.String("user", userID), zap.Error(err))
			return
		}
	}
}

func (s *Server) handleFrame(r *http.Request, userID string, frame Frame) Reply {
	ctx := r.Context()

	switch frame.Type {
	case "plants":
		plants := s.agent.UserPlants(ctx, userID)
		if len(plants) == 0 {
			return Reply{Type: "plants", Text: "You haven't mentioned any plants yet. Tell me about your garden!"}
		}
		return Reply{Type: "plants", Text: "Your plants:\n" + strings.Join(plants, "\n")}

	case "reminders":
		return Reply{Type: "reminders", Text: s.reminderListing(userID)}

	case "clear":
		s.agent.ClearUser(ctx, userID)
		return Reply{Type: "clear", Text: "Your conversation history has been cleared."}

	default: // chat
		text := strings.TrimSpace(frame.Text)
		if text == "" {
			return Reply{Type: "reply", Text: "Hi! I'm your Garden Advisor. Ask me anything about plant care!"}
		}
		return Reply{Type: "reply", Text: s.agent.ProcessMessage(ctx, userID, text)}
	}
}

func (s *Server) reminderListing(userID string) string {
	reminders, err := s.tools.UserReminders(userID)
	if err != nil {
		s.logger.Error("failed to list reminders", zap.String("user", userID), zap.Error(err))
		return "Could not read your reminders right now."
	}

	var lines []string
	for _, rem := range reminders {
		if rem.Active {
			lines = append(lines, fmt.Sprintf("%d. %s", len(lines)+1, rem.Schedule))
		}
	}
	if len(lines) == 0 {
		return "You haven't set any reminders yet. Try: 'Remind me to water plants every 2 days'"
	}
	return "Your reminders:\n" + strings.Join(lines, "\n")
}
