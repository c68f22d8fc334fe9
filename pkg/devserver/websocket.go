package devserver

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/lecternhq/lectern/pkg/protocol"
	"github.com/lecternhq/lectern/pkg/telemetry"
)

type reply struct {
	Type     string `json:"type,omitempty"`
	Status   string `json:"status,omitempty"`
	Message  string `json:"message,omitempty"`
	Content  string `json:"content,omitempty"`
	Filename string `json:"filename,omitempty"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		s.logger.Error("websocket accept failed", slog.String("err", err.Error()))
		return
	}
	defer conn.CloseNow()

	sessionID := uuid.NewString()
	s.logger.Info("client connected", slog.String("session_id", sessionID))
	telemetry.Metrics.ActiveConnections.Inc()
	defer telemetry.Metrics.ActiveConnections.Dec()

	ctx := r.Context()

	wsjson.Write(ctx, conn, reply{
		Type:    "welcome",
		Content: "Hello! I'm your teaching assistant. Pick a mode and ask away.",
	})

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if status := websocket.CloseStatus(err); status == websocket.StatusNormalClosure ||
				status == websocket.StatusGoingAway {
				s.logger.Info("client disconnected", slog.String("session_id", sessionID))
			} else {
				s.logger.Warn("websocket read error", slog.String("err", err.Error()))
			}
			return
		}

		start := time.Now()
		kind, resp := s.respond(data)
		wsjson.Write(ctx, conn, resp)

		telemetry.Metrics.RequestsTotal.WithLabelValues(kind, resp.Status).Inc()
		telemetry.Metrics.RequestDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	}
}

// respond maps one inbound envelope to one canned reply, mirroring the
// production backend's observable behavior.
func (s *Server) respond(data []byte) (string, reply) {
	var env protocol.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "invalid", reply{Status: "error", Message: "invalid message format"}
	}

	if env.FileData != nil {
		name := ""
		if env.Filename != nil {
			name = *env.Filename
		}
		return "file", reply{Status: "success", Type: "file", Filename: name}
	}

	if env.Text == "" {
		return "empty", reply{Status: "error", Message: "empty message"}
	}

	return "text", reply{
		Status:  "success",
		Message: fmt.Sprintf("Let me think about %q. (dev server echo)", env.Text),
	}
}
