package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aryan0dhankhar/tenantcms/internal/domain"
	"github.com/aryan0dhankhar/tenantcms/internal/events"
	"github.com/aryan0dhankhar/tenantcms/internal/security/middleware"
)

const (
	pingInterval = 15 * time.Second
	writeWait    = 5 * time.Second
)

// Subscriber hands out organization-scoped event streams. *events.Hub implements it.
type Subscriber interface {
	Subscribe(orgID string) (<-chan events.Event, func())
}

// EventsHandler streams change events over a WebSocket.
type EventsHandler struct {
	hub            Subscriber
	fail           middleware.ErrorResponder
	logger         *slog.Logger
	allowedOrigins []string
}

func NewEventsHandler(hub Subscriber, allowedOrigins []string, fail middleware.ErrorResponder, logger *slog.Logger) *EventsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventsHandler{hub: hub, fail: fail, logger: logger, allowedOrigins: allowedOrigins}
}

func (h *EventsHandler) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			// Non-browser clients send no origin.
			if origin == "" || middleware.OriginAllowed(h.allowedOrigins, origin) {
				return true
			}
			h.logger.Warn("websocket origin rejected", slog.String("origin", origin))
			return false
		},
	}
}

// ServeHTTP handles GET /api/events. An OWNER receives every organization's events.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	upgrader := h.upgrader()
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer ws.Close()

	scope := p.OrganizationID
	if p.Role == domain.RoleOwner {
		scope = ""
	}
	stream, cancel := h.hub.Subscribe(scope)
	defer cancel()

	logger := h.logger.With(
		slog.String("user_id", p.UserID),
		slog.String("organization_id", p.OrganizationID),
	)
	logger.Debug("event stream opened")

	// The read loop only exists to process control frames and notice the
	// client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-closed:
			logger.Debug("event stream closed by client")
			return
		case <-ticker.C:
			if err := ws.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeWait)); err != nil {
				return
			}
		case e, ok := <-stream:
			if !ok {
				return
			}
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteJSON(e); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					logger.Debug("websocket closed", slog.String("error", err.Error()))
				}
				return
			}
		}
	}
}
