package realtime

import (
	"net/http"
	"slices"

	apperrors "bookfast/pkg/errors"
	httputil "bookfast/pkg/http"
	"bookfast/pkg/logger"
	"bookfast/pkg/middleware"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

type Handler struct {
	gateway  *Gateway
	upgrader websocket.Upgrader
	log      *logger.Logger
}

func NewHandler(gateway *Gateway, allowedOrigins []string, log *logger.Logger) *Handler {
	return &Handler{
		gateway: gateway,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				return slices.Contains(allowedOrigins, origin)
			},
		},
		log: log,
	}
}

func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		if err := httputil.WriteError(w, apperrors.Unauthorized("authentication required")); err != nil {
			h.log.Error("failed to write error response", "handler", "ServeWS", "operation", "WriteError", "error", err)
		}
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("Websocket upgrade failed", "error", err, "remote_addr", r.RemoteAddr)
		return
	}

	client := NewClient(conn, h.gateway, actor, h.log)
	h.log.Info("Websocket connected", "connection_id", client.ID(), "user_id", actor.UserID)
	go client.Run()
}

func (h *Handler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/ws", h.ServeWS)
}
