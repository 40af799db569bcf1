package rooms

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"relaychat/internal/domain"
	"relaychat/internal/infrastructure/json"
	"relaychat/internal/infrastructure/registry"
	"relaychat/internal/infrastructure/ws"
)

type Handler struct {
	registry *registry.Registry
	core     *ws.Core
	upgrader websocket.Upgrader
	logger   *zap.SugaredLogger
}

func NewHandler(reg *registry.Registry, core *ws.Core, allowedOrigins []string, logger *zap.SugaredLogger) *Handler {
	return &Handler{
		registry: reg,
		core:     core,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger,
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	allowAll := false
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		if origin == "*" {
			allowAll = true
		}
		set[origin] = struct{}{}
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || allowAll {
			return true
		}

		_, ok := set[origin]
		return ok
	}
}

// CreateRoomHandler allocates a fresh room and returns the session descriptor
// the client needs to open its channel.
func (h *Handler) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	sess, err := h.core.ValidateCreate(req.Name)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrMissingName):
			json.WriteValidationError(w, err)
		default:
			json.WriteInternalError(w, err)
		}
		return
	}

	h.logger.Infow("room created", "room", sess.Room, "name", sess.Name)

	json.Write(w, http.StatusCreated, sessionResponse{Room: sess.Room, Name: sess.Name})
}

// JoinRoomHandler validates a (name, code) pair against the live rooms.
func (h *Handler) JoinRoomHandler(w http.ResponseWriter, r *http.Request) {
	var req joinRoomRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	sess, err := h.core.ValidateJoin(req.Name, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrMissingName), errors.Is(err, domain.ErrMissingCode):
			json.WriteValidationError(w, err)
		case errors.Is(err, domain.ErrRoomNotFound):
			json.WriteNotFoundError(w, err)
		default:
			json.WriteInternalError(w, err)
		}
		return
	}

	json.Write(w, http.StatusOK, sessionResponse{Room: sess.Room, Name: sess.Name})
}

// GetRoomHandler returns the room's member count and message history, used to
// render the room on entry.
func (h *Handler) GetRoomHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	room, err := h.registry.GetRoom(code)
	if err != nil {
		json.WriteNotFoundError(w, err)
		return
	}

	resp := roomResponse{
		Code:     room.Code,
		Members:  room.Members,
		Messages: make([]messageResponse, 0, len(room.Messages)),
	}
	for _, msg := range room.Messages {
		resp.Messages = append(resp.Messages, messageResponse{
			Author: msg.Author,
			Text:   msg.Text,
			SentAt: msg.SentAt,
		})
	}

	json.Write(w, http.StatusOK, resp)
}

// ServeWSHandler upgrades the connection and attaches it to the session's
// room. Validation happens before the upgrade, so a client without a valid
// session is never joined.
func (h *Handler) ServeWSHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	name := r.URL.Query().Get("name")

	sess, err := h.core.ValidateJoin(name, code)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRoomNotFound):
			json.WriteNotFoundError(w, err)
		default:
			json.WriteValidationError(w, err)
		}
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warnw("websocket upgrade failed", "room", code, "error", err)
		return
	}

	client := ws.NewClient(ws.NewConn(conn), sess, r.RemoteAddr)
	h.core.Register(client)

	go client.WritePump()
	go client.ReadPump(h.core)
}
