package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/mudra/internal/wire"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // phones connect from the LAN page
	},
}

const writeWait = time.Second

// PhoneController receives requests from a paired phone.
type PhoneController interface {
	ControllerCode() string
	SubmitPhone(ctx context.Context, req wire.PhoneRequest) error
}

// PhoneHandler accepts the phone controller websocket at /api/phone. The
// phone must present the pairing code as ?code=.
type PhoneHandler struct {
	ctrl PhoneController
	log  *slog.Logger
}

// NewPhoneHandler creates a new PhoneHandler.
func NewPhoneHandler(ctrl PhoneController, log *slog.Logger) *PhoneHandler {
	return &PhoneHandler{ctrl: ctrl, log: log}
}

type phoneError struct {
	Error string `json:"error"`
}

// ServeHTTP rejects a wrong pairing code before upgrading, then forwards
// every decoded request. Malformed requests are answered with an error
// message and do not close the link.
func (h *PhoneHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("code") != h.ctrl.ControllerCode() {
		http.Error(w, "Invalid controller code", http.StatusForbidden)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("server: phone websocket upgrade", "error", err)
		return
	}
	defer conn.Close()

	h.log.Info("server: phone connected", "remote", r.RemoteAddr)
	defer h.log.Info("server: phone disconnected", "remote", r.RemoteAddr)

	ctx := r.Context()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		req, err := wire.DecodePhone(data)
		if err == nil {
			err = h.ctrl.SubmitPhone(ctx, req)
		}
		if err != nil {
			h.log.Debug("server: phone request rejected", "error", err)
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if werr := conn.WriteJSON(phoneError{Error: err.Error()}); werr != nil {
				return
			}
		}
	}
}
