package realtime

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/marviero/backoffice/internal/auth"
	"github.com/marviero/backoffice/internal/domain"
)

// helloTimeout bounds how long a connection may sit between the upgrade and
// its hello frame.
const helloTimeout = 10 * time.Second

// Handler upgrades HTTP requests into gated realtime connections.
type Handler struct {
	hub      *Hub
	gate     *Gate
	upgrader websocket.Upgrader
	log      *slog.Logger
}

// NewHandler creates the websocket handler. allowedOrigin is the single
// frontend origin connections may come from; empty allows same-origin only.
func NewHandler(hub *Hub, gate *Gate, allowedOrigin string, log *slog.Logger) *Handler {
	return &Handler{
		hub:  hub,
		gate: gate,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				return allowedOrigin != "" && origin == allowedOrigin
			},
		},
		log: log,
	}
}

// ServeDefault handles GET /ws.
func (h *Handler) ServeDefault(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, false)
}

// ServePrivate handles GET /ws-private, the staff-only endpoint.
func (h *Handler) ServePrivate(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, true)
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, private bool) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		h.log.Debug("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	hello, err := readHello(conn)
	if err != nil {
		h.rejectConn(conn, MsgAuthRequired)
		return
	}

	hs := auth.Handshake{
		AuthToken:        hello.Token,
		QueryToken:       r.URL.Query().Get("token"),
		Request:          r,
		DefaultNamespace: !private,
	}

	identity, gateErr := h.gate.Authenticate(r.Context(), hs, private)
	if gateErr != nil {
		h.log.Info("connection rejected",
			slog.String("reason", gateErr.Message),
			slog.Bool("private", private),
			slog.String("remote", r.RemoteAddr),
		)
		h.rejectConn(conn, gateErr.Message)
		return
	}

	client := &Client{
		id:       uuid.New().String(),
		hub:      h.hub,
		conn:     conn,
		identity: identity,
		send:     make(chan []byte, sendBufferSize),
		log:      h.log,
	}
	h.hub.register(client)

	welcome, _ := json.Marshal(welcomeFrame(client.id, domain.Now().Format(time.RFC3339Nano)))
	client.send <- welcome

	h.log.Info("connection established",
		slog.String("socket_id", client.id),
		slog.String("user_id", identity.ID),
		slog.Bool("private", private),
	)

	go client.writePump()
	go client.readPump()
}

// readHello waits for the client's hello frame. Any other frame type, a
// malformed payload, or silence past the deadline fails the handshake.
func readHello(conn *websocket.Conn) (Frame, error) {
	_ = conn.SetReadDeadline(time.Now().Add(helloTimeout))
	defer func() { _ = conn.SetReadDeadline(time.Time{}) }()

	var frame Frame
	if err := conn.ReadJSON(&frame); err != nil {
		return Frame{}, err
	}
	if frame.Type != FrameHello {
		return Frame{}, errNotHello
	}
	return frame, nil
}

var errNotHello = &GateError{Message: MsgAuthRequired}

// rejectConn delivers a connect_error frame and closes the connection. The
// client is never registered in the hub.
func (h *Handler) rejectConn(conn *websocket.Conn, message string) {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteJSON(connectErrorFrame(message))
	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, message),
		time.Now().Add(writeWait),
	)
	_ = conn.Close()
}
