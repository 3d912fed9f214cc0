package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"appforge/internal/domain"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Browsers reach this endpoint cross-origin from hosted frontends;
	// identity comes from the auth middleware, not the Origin header.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const wsWriteWait = 10 * time.Second

// GenerationsStreamWS relays the same progress events as the SSE endpoint
// over a websocket, for clients behind proxies that buffer event streams.
func (a *App) GenerationsStreamWS(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")

	sub := a.Events.Subscribe(jobID)
	record, err := a.Records.Get(r.Context(), jobID)
	if err != nil {
		sub.Unsubscribe()
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "no such generation")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to load generation")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		sub.Unsubscribe()
		return
	}
	defer func() {
		sub.Unsubscribe()
		_ = conn.Close()
	}()

	if a.Metrics != nil {
		a.Metrics.StreamClients.Inc()
		defer a.Metrics.StreamClients.Dec()
	}

	// Reads are discarded; the pump exists to notice the peer going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if record.Status.Terminal() {
		a.wsSend(conn, terminalEventFromRecord(record))
		a.wsClose(conn)
		return
	}

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case event, open := <-sub.Events:
			if !open {
				if rec, err := a.Records.Get(r.Context(), jobID); err == nil && rec.Status.Terminal() {
					a.wsSend(conn, terminalEventFromRecord(rec))
				}
				a.wsClose(conn)
				return
			}
			if !a.wsSend(conn, event) {
				return
			}
			if event.Terminal() {
				a.wsClose(conn)
				return
			}
		}
	}
}

func (a *App) wsSend(conn *websocket.Conn, event domain.ProgressEvent) bool {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := conn.WriteJSON(event); err != nil {
		return false
	}
	return true
}

func (a *App) wsClose(conn *websocket.Conn) {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "stream complete"))
}
