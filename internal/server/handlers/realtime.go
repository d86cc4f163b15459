package handlers

import (
	"fmt"
	"net/http"

	"github.com/agentstation/modelcast/internal/server/response"
	"github.com/agentstation/modelcast/internal/server/sse"
	ws "github.com/agentstation/modelcast/internal/server/websocket"
	"github.com/agentstation/modelcast/pkg/logging"
)

func (h *Handlers) clientID(r *http.Request) string {
	return fmt.Sprintf("%s-%d", r.RemoteAddr, h.clients.Add(1))
}

// HandleWebSocket handles WebSocket connections at /model/ws.
// The first frame is the current catalog; every catalog change is pushed
// as a new frame holding the whole array.
// @Summary Catalog push over WebSocket
// @Tags models
// @Success 101 "Switching Protocols"
// @Router /model/ws [get].
func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	id := h.clientID(r)
	logger := logging.FromContext(logging.WithSubscriber(r.Context(), ws.Transport, id))

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error.
		logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := ws.NewClient(id, conn, h.queueSize, logger)
	go client.WritePump()

	handle, err := h.service.Subscribe(client)
	if err != nil {
		logger.Warn().Err(err).Msg("WebSocket subscribe failed")
		return
	}

	go client.ReadPump(func() { h.service.Unsubscribe(handle) })
}

// HandleSSE handles Server-Sent Events at /model/stream.
// @Summary Catalog push over Server-Sent Events
// @Tags models
// @Produce text/event-stream
// @Success 200 "Event stream"
// @Router /model/stream [get].
func (h *Handlers) HandleSSE(w http.ResponseWriter, r *http.Request) {
	id := h.clientID(r)
	logger := logging.FromContext(logging.WithSubscriber(r.Context(), sse.Transport, id))
	stream := sse.NewStream(id, h.queueSize, logger)

	handle, err := h.service.Subscribe(stream)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	defer h.service.Unsubscribe(handle)

	if err := stream.Serve(r.Context(), w); err != nil {
		logger.Debug().Err(err).Msg("SSE stream ended")
	}
}
