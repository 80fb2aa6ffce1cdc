package handlers

import (
	"log"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/anshulg/speakersplit/internal/queue"
	"github.com/anshulg/speakersplit/internal/types"
)

// WsHandler streams job progress over a websocket.
type WsHandler struct {
	workerPool *queue.WorkerPool
}

// NewWsHandler creates a new websocket progress handler.
func NewWsHandler(workerPool *queue.WorkerPool) *WsHandler {
	return &WsHandler{
		workerPool: workerPool,
	}
}

// Handle pushes a job snapshot once per second until the job reaches a
// terminal status, then closes the connection.
func (h *WsHandler) Handle(c *websocket.Conn) {
	defer c.Close()

	jobID := c.Params("id")
	log.Printf("WebSocket progress stream opened for job %s", jobID)

	for {
		info, ok := h.workerPool.Snapshot(jobID)
		if !ok {
			c.WriteJSON(map[string]string{
				"error": "Job not found",
				"code":  "ERR_JOB_NOT_FOUND",
			})
			return
		}

		if err := c.WriteJSON(info); err != nil {
			log.Printf("WebSocket write error for job %s: %v", jobID, err)
			return
		}

		if info.Status == types.StatusCompleted || info.Status == types.StatusFailed {
			return
		}
		time.Sleep(time.Second)
	}
}
