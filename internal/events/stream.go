package events

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/unitledger/inventory-backend/internal/auth"
	"github.com/unitledger/inventory-backend/internal/logging"
)

const defaultKeepAlive = 15 * time.Second

// StreamHandler serves the live event channel over Server-Sent Events.
type StreamHandler struct {
	client    *redis.Client
	keepAlive time.Duration
}

func NewStreamHandler(client *redis.Client) *StreamHandler {
	return &StreamHandler{client: client, keepAlive: defaultKeepAlive}
}

// Register mounts the stream endpoint.
func (h *StreamHandler) Register(rg gin.IRoutes) {
	rg.GET("/events", h.Stream)
}

// Stream subscribes the caller to its connection and user channels and
// relays every message until the client goes away. The first frame is a
// "connected" event carrying the socketId uploads should reference.
func (h *StreamHandler) Stream(c *gin.Context) {
	principal, ok := auth.PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "user not authenticated"})
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "streaming unsupported"})
		return
	}

	ctx := c.Request.Context()
	logger := logging.NewLogger(ctx)
	connID := uuid.NewString()

	channels := []string{
		ConnectionChannel(connID),
		UserChannel(principal.UserID),
	}

	pubsub, err := h.subscribe(ctx, channels)
	if err != nil {
		logger.LogError("events_subscribe", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "failed to open event stream"})
		return
	}
	defer pubsub.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	hello, _ := json.Marshal(Event{
		Type:      TypeConnected,
		Data:      Connected{SocketID: connID, UserID: principal.UserID},
		Timestamp: time.Now().UTC(),
	})
	writeFrame(c, TypeConnected, hello)
	flusher.Flush()

	logger.LogInfof("events_stream", "client connected socket=%s user=%d", connID, principal.UserID)
	defer logger.LogInfof("events_stream", "client disconnected socket=%s", connID)

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	msgs := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			fmt.Fprint(c.Writer, ": keep-alive\n\n")
			flusher.Flush()

		case msg, ok := <-msgs:
			if !ok {
				return
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				logger.LogWarnf("events_stream", "dropping malformed event on %s: %v", msg.Channel, err)
				continue
			}
			writeFrame(c, ev.Type, []byte(msg.Payload))
			flusher.Flush()
		}
	}
}

// subscribe waits for every subscription to be confirmed so that events
// published right after the "connected" frame are not lost.
func (h *StreamHandler) subscribe(ctx context.Context, channels []string) (*redis.PubSub, error) {
	pubsub := h.client.Subscribe(ctx, channels...)
	for range channels {
		if _, err := pubsub.Receive(ctx); err != nil {
			pubsub.Close()
			return nil, fmt.Errorf("failed to subscribe: %w", err)
		}
	}
	return pubsub, nil
}

func writeFrame(c *gin.Context, typ Type, data []byte) {
	fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", typ, data)
}
