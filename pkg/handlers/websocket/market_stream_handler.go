package websocket

import (
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/sirupsen/logrus"
)

type StreamMessage struct {
	Type    string `json:"type"`
	Payload string `json:"payload,omitempty"`
	Time    string `json:"time"`
}

type marketStreamHandler struct {
	logger *logrus.Logger
}

func NewMarketStreamHandler(logger *logrus.Logger) Handler {
	return &marketStreamHandler{logger: logger}
}

// Handle greets the client and echoes every text frame back as a market
// update until the client goes away.
func (h *marketStreamHandler) Handle(c *websocket.Conn) {
	defer func() { _ = c.Close() }()

	if err := c.WriteJSON(StreamMessage{Type: "connected", Time: now()}); err != nil {
		h.logger.WithError(err).Debug("failed to greet websocket client")
		return
	}

	for {
		messageType, msg, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.WithError(err).Warn("market stream closed unexpectedly")
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		if err := c.WriteJSON(StreamMessage{Type: "update", Payload: string(msg), Time: now()}); err != nil {
			h.logger.WithError(err).Debug("failed to write market update")
			return
		}
	}
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
