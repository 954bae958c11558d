package live

import (
	"crypto/subtle"
	"sync"

	"github.com/getevo/evo/v2/lib/log"
	"github.com/gofiber/contrib/websocket"
	natsclient "github.com/nats-io/nats.go"
	"github.com/vidbriefs/vidbriefs-backend/apps/conversation"
	natsapp "github.com/vidbriefs/vidbriefs-backend/apps/nats"
)

type wsConn struct {
	conn  *websocket.Conn
	mutex sync.Mutex
}

// HandleWebSocket streams summarization progress events for a
// conversation. The client authenticates with the conversation secret
// handed out when the insight request was created.
func HandleWebSocket(c *websocket.Conn) {
	conversationID := c.Params("conversation")
	secret := c.Params("secret")

	conv, ok := conversation.Default.Get(conversationID)
	if !ok || subtle.ConstantTimeCompare([]byte(conv.Secret), []byte(secret)) != 1 {
		log.Warning("progress feed rejected for conversation %s", conversationID)
		c.Close()
		return
	}

	log.Debug("progress feed connected for conversation %s", conversationID)

	connection := &wsConn{conn: c}

	// each connection subscribes independently, NATS fans out
	subject := "insights.progress." + conversationID
	sub, err := natsapp.Subscribe(subject, func(msg *natsclient.Msg) {
		connection.mutex.Lock()
		err := connection.conn.WriteMessage(websocket.TextMessage, msg.Data)
		connection.mutex.Unlock()
		if err != nil {
			log.Debug("progress feed write failed: %v", err)
		}
	})
	if err != nil {
		log.Warning("failed to subscribe to progress events: %v", err)
		c.Close()
		return
	}
	defer sub.Unsubscribe()
	defer log.Debug("progress feed disconnected for conversation %s", conversationID)

	// clients do not send anything, the read loop only detects close
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug("progress feed error: %v", err)
			}
			break
		}
	}
}
