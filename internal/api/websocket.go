package api

import (
	"log"
	"net/http"

	"match-core/internal/events"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type wsFrame struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

func (s *Server) websocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ws upgrade error: %v", err)
		return
	}
	defer conn.Close()

	if s.Bus == nil {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"bus not ready"}`))
		return
	}

	ticks, unsubTicks := s.Bus.Subscribe(events.EventPriceTick, 100)
	defer unsubTicks()
	fills, unsubFills := s.Bus.Subscribe(events.EventFill, 100)
	defer unsubFills()
	updates, unsubUpdates := s.Bus.Subscribe(events.EventBookUpdate, 100)
	defer unsubUpdates()

	for {
		var frame wsFrame
		select {
		case msg, ok := <-ticks:
			if !ok {
				return
			}
			frame = wsFrame{Type: string(events.EventPriceTick), Data: msg}
		case msg, ok := <-fills:
			if !ok {
				return
			}
			frame = wsFrame{Type: string(events.EventFill), Data: msg}
		case msg, ok := <-updates:
			if !ok {
				return
			}
			frame = wsFrame{Type: string(events.EventBookUpdate), Data: msg}
		}
		if err := conn.WriteJSON(frame); err != nil {
			log.Printf("ws write error: %v", err)
			return
		}
	}
}
