package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/mbrth/iasante/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true }, // tighten behind ALB/CloudFront if needed
}

type assistantFrame struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type assistantInbound struct {
	Message string `json:"message"`
}

// AssistantWS is the assistant chat channel: one connection is one session,
// seeded with the caller's profile and held until the client disconnects.
// Frames are read and answered strictly in order, one provider turn at a
// time; the session itself refuses overlapping sends. A reply raced by a
// profile change is discarded and the session reseeded.
func AssistantWS(c *gin.Context) {
	userID := c.GetUint("userID")

	profile := Profiles().Load(userID)
	if profile == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	gemini := services.NewGeminiService()
	session := services.NewChatSession(gemini, profile, Profiles().Generation(userID))

	_ = conn.WriteJSON(assistantFrame{Role: "ai", Text: services.Greeting(profile)})

	// keep connections alive through proxies
	done := make(chan struct{})
	defer close(done)
	go func() {
		t := time.NewTicker(25 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
					return
				}
			}
		}
	}()

	for {
		var in assistantInbound
		if err := conn.ReadJSON(&in); err != nil {
			return
		}
		if in.Message == "" {
			continue
		}

		reply, err := session.Send(context.Background(), in.Message)
		if errors.Is(err, services.ErrChatBusy) {
			// the session refused an overlapping send; nothing was dispatched
			continue
		}

		if Profiles().Generation(userID) != session.Generation() {
			// profile changed while the turn was outstanding: drop the stale
			// reply and reseed the session
			if fresh := Profiles().Load(userID); fresh != nil {
				profile = fresh
				session = services.NewChatSession(gemini, profile, Profiles().Generation(userID))
			}
			continue
		}

		_ = conn.WriteJSON(assistantFrame{Role: "ai", Text: reply})
	}
}
