package ws

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Server upgrades HTTP requests into hub-attached websocket clients.
type Server struct {
	Hub      *Hub
	upgrader websocket.Upgrader
}

// NewServer creates a websocket server with its own hub.
func NewServer() *Server {
	return &Server{
		Hub: NewHub(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// TODO: restrict origins once the frontend host is fixed.
				return true
			},
		},
	}
}

// Start launches the hub loop.
func (s *Server) Start() {
	go s.Hub.Run()
	logrus.Info("Websocket server started")
}

// Stop shuts the hub down.
func (s *Server) Stop() {
	s.Hub.Stop()
	logrus.Info("Websocket server stopped")
}

// HandlePools upgrades the connection and streams pool updates to it.
func (s *Server) HandlePools(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	client := NewClient(newClientID(), s.Hub, conn)
	s.Hub.register <- client

	go client.WritePump()
	go client.ReadPump()
}

// RegisterRoutes mounts the websocket endpoint on the router group.
func (s *Server) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/ws/pools", s.HandlePools)
}

func newClientID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "client-unknown"
	}
	return hex.EncodeToString(b)
}
