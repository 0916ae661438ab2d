package websocket

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	jwtgo "github.com/golang-jwt/jwt/v4"
	"github.com/gorilla/websocket"

	"github.com/kanikamera/agent/src/log"
	"github.com/kanikamera/agent/src/models"
)

type Message struct {
	ClientID    string            `json:"client_id"`
	MessageType string            `json:"message_type"`
	Message     map[string]string `json:"message"`
}

type Connection struct {
	Socket *websocket.Conn
	mu     sync.Mutex
}

// Concurrency handling - sending messages
func (c *Connection) WriteJson(message Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Socket.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return c.Socket.WriteJSON(message)
}

var sockets = make(map[string]*Connection)
var socketsMu sync.Mutex

var forwardOnce sync.Once

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// validToken verifies an API token by hand: the middleware protecting the
// rest of the api does not run on the websocket route.
func validToken(tokenString string, key []byte) bool {
	token, err := jwtgo.Parse(tokenString, func(token *jwtgo.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwtgo.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return key, nil
	})
	return err == nil && token.Valid
}

// WebsocketHandler upgrades an authenticated request to a websocket
// connection and registers it for the live view. The connection stays
// open until the client disconnects or a write fails.
func WebsocketHandler(c *gin.Context, key []byte, communication *models.Communication) {
	if !validToken(c.Query("token"), key) {
		c.JSON(401, models.APIResponse{
			Message: "A valid token is required.",
		})
		return
	}

	if communication.HandleLiveView == nil {
		c.JSON(503, models.APIResponse{
			Message: "The agent is still starting up.",
		})
		return
	}

	// A single forwarder serves all viewers for the lifetime of the process.
	forwardOnce.Do(func() {
		go ForwardLiveView(communication)
	})

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Log.Error("routers.websocket.main.WebsocketHandler(): " + err.Error())
		return
	}
	defer conn.Close()

	clientID := ""
	if id, err := uuid.NewV4(); err == nil {
		clientID = id.String()
	}

	connection := &Connection{Socket: conn}
	socketsMu.Lock()
	sockets[clientID] = connection
	socketsMu.Unlock()

	log.Log.Info("routers.websocket.main.WebsocketHandler(): " + clientID + ": connected for the live view.")

	// Continuously read messages
	for {
		var message Message
		if err := conn.ReadJSON(&message); err != nil {
			break
		}

		switch message.MessageType {
		case "hello":
			bePolite := Message{
				ClientID:    clientID,
				MessageType: "hello-back",
				Message: map[string]string{
					"message": "Hello " + clientID + "!",
				},
			}
			connection.WriteJson(bePolite)
		}
	}

	socketsMu.Lock()
	delete(sockets, clientID)
	socketsMu.Unlock()

	log.Log.Info("routers.websocket.main.WebsocketHandler(): " + clientID + ": terminated and disconnected websocket connection.")
}

// ForwardLiveView fans every captured still out to the connected
// viewers. A client that cannot keep up fails its write and is dropped.
func ForwardLiveView(communication *models.Communication) {
	for {
		frame := <-communication.HandleLiveView
		encodedImage := base64.StdEncoding.EncodeToString(frame.Image)

		message := Message{
			MessageType: "image",
			Message: map[string]string{
				"base64":    encodedImage,
				"timestamp": strconv.FormatInt(frame.Timestamp, 10),
			},
		}

		socketsMu.Lock()
		viewers := make(map[string]*Connection, len(sockets))
		for clientID, connection := range sockets {
			viewers[clientID] = connection
		}
		socketsMu.Unlock()

		for clientID, connection := range viewers {
			message.ClientID = clientID
			if err := connection.WriteJson(message); err != nil {
				log.Log.Error("routers.websocket.main.ForwardLiveView(): " + clientID + ": " + err.Error())
				connection.Socket.Close()
				socketsMu.Lock()
				delete(sockets, clientID)
				socketsMu.Unlock()
			}
		}
	}
}
