package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	socketio "github.com/googollee/go-socket.io"
	"github.com/googollee/go-socket.io/engineio"
	"github.com/googollee/go-socket.io/engineio/transport"
	"github.com/googollee/go-socket.io/engineio/transport/polling"
	"github.com/googollee/go-socket.io/engineio/transport/websocket"
	"github.com/mdhaarishussain/Yuvshiksha/internal/realtime"
	"github.com/mdhaarishussain/Yuvshiksha/pkg/logger"
	"github.com/mdhaarishussain/Yuvshiksha/pkg/utils"
)

const socketNamespace = "/"

// eventTimeout bounds the storage work done for a single socket event.
const eventTimeout = 10 * time.Second

var (
	errTokenRequired = errors.New("authentication required")
	errTokenInvalid  = errors.New("invalid token")
)

// SocketServer runs the socket.io endpoint and implements realtime.Transport
// over the set of live connections.
type SocketServer struct {
	server       *socketio.Server
	requireToken bool

	mu    sync.RWMutex
	conns map[string]socketio.Conn
}

// NewSocketServer accepts websocket and polling clients from origins. An
// empty origin list accepts any origin.
func NewSocketServer(origins []string, requireToken bool) *SocketServer {
	checkOrigin := originChecker(origins)
	server := socketio.NewServer(&engineio.Options{
		Transports: []transport.Transport{
			&websocket.Transport{CheckOrigin: checkOrigin},
			&polling.Transport{CheckOrigin: checkOrigin},
		},
	})

	return &SocketServer{
		server:       server,
		requireToken: requireToken,
		conns:        make(map[string]socketio.Conn),
	}
}

func originChecker(origins []string) func(r *http.Request) bool {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return len(allowed) == 0 || origin == "" || allowed[origin]
	}
}

// handshakeUser validates the optional handshake token. It returns "" when no
// token was sent and one is not required.
func handshakeUser(u url.URL, requireToken bool) (string, error) {
	token := u.Query().Get("token")
	if token == "" {
		token = u.Query().Get("auth_token")
	}
	if token == "" {
		if requireToken {
			return "", errTokenRequired
		}
		return "", nil
	}

	claims, err := utils.ValidateToken(token)
	if err != nil {
		return "", errTokenInvalid
	}
	return claims.UserID, nil
}

// Bind routes socket events to h. It must be called once, before Serve.
func (s *SocketServer) Bind(h *realtime.Handler) {
	s.server.OnConnect(socketNamespace, func(conn socketio.Conn) error {
		userID, err := handshakeUser(conn.URL(), s.requireToken)
		if err != nil {
			logger.Warn().Str("socket_id", conn.ID()).Err(err).Msg("Socket connection rejected")
			return err
		}

		s.mu.Lock()
		s.conns[conn.ID()] = conn
		s.mu.Unlock()

		h.Connect(conn.ID(), userID)
		return nil
	})

	s.server.OnEvent(socketNamespace, realtime.EventAuthenticate, func(conn socketio.Conn, userID string) {
		ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
		defer cancel()
		h.Authenticate(ctx, conn.ID(), userID)
	})

	s.server.OnEvent(socketNamespace, realtime.EventJoinRoom, func(conn socketio.Conn, roomID string) {
		h.JoinRoom(context.Background(), conn.ID(), roomID)
	})

	s.server.OnEvent(socketNamespace, realtime.EventSendMessage, func(conn socketio.Conn, p realtime.SendMessagePayload) {
		ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
		defer cancel()
		h.SendMessage(ctx, conn.ID(), p)
	})

	s.server.OnEvent(socketNamespace, realtime.EventMarkMessageRead, func(conn socketio.Conn, messageID string) {
		ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
		defer cancel()
		h.MarkMessageRead(ctx, conn.ID(), messageID)
	})

	s.server.OnDisconnect(socketNamespace, func(conn socketio.Conn, reason string) {
		s.mu.Lock()
		delete(s.conns, conn.ID())
		s.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
		defer cancel()
		h.Disconnect(ctx, conn.ID())
		logger.Debug().Str("socket_id", conn.ID()).Str("reason", reason).Msg("Socket closed")
	})

	s.server.OnError(socketNamespace, func(conn socketio.Conn, err error) {
		id := ""
		if conn != nil {
			id = conn.ID()
		}
		logger.Warn().Err(err).Str("socket_id", id).Msg("Socket error")
	})
}

// Serve processes connections until Close is called.
func (s *SocketServer) Serve() {
	if err := s.server.Serve(); err != nil {
		logger.Error().Err(err).Msg("Socket server stopped")
	}
}

func (s *SocketServer) Close() error {
	return s.server.Close()
}

// Handler mounts the socket.io endpoint on a gin route.
func (s *SocketServer) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.server.ServeHTTP(c.Writer, c.Request)
	}
}

func (s *SocketServer) conn(handle string) socketio.Conn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conns[handle]
}

func (s *SocketServer) Emit(handle, event string, payload interface{}) {
	if conn := s.conn(handle); conn != nil {
		conn.Emit(event, payload)
	}
}

func (s *SocketServer) BroadcastToRoom(room, event string, payload interface{}) {
	s.server.BroadcastToRoom(socketNamespace, room, event, payload)
}

func (s *SocketServer) BroadcastExcept(handle, event string, payload interface{}) {
	s.mu.RLock()
	targets := make([]socketio.Conn, 0, len(s.conns))
	for id, conn := range s.conns {
		if id != handle {
			targets = append(targets, conn)
		}
	}
	s.mu.RUnlock()

	for _, conn := range targets {
		conn.Emit(event, payload)
	}
}

func (s *SocketServer) Join(handle, room string) {
	if conn := s.conn(handle); conn != nil {
		conn.Join(room)
	}
}

func (s *SocketServer) Leave(handle, room string) {
	if conn := s.conn(handle); conn != nil {
		conn.Leave(room)
	}
}
