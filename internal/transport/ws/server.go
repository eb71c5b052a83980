package ws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cwrk-planet/coderoom/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

type RoomSvc interface {
	GetRoom(ctx context.Context, id string) (*domain.Room, error)
	UpdateCode(ctx context.Context, id, code string) error
	UpdateTask(ctx context.Context, id, task string, title *string) error
	UpdateLanguage(ctx context.Context, id string, lang domain.Language) error
}

type MemberSvc interface {
	JoinRoom(ctx context.Context, roomID, name string) (domain.Participant, error)
	LeaveRoom(ctx context.Context, roomID, participantID string) error
	TouchHeartbeat(ctx context.Context, roomID, participantID string) error
	ListParticipants(ctx context.Context, roomID string) ([]domain.Participant, error)
}

type ChatSvc interface {
	Compose(userName, text string) (domain.ChatMessage, error)
}

type Server struct {
	upgrader  websocket.Upgrader
	hub       *Hub
	roomSvc   RoomSvc
	memberSvc MemberSvc
	chatSvc   ChatSvc

	pingEvery time.Duration
}

func NewServer(hub *Hub, rooms RoomSvc, members MemberSvc, chat ChatSvc) *Server {
	return &Server{
		hub:       hub,
		roomSvc:   rooms,
		memberSvc: members,
		chatSvc:   chat,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingEvery: 15 * time.Second,
	}
}

// SetPingInterval меняет период ping; read deadline = 2 * interval.
func (s *Server) SetPingInterval(d time.Duration) {
	if d > 0 {
		s.pingEvery = d
	}
}

// WS endpoint: GET /ws/rooms/{id}
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")
	if roomID == "" {
		http.Error(w, "missing room id", http.StatusBadRequest)
		return
	}
	if _, err := s.roomSvc.GetRoom(r.Context(), roomID); err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
		slog.Error("ws room lookup failed", "room", roomID, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "err", err)
		return
	}

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()

	c := newWsConn(conn, roomID)
	slog.Debug("ws connected", "room", roomID, "conns", s.hub.Join(c))

	go s.writeLoop(ctx, c)
	s.readLoop(ctx, c)

	left := s.hub.Leave(c)
	slog.Debug("ws disconnected", "room", roomID, "conns", left)

	if pid := c.ParticipantID(); pid != "" {
		if err := s.memberSvc.LeaveRoom(ctx, roomID, pid); err != nil {
			slog.Debug("ws leave room failed", "room", roomID, "participant", pid, "err", err)
		}
		s.broadcastParticipants(ctx, roomID)
	}

	if err := c.Close(); err != nil {
		slog.Debug("ws close failed", "room", roomID, "err", err)
	}
}

func (s *Server) readLoop(ctx context.Context, c *wsConn) {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(1 << 20)
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
		if pid := c.ParticipantID(); pid != "" {
			_ = s.memberSvc.TouchHeartbeat(ctx, c.roomID, pid)
		}
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		frame, err := Decode(data)
		if err != nil {
			slog.Debug("ws frame dropped", "room", c.roomID, "err", err)
			continue
		}
		s.handleFrame(ctx, c, frame)
	}
}

func (s *Server) handleFrame(ctx context.Context, c *wsConn, frame Frame) {
	switch f := frame.(type) {
	case Join:
		if c.ParticipantID() != "" {
			return
		}
		p, err := s.memberSvc.JoinRoom(ctx, c.roomID, f.Name)
		if err != nil {
			slog.Warn("ws join failed", "room", c.roomID, "err", err)
			return
		}
		c.setParticipant(p.ID)
		if err := c.Send(Me{ID: p.ID, Name: p.Name}); err != nil {
			slog.Debug("ws send me failed", "room", c.roomID, "err", err)
		}
		s.broadcastParticipants(ctx, c.roomID)

	case CodeUpdate:
		if err := s.roomSvc.UpdateCode(ctx, c.roomID, f.Code); err != nil {
			slog.Warn("ws persist code failed", "room", c.roomID, "err", err)
		}
		s.hub.Broadcast(c.roomID, Code{Code: f.Code}, c)

	case TaskUpdate:
		if err := s.roomSvc.UpdateTask(ctx, c.roomID, f.Task, f.Title); err != nil {
			slog.Warn("ws persist task failed", "room", c.roomID, "err", err)
		}
		s.hub.Broadcast(c.roomID, Task{Task: f.Task, Title: f.Title}, c)

	case LanguageUpdate:
		if err := s.roomSvc.UpdateLanguage(ctx, c.roomID, f.Language); err != nil {
			slog.Warn("ws persist language failed", "room", c.roomID, "err", err)
		}
		s.hub.Broadcast(c.roomID, Language{Language: f.Language}, c)

	case ChatMessage:
		msg, err := s.chatSvc.Compose(f.UserName, f.Text)
		if err != nil {
			slog.Debug("ws chat rejected", "room", c.roomID, "err", err)
			return
		}
		// всем, включая отправителя: так он видит своё сообщение
		s.hub.Broadcast(c.roomID, Chat{UserName: msg.UserName, Text: msg.Text, Timestamp: msg.Timestamp}, nil)

	case OutputUpdate:
		s.hub.Broadcast(c.roomID, Output(f), c)

	default:
		// кадры сервер->клиент от клиента игнорируем
	}
}

func (s *Server) broadcastParticipants(ctx context.Context, roomID string) {
	parts, err := s.memberSvc.ListParticipants(ctx, roomID)
	if err != nil {
		slog.Warn("ws list participants failed", "room", roomID, "err", err)
		return
	}
	items := make([]ParticipantItem, 0, len(parts))
	for _, p := range parts {
		items = append(items, ParticipantItem{ID: p.ID, Name: p.Name, IsOnline: p.IsOnline})
	}
	s.hub.Broadcast(roomID, Participants{Participants: items}, nil)
}

func (s *Server) writeLoop(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(s.pingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
		case <-ctx.Done():
			return
		case <-c.closed:
			return
		}
	}
}

type wsConn struct {
	conn   *websocket.Conn
	roomID string

	mu            sync.RWMutex
	participantID string

	sendMu    chan struct{}
	closed    chan struct{}
	closeOnce sync.Once
}

func newWsConn(c *websocket.Conn, roomID string) *wsConn {
	return &wsConn{
		conn:   c,
		roomID: roomID,
		sendMu: make(chan struct{}, 1),
		closed: make(chan struct{}),
	}
}

func (c *wsConn) Send(f Frame) error {
	data, err := Encode(f)
	if err != nil {
		return err
	}

	c.sendMu <- struct{}{}
	defer func() { <-c.sendMu }()
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))

	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *wsConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		err = c.conn.Close()
	})
	return err
}

func (c *wsConn) setParticipant(id string) {
	c.mu.Lock()
	c.participantID = id
	c.mu.Unlock()
}

func (c *wsConn) ParticipantID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.participantID
}

func (c *wsConn) RoomID() string { return c.roomID }
