package ws

import (
	"log/slog"
	"slices"
	"sync"
)

type Conn interface {
	Send(f Frame) error
	Close() error
	ParticipantID() string
	RoomID() string
}

// Hub держит открытые соединения по комнатам. Порядок внутри комнаты —
// порядок подключения, рассылка идёт в нём же.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string][]Conn
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string][]Conn)}
}

// Join возвращает число соединений в комнате после подключения.
func (h *Hub) Join(c Conn) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := c.RoomID()
	h.rooms[id] = append(h.rooms[id], c)
	return len(h.rooms[id])
}

// Leave возвращает, сколько соединений осталось. Пустая комната забывается.
func (h *Hub) Leave(c Conn) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := c.RoomID()
	conns := slices.DeleteFunc(h.rooms[id], func(x Conn) bool { return x == c })
	if len(conns) == 0 {
		delete(h.rooms, id)
		return 0
	}
	h.rooms[id] = conns
	return len(conns)
}

func (h *Hub) Count(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// Broadcast отправляет кадр всем в комнате, кроме except (nil — всем).
// Ошибка отдельного соединения не прерывает рассылку.
func (h *Hub) Broadcast(roomID string, f Frame, except Conn) {
	h.mu.RLock()
	targets := slices.Clone(h.rooms[roomID])
	h.mu.RUnlock()

	for _, c := range targets {
		if c == except {
			continue
		}
		if err := c.Send(f); err != nil {
			slog.Debug("ws broadcast send failed", "room", roomID, "kind", f.Kind(), "err", err)
		}
	}
}

// CloseAll закрывает все соединения; readLoop каждого из них сам
// вызовет Leave и разошлёт участников.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	var all []Conn
	for _, conns := range h.rooms {
		all = append(all, conns...)
	}
	h.mu.RUnlock()

	for _, c := range all {
		_ = c.Close()
	}
}
