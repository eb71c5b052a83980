// Package realtime — клиентская сторона комнаты: одно websocket-соединение,
// типизированные send/on операции поверх закрытого набора кадров.
package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cwrk-planet/coderoom/internal/domain"
	"github.com/cwrk-planet/coderoom/internal/transport/ws"

	"github.com/gorilla/websocket"
)

type state int

const (
	stateIdle state = iota
	stateConnecting
	stateOpen
	stateClosed
)

type handlers struct {
	code         func(code string)
	task         func(task string)
	taskTitle    func(title string)
	participants func([]domain.Participant)
	chat         func(domain.ChatMessage)
	output       func(domain.ExecutionResult)
	me           func(id, name string)
	language     func(domain.Language)
}

// Channel не переподключается: после обрыва все send* становятся no-op.
type Channel struct {
	url    string
	dialer *websocket.Dialer

	mu          sync.Mutex
	state       state
	conn        *websocket.Conn
	pendingJoin *string
	cancelDial  context.CancelFunc

	writeMu sync.Mutex

	hmu sync.RWMutex
	h   handlers

	opened    chan struct{}
	done      chan struct{}
	openOnce  sync.Once
	closeOnce sync.Once
}

func New(wsURL string) *Channel {
	return &Channel{
		url: wsURL,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
		opened: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// RoomURL строит адрес relay для комнаты из базового http(s) адреса сервиса.
func RoomURL(serverURL, roomID string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws/rooms/" + url.PathEscape(roomID)
	return u.String(), nil
}

// Connect запускает установку соединения и сразу возвращается.
// Ошибка соединения логируется, повторов нет.
func (c *Channel) Connect(ctx context.Context) {
	c.mu.Lock()
	if c.state != stateIdle {
		c.mu.Unlock()
		return
	}
	c.state = stateConnecting
	dialCtx, cancel := context.WithCancel(ctx)
	c.cancelDial = cancel
	c.mu.Unlock()

	go c.dial(dialCtx)
}

func (c *Channel) dial(ctx context.Context) {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		slog.Warn("realtime connect failed", "url", c.url, "err", err)
		c.mu.Lock()
		c.state = stateClosed
		c.mu.Unlock()
		c.markDone()
		return
	}

	c.mu.Lock()
	if c.state == stateClosed {
		c.mu.Unlock()
		_ = conn.Close()
		c.markDone()
		return
	}
	c.state = stateOpen
	c.conn = conn
	join := c.pendingJoin
	c.pendingJoin = nil
	c.mu.Unlock()

	slog.Debug("realtime connected", "url", c.url)
	c.openOnce.Do(func() { close(c.opened) })

	// отложенный join уходит ровно один раз
	if join != nil {
		c.send(ws.Join{Name: *join})
	}

	c.readLoop(conn)
}

// Join отправляет рукопожатие; до открытия соединения запоминает его
// и отправит один раз при открытии.
func (c *Channel) Join(name string) {
	c.mu.Lock()
	switch c.state {
	case stateOpen:
		c.mu.Unlock()
		c.send(ws.Join{Name: name})
		return
	case stateIdle, stateConnecting:
		c.pendingJoin = &name
	}
	c.mu.Unlock()
}

func (c *Channel) SendCodeUpdate(code string) {
	c.send(ws.CodeUpdate{Code: code})
}

func (c *Channel) SendTaskUpdate(task string, title *string) {
	c.send(ws.TaskUpdate{Task: task, Title: title})
}

func (c *Channel) SendChatMessage(text, userName string) {
	c.send(ws.ChatMessage{Text: text, UserName: userName})
}

func (c *Channel) SendOutputUpdate(res domain.ExecutionResult) {
	c.send(ws.OutputFromResult(res))
}

func (c *Channel) SendLanguageUpdate(lang domain.Language) {
	c.send(ws.LanguageUpdate{Language: lang})
}

// send молча ничего не делает, если соединение не открыто.
func (c *Channel) send(f ws.Frame) {
	c.mu.Lock()
	conn := c.conn
	open := c.state == stateOpen
	c.mu.Unlock()
	if !open {
		return
	}

	data, err := ws.Encode(f)
	if err != nil {
		slog.Warn("realtime encode failed", "kind", f.Kind(), "err", err)
		return
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Debug("realtime send failed", "kind", f.Kind(), "err", err)
	}
}

func (c *Channel) OnCode(fn func(code string)) {
	c.setHandler(func(h *handlers) { h.code = fn })
}

func (c *Channel) OnTask(fn func(task string)) {
	c.setHandler(func(h *handlers) { h.task = fn })
}

func (c *Channel) OnTaskTitle(fn func(title string)) {
	c.setHandler(func(h *handlers) { h.taskTitle = fn })
}

func (c *Channel) OnParticipants(fn func([]domain.Participant)) {
	c.setHandler(func(h *handlers) { h.participants = fn })
}

func (c *Channel) OnChat(fn func(domain.ChatMessage)) {
	c.setHandler(func(h *handlers) { h.chat = fn })
}

func (c *Channel) OnOutput(fn func(domain.ExecutionResult)) {
	c.setHandler(func(h *handlers) { h.output = fn })
}

func (c *Channel) OnMe(fn func(id, name string)) {
	c.setHandler(func(h *handlers) { h.me = fn })
}

func (c *Channel) OnLanguage(fn func(lang domain.Language)) {
	c.setHandler(func(h *handlers) { h.language = fn })
}

func (c *Channel) setHandler(set func(*handlers)) {
	c.hmu.Lock()
	set(&c.h)
	c.hmu.Unlock()
}

func (c *Channel) readLoop(conn *websocket.Conn) {
	defer func() {
		c.mu.Lock()
		c.state = stateClosed
		c.mu.Unlock()
		_ = conn.Close()
		c.markDone()
	}()

	conn.SetReadLimit(1 << 20)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			slog.Debug("realtime read stopped", "err", err)
			return
		}
		frame, err := ws.Decode(data)
		if err != nil {
			continue
		}
		c.dispatch(frame)
	}
}

func (c *Channel) dispatch(frame ws.Frame) {
	c.hmu.RLock()
	h := c.h
	c.hmu.RUnlock()

	switch f := frame.(type) {
	case ws.Code:
		if h.code != nil {
			h.code(f.Code)
		}
	case ws.Task:
		if h.task != nil {
			h.task(f.Task)
		}
		if f.Title != nil && h.taskTitle != nil {
			h.taskTitle(*f.Title)
		}
	case ws.Participants:
		if h.participants != nil {
			ps := make([]domain.Participant, 0, len(f.Participants))
			for _, p := range f.Participants {
				ps = append(ps, domain.Participant{ID: p.ID, Name: p.Name, IsOnline: p.IsOnline})
			}
			h.participants(ps)
		}
	case ws.Chat:
		if h.chat != nil {
			h.chat(domain.ChatMessage{UserName: f.UserName, Text: f.Text, Timestamp: f.Timestamp, Received: time.Now()})
		}
	case ws.Output:
		if h.output != nil {
			h.output(f.Result())
		}
	case ws.Me:
		if h.me != nil {
			h.me(f.ID, f.Name)
		}
	case ws.Language:
		if h.language != nil {
			h.language(f.Language)
		}
	default:
		// клиентские кадры от сервера не ожидаются
	}
}

// Disconnect закрывает соединение; повторный вызов безопасен.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	if c.state == stateClosed {
		c.mu.Unlock()
		return
	}
	prev := c.state
	c.state = stateClosed
	conn := c.conn
	cancel := c.cancelDial
	c.pendingJoin = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		c.writeMu.Lock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		c.writeMu.Unlock()
		_ = conn.Close()
	}
	if prev == stateIdle {
		c.markDone()
	}
}

// Opened закрывается, когда соединение установлено.
func (c *Channel) Opened() <-chan struct{} { return c.opened }

// Done закрывается, когда соединение завершено (обрыв, ошибка, Disconnect).
func (c *Channel) Done() <-chan struct{} { return c.done }

func (c *Channel) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == stateOpen
}

func (c *Channel) markDone() {
	c.closeOnce.Do(func() { close(c.done) })
}
