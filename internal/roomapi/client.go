// Package roomapi — HTTP-клиент REST API сервиса комнат.
package roomapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cwrk-planet/coderoom/internal/domain"
	"github.com/cwrk-planet/coderoom/internal/transport/http/httputil"
)

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

type Client struct {
	base    *url.URL
	http    *http.Client
	timeout time.Duration
}

func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("room client: empty base url")
	}
	base, err := url.Parse(strings.TrimSuffix(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("room client: parse base url: %w", err)
	}
	if base.Path == "" {
		base.Path = "/"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{base: base, http: hc, timeout: opts.Timeout}, nil
}

func (c *Client) CreateRoom(ctx context.Context, lang domain.Language) (domain.Room, error) {
	var out Room
	if err := c.do(ctx, http.MethodPost, roomsPath(), CreateRoomRequest{Language: lang}, &out); err != nil {
		return domain.Room{}, err
	}
	return out.Domain(), nil
}

func (c *Client) GetRoom(ctx context.Context, id string) (domain.Room, error) {
	var out Room
	if err := c.do(ctx, http.MethodGet, roomPath(id), nil, &out); err != nil {
		return domain.Room{}, err
	}
	return out.Domain(), nil
}

func (c *Client) ListParticipants(ctx context.Context, roomID string) ([]domain.Participant, error) {
	var out []Participant
	if err := c.do(ctx, http.MethodGet, roomPath(roomID, "participants"), nil, &out); err != nil {
		return nil, err
	}
	ps := make([]domain.Participant, 0, len(out))
	for _, p := range out {
		ps = append(ps, domain.Participant{ID: p.ID, RoomID: roomID, Name: p.Name, IsOnline: p.IsOnline})
	}
	return ps, nil
}

func (c *Client) UpdateCode(ctx context.Context, id, code string) error {
	return c.do(ctx, http.MethodPut, roomPath(id, "code"), UpdateCodeRequest{Code: code}, nil)
}

func (c *Client) UpdateTask(ctx context.Context, id, task string, title *string) error {
	return c.do(ctx, http.MethodPut, roomPath(id, "task"), UpdateTaskRequest{Task: task, Title: title}, nil)
}

func (c *Client) UpdateLanguage(ctx context.Context, id string, lang domain.Language) error {
	return c.do(ctx, http.MethodPut, roomPath(id, "language"), UpdateLanguageRequest{Language: lang}, nil)
}

// Execute — серверный запуск кода.
func (c *Client) Execute(ctx context.Context, roomID, code string, lang domain.Language) (domain.ExecutionResult, error) {
	var out domain.ExecutionResult
	err := c.do(ctx, http.MethodPost, roomPath(roomID, "execute"), ExecuteRequest{Code: code, Language: lang}, &out)
	return out, err
}

func (c *Client) Health(ctx context.Context) error {
	var out Health
	if err := c.do(ctx, http.MethodGet, []string{"health"}, nil, &out); err != nil {
		return err
	}
	if out.Status != "ok" {
		return fmt.Errorf("%w: status %q", domain.ErrUpstream, out.Status)
	}
	return nil
}

func roomsPath() []string { return []string{"api", "rooms"} }

// roomPath экранирует id сам: JoinPath считает сегменты уже экранированными.
func roomPath(id string, tail ...string) []string {
	return append([]string{"api", "rooms", url.PathEscape(id)}, tail...)
}

func (c *Client) do(ctx context.Context, method string, segs []string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	u := c.base.JoinPath(segs...)
	path := u.Path
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if reqID, ok := httputil.FromContext(ctx); ok {
		req.Header.Set(httputil.HeaderRequestID, reqID)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrRoomNotFound
	case resp.StatusCode >= 400:
		var e ErrorResponse
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&e)
		if e.Error == "" {
			e.Error = resp.Status
		}
		return fmt.Errorf("%w: %s %s: %s", domain.ErrUpstream, method, path, e.Error)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", domain.ErrUpstream, path, err)
	}
	return nil
}
