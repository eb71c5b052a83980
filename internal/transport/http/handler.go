package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cwrk-planet/coderoom/internal/domain"
	"github.com/cwrk-planet/coderoom/internal/roomapi"
	"github.com/cwrk-planet/coderoom/internal/transport/http/httputil"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

type RoomService interface {
	CreateRoom(ctx context.Context, lang domain.Language) (*domain.Room, error)
	GetRoom(ctx context.Context, id string) (*domain.Room, error)
	UpdateCode(ctx context.Context, id, code string) error
	UpdateTask(ctx context.Context, id, task string, title *string) error
	UpdateLanguage(ctx context.Context, id string, lang domain.Language) error
}

type MemberService interface {
	ListParticipants(ctx context.Context, roomID string) ([]domain.Participant, error)
}

type Executor interface {
	Execute(ctx context.Context, code string, lang domain.Language) domain.ExecutionResult
}

type Handler struct {
	roomSvc   RoomService
	memberSvc MemberService
	exec      Executor
}

func NewHandler(room RoomService, member MemberService, exec Executor) *Handler {
	return &Handler{
		roomSvc:   room,
		memberSvc: member,
		exec:      exec,
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		httputil.Error(w, http.StatusNotFound, "room not found")
	case errors.Is(err, domain.ErrInvalidLanguage):
		httputil.Error(w, http.StatusBadRequest, "invalid language")
	default:
		slog.Error("handler."+op+":", slog.Any("err", err))
		httputil.Error(w, http.StatusInternalServerError, "internal error")
	}
}

// GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, roomapi.Health{Status: "ok"})
}

// POST /api/rooms
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req roomapi.CreateRoomRequest
	// пустое тело допустимо: язык по умолчанию
	if r.ContentLength != 0 {
		if !decode(w, r, &req) {
			return
		}
	}
	room, err := h.roomSvc.CreateRoom(r.Context(), req.Language)
	if err != nil {
		h.fail(w, "CreateRoom", err)
		return
	}
	httputil.JSON(w, http.StatusCreated, roomapi.RoomFromDomain(*room))
}

// GET /api/rooms/{id}
func (h *Handler) GetRoom(w http.ResponseWriter, r *http.Request) {
	h.respondRoom(w, r, "GetRoom")
}

// PUT /api/rooms/{id}/code
func (h *Handler) UpdateCode(w http.ResponseWriter, r *http.Request) {
	var req roomapi.UpdateCodeRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.roomSvc.UpdateCode(r.Context(), chi.URLParam(r, "id"), req.Code); err != nil {
		h.fail(w, "UpdateCode", err)
		return
	}
	h.respondRoom(w, r, "UpdateCode")
}

// PUT /api/rooms/{id}/task
func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	var req roomapi.UpdateTaskRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.roomSvc.UpdateTask(r.Context(), chi.URLParam(r, "id"), req.Task, req.Title); err != nil {
		h.fail(w, "UpdateTask", err)
		return
	}
	h.respondRoom(w, r, "UpdateTask")
}

// PUT /api/rooms/{id}/language
func (h *Handler) UpdateLanguage(w http.ResponseWriter, r *http.Request) {
	var req roomapi.UpdateLanguageRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.roomSvc.UpdateLanguage(r.Context(), chi.URLParam(r, "id"), req.Language); err != nil {
		h.fail(w, "UpdateLanguage", err)
		return
	}
	h.respondRoom(w, r, "UpdateLanguage")
}

// GET /api/rooms/{id}/participants
func (h *Handler) GetParticipants(w http.ResponseWriter, r *http.Request) {
	parts, err := h.memberSvc.ListParticipants(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "GetParticipants", err)
		return
	}
	httputil.JSON(w, http.StatusOK, roomapi.ParticipantsFromDomain(parts))
}

// POST /api/rooms/{id}/execute
func (h *Handler) Execute(w http.ResponseWriter, r *http.Request) {
	var req roomapi.ExecuteRequest
	if !decode(w, r, &req) {
		return
	}
	lang, err := domain.ParseLanguage(string(req.Language))
	if err != nil {
		h.fail(w, "Execute", err)
		return
	}
	if _, err := h.roomSvc.GetRoom(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "Execute", err)
		return
	}
	httputil.JSON(w, http.StatusOK, h.exec.Execute(r.Context(), req.Code, lang))
}

func (h *Handler) respondRoom(w http.ResponseWriter, r *http.Request, op string) {
	room, err := h.roomSvc.GetRoom(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, op, err)
		return
	}
	httputil.JSON(w, http.StatusOK, roomapi.RoomFromDomain(*room))
}
