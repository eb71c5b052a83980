package domain

import "errors"

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrRoomExists      = errors.New("room already exists")
	ErrInvalidLanguage = errors.New("invalid language")
	ErrTaskNotFound    = errors.New("task not found")
	ErrNotReady        = errors.New("room is not loaded")
	ErrRunInProgress   = errors.New("run already in progress")
	ErrEmptyMessage    = errors.New("empty message")
	ErrMessageTooLong  = errors.New("message too long")
	ErrUpstream        = errors.New("upstream error")
)
