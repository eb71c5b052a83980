package domain

import "time"

type Participant struct {
	ID       string    `json:"id"`
	RoomID   string    `json:"-"`
	Name     string    `json:"name"`
	IsOnline bool      `json:"isOnline"`
	JoinedAt time.Time `json:"-"`
	LastSeen time.Time `json:"-"`
}
