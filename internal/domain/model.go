package domain

import "time"

type EventStatus string

const (
	EventStatusActive      EventStatus = "active"
	EventStatusMaintenance EventStatus = "maintenance"
	EventStatusInactive    EventStatus = "inactive"
)

func (s EventStatus) Valid() bool {
	switch s {
	case EventStatusActive, EventStatusMaintenance, EventStatusInactive:
		return true
	}
	return false
}

type PhotoKind string

const (
	PhotoKindOriginal PhotoKind = "original"
	PhotoKindFramed   PhotoKind = "framed"
)

func (k PhotoKind) Valid() bool {
	return k == PhotoKindOriginal || k == PhotoKindFramed
}

type Event struct {
	ID         uint
	UID        string
	Name       string
	CoupleName string
	Date       time.Time
	Status     EventStatus
	Background string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Frame struct {
	ID         uint
	UID        string
	Name       string
	PhotoCount int
	ImagePath  string
	EventID    uint
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Session struct {
	ID        uint
	UID       string
	EventID   uint
	Email     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Photo struct {
	ID        uint
	UID       string
	Kind      PhotoKind
	Path      string
	SessionID uint
	CreatedAt time.Time
	UpdatedAt time.Time
}

type User struct {
	ID           uint
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

type APIToken struct {
	ID        uint
	UserID    uint
	Name      string
	TokenHash string
	CreatedAt time.Time
}

type EventFilter struct {
	Search string
	Status *EventStatus
}

type Pagination struct {
	Page    int
	PerPage int
}

func (p Pagination) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PerPage
}
