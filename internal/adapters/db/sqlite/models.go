package sqlite

import "time"

type EventModel struct {
	ID         uint   `gorm:"primaryKey"`
	UID        string `gorm:"uniqueIndex;not null"`
	Name       string `gorm:"not null"`
	CoupleName string `gorm:"not null"`
	Date       time.Time
	Status     string `gorm:"not null;default:'inactive'"`
	Background *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (EventModel) TableName() string { return "events" }

type FrameModel struct {
	ID         uint   `gorm:"primaryKey"`
	UID        string `gorm:"uniqueIndex;not null"`
	Name       string `gorm:"not null"`
	PhotoCount int    `gorm:"not null"`
	ImagePath  string `gorm:"not null"`
	EventID    uint   `gorm:"not null;index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (FrameModel) TableName() string { return "frames" }

type SessionModel struct {
	ID        uint   `gorm:"primaryKey"`
	UID       string `gorm:"uniqueIndex;not null"`
	EventID   uint   `gorm:"not null;index"`
	Email     *string
	ExpiresAt time.Time `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (SessionModel) TableName() string { return "sessions" }

type PhotoModel struct {
	ID        uint   `gorm:"primaryKey"`
	UID       string `gorm:"uniqueIndex;not null"`
	Kind      string `gorm:"not null"`
	Path      string `gorm:"not null"`
	SessionID uint   `gorm:"not null;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (PhotoModel) TableName() string { return "photos" }

type UserModel struct {
	ID           uint   `gorm:"primaryKey"`
	Email        string `gorm:"not null;uniqueIndex"`
	PasswordHash string `gorm:"not null"`
	CreatedAt    time.Time
}

func (UserModel) TableName() string { return "users" }

type APITokenModel struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"not null;index"`
	Name      string `gorm:"not null"`
	TokenHash string `gorm:"not null;uniqueIndex"`
	CreatedAt time.Time
}

func (APITokenModel) TableName() string { return "api_tokens" }
