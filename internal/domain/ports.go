package domain

import (
	"context"
	"io"
	"time"
)

type Store interface {
	CreateEvent(ctx context.Context, value Event) (Event, error)
	GetEventByUID(ctx context.Context, uid string) (Event, error)
	GetEventByID(ctx context.Context, id uint) (Event, error)
	ListEvents(ctx context.Context, filter EventFilter, page Pagination) ([]Event, int64, error)
	ListActiveEvents(ctx context.Context) ([]Event, error)
	UpdateEvent(ctx context.Context, value Event) (Event, error)
	DeleteEvent(ctx context.Context, id uint) error
	LatestPhotoPerEvent(ctx context.Context, eventIDs []uint) (map[uint]Photo, error)

	CreateFrame(ctx context.Context, value Frame) (Frame, error)
	GetFrameByUID(ctx context.Context, uid string) (Frame, error)
	ListFrames(ctx context.Context, page Pagination) ([]Frame, int64, error)
	ListFramesByEvent(ctx context.Context, eventID uint) ([]Frame, error)
	UpdateFrame(ctx context.Context, value Frame) (Frame, error)
	DeleteFrame(ctx context.Context, id uint) error

	CreateSession(ctx context.Context, value Session) (Session, error)
	GetSessionByUID(ctx context.Context, uid string) (Session, error)
	GetSessionByID(ctx context.Context, id uint) (Session, error)
	ListSessions(ctx context.Context, page Pagination) ([]Session, int64, error)
	ListSessionsByEvent(ctx context.Context, eventID uint) ([]Session, error)
	LatestSessionByEvent(ctx context.Context, eventID uint) (Session, error)
	UpdateSession(ctx context.Context, value Session) (Session, error)
	DeleteSession(ctx context.Context, id uint) error

	CreatePhoto(ctx context.Context, value Photo) (Photo, error)
	GetPhotoByUID(ctx context.Context, uid string) (Photo, error)
	ListPhotosBySession(ctx context.Context, sessionID uint, kind *PhotoKind) ([]Photo, error)
	ListPhotosByEvent(ctx context.Context, eventID uint) ([]Photo, error)
	UpdatePhoto(ctx context.Context, value Photo) (Photo, error)
	DeletePhoto(ctx context.Context, id uint) error

	CreateUser(ctx context.Context, value User) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByID(ctx context.Context, id uint) (User, error)
	CountUsers(ctx context.Context) (int64, error)
	CreateAPIToken(ctx context.Context, value APIToken) (APIToken, error)
	GetAPITokenByHash(ctx context.Context, tokenHash string) (APIToken, error)
	DeleteAPITokenByHash(ctx context.Context, tokenHash string) error
}

type BlobStore interface {
	Write(path string, r io.Reader) (string, error)
	Open(path string) (io.ReadCloser, error)
	Exists(path string) bool
	EnsureDir(path string) error
	Delete(path string) error
	DeleteTree(prefix string) error
	ListFiles(prefix string) ([]string, error)
	PublicURL(path string) string
}

type Clock interface {
	Now() time.Time
}
