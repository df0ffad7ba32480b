package domain

import "errors"

var (
	ErrEventNotFound   = errors.New("event not found")
	ErrFrameNotFound   = errors.New("frame not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrPhotoNotFound   = errors.New("photo not found")

	ErrEventInactive         = errors.New("event is not active")
	ErrSessionExpired        = errors.New("session has expired")
	ErrSessionAlreadyExpired = errors.New("session already expired")
	ErrEmailRequired         = errors.New("email has not been set for this session")
	ErrNoPhotos              = errors.New("no photos to archive")
	ErrInvalidEmail          = errors.New("invalid email address")
	ErrInvalidImage          = errors.New("invalid image upload")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrUnauthorized          = errors.New("unauthorized")
)
