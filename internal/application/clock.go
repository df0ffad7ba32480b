package application

import (
	"time"

	"github.com/Mielola/api-photobooth/internal/domain"
)

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func SystemClock() domain.Clock { return systemClock{} }
