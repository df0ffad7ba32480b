package application

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/Mielola/api-photobooth/internal/domain"
)

// Canonical storage layout. Every component that touches blobs goes through
// these helpers so the on-disk tree stays consistent:
//
//	events/{slug(name)}-{uid}/
//	events/{slug(name)}-{uid}/background/
//	events/{slug(name)}-{uid}/frames/
//	events/{slug(name)}-{uid}/photos/{slug_(couple)}/{session uid}/
const slugPlaceholder = "untitled"

func slugify(input string, sep byte) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(strings.TrimSpace(input)) {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if isAlnum {
			if pending && b.Len() > 0 {
				b.WriteByte(sep)
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	if b.Len() == 0 {
		return slugPlaceholder
	}
	return b.String()
}

func Slug(input string) string { return slugify(input, '-') }

func SlugUnderscore(input string) string { return slugify(input, '_') }

func EventFolder(event domain.Event) string {
	return fmt.Sprintf("events/%s-%s", Slug(event.Name), event.UID)
}

func BackgroundFolder(event domain.Event) string {
	return EventFolder(event) + "/background"
}

func FrameFolder(event domain.Event) string {
	return EventFolder(event) + "/frames"
}

func PhotosFolder(event domain.Event) string {
	return EventFolder(event) + "/photos"
}

func SessionFolder(event domain.Event, session domain.Session) string {
	return fmt.Sprintf("%s/%s/%s", PhotosFolder(event), SlugUnderscore(event.CoupleName), session.UID)
}

func entropySuffix() string {
	var raw [4]byte
	_, _ = rand.Read(raw[:])
	return hex.EncodeToString(raw[:])
}

// PhotoFilename yields names like original_1736598000_9f2ac1d4.jpg. The
// random suffix keeps two uploads within the same second apart.
func PhotoFilename(kind domain.PhotoKind, now time.Time, ext string) string {
	return fmt.Sprintf("%s_%d_%s%s", kind, now.Unix(), entropySuffix(), normalizeExt(ext))
}

func FrameFilename(now time.Time, ext string) string {
	return fmt.Sprintf("frame_%d_%s%s", now.Unix(), entropySuffix(), normalizeExt(ext))
}

func BackgroundFilename(now time.Time, ext string) string {
	return fmt.Sprintf("background_%d_%s%s", now.Unix(), entropySuffix(), normalizeExt(ext))
}

func normalizeExt(ext string) string {
	ext = strings.TrimSpace(strings.ToLower(ext))
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
