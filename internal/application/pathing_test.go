package application

import (
	"strings"
	"testing"
	"time"

	"github.com/Mielola/api-photobooth/internal/domain"
)

func TestSlug(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Summer Wedding", "summer-wedding"},
		{"  Anna & Ben!  ", "anna-ben"},
		{"--- ***", "untitled"},
		{"", "untitled"},
		{"MiXeD CaSe 123", "mixed-case-123"},
		{"a//b\\c", "a-b-c"},
	}
	for _, tc := range cases {
		if got := Slug(tc.in); got != tc.want {
			t.Fatalf("Slug(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}

	if got := SlugUnderscore("Anna & Ben"); got != "anna_ben" {
		t.Fatalf("SlugUnderscore = %q", got)
	}
}

func TestCanonicalFolderLayout(t *testing.T) {
	event := domain.Event{UID: "01ARZ3NDEK", Name: "Summer Wedding", CoupleName: "Anna & Ben"}
	session := domain.Session{UID: "01BX5ZZKBK"}

	if got := EventFolder(event); got != "events/summer-wedding-01ARZ3NDEK" {
		t.Fatalf("EventFolder = %q", got)
	}
	if got := BackgroundFolder(event); got != "events/summer-wedding-01ARZ3NDEK/background" {
		t.Fatalf("BackgroundFolder = %q", got)
	}
	if got := FrameFolder(event); got != "events/summer-wedding-01ARZ3NDEK/frames" {
		t.Fatalf("FrameFolder = %q", got)
	}
	if got := SessionFolder(event, session); got != "events/summer-wedding-01ARZ3NDEK/photos/anna_ben/01BX5ZZKBK" {
		t.Fatalf("SessionFolder = %q", got)
	}
}

func TestPhotoFilenameShape(t *testing.T) {
	now := time.Unix(1736598000, 0)

	name := PhotoFilename(domain.PhotoKindFramed, now, "jpg")
	if !strings.HasPrefix(name, "framed_1736598000_") || !strings.HasSuffix(name, ".jpg") {
		t.Fatalf("unexpected filename %q", name)
	}

	other := PhotoFilename(domain.PhotoKindFramed, now, ".jpg")
	if other == name {
		t.Fatalf("two filenames in the same second must differ")
	}

	if got := FrameFilename(now, "PNG"); !strings.HasPrefix(got, "frame_1736598000_") || !strings.HasSuffix(got, ".png") {
		t.Fatalf("unexpected frame filename %q", got)
	}
	if got := BackgroundFilename(now, ""); !strings.HasPrefix(got, "background_1736598000_") || strings.Contains(got, ".") {
		t.Fatalf("unexpected background filename %q", got)
	}
}
