package pagination

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNormalizeLimit(t *testing.T) {
	cases := map[int]int{-1: DefaultLimit, 0: DefaultLimit, 7: 7, MaxLimit: MaxLimit, MaxLimit + 1: MaxLimit}
	for in, want := range cases {
		if got := NormalizeLimit(in); got != want {
			t.Fatalf("NormalizeLimit(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestCursorRoundTrip(t *testing.T) {
	want := Cursor{CreatedAt: time.Date(2026, 3, 2, 9, 0, 0, 123456789, time.UTC), ID: uuid.New()}
	got, err := ParseCursor(EncodeCursor(want))
	if err != nil {
		t.Fatalf("ParseCursor: %v", err)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) || got.ID != want.ID {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestParseCursorRejectsForeignValues(t *testing.T) {
	if c, err := ParseCursor("  "); c != nil || err != nil {
		t.Fatalf("blank cursor is the first page, got %v %v", c, err)
	}
	for _, bad := range []string{"%%%", "bm8tc2VwYXJhdG9y", "MjAyNi0wMy0wMnx4"} {
		if _, err := ParseCursor(bad); !errors.Is(err, ErrInvalidCursor) {
			t.Fatalf("ParseCursor(%q): expected ErrInvalidCursor, got %v", bad, err)
		}
	}
}

func TestTrim(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	position := func(i int) Cursor { return Cursor{CreatedAt: base.Add(-time.Duration(i) * time.Minute), ID: ids[i]} }

	rows, next := Trim([]int{0, 1, 2}, 2, position)
	if len(rows) != 2 || next == "" {
		t.Fatalf("expected a trimmed page with a cursor, got %v %q", rows, next)
	}
	c, err := ParseCursor(next)
	if err != nil || c.ID != ids[1] {
		t.Fatalf("cursor should point at the last kept row, got %+v %v", c, err)
	}

	rows, next = Trim([]int{0, 1}, 2, position)
	if len(rows) != 2 || next != "" {
		t.Fatalf("a short page has no next cursor, got %v %q", rows, next)
	}
}
