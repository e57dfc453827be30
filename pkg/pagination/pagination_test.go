package pagination

import (
	"testing"
	"time"
)

func TestNormalizeLimit(t *testing.T) {
	if got := NormalizeLimit(0); got != DefaultLimit {
		t.Fatalf("expected default limit, got %d", got)
	}
	if got := NormalizeLimit(-5); got != DefaultLimit {
		t.Fatalf("expected default limit for negative input, got %d", got)
	}
	if got := NormalizeLimit(500); got != MaxLimit {
		t.Fatalf("expected max limit cap, got %d", got)
	}
	if got := NormalizeLimit(10); got != 10 {
		t.Fatalf("expected passthrough, got %d", got)
	}
	if got := LimitWithBuffer(10); got != 11 {
		t.Fatalf("expected buffered limit 11, got %d", got)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	encoded := EncodeCursor(Cursor{CreatedAt: now, ID: 42})

	cursor, err := ParseCursor(encoded)
	if err != nil {
		t.Fatalf("ParseCursor failed: %v", err)
	}
	if cursor == nil {
		t.Fatal("expected cursor, got nil")
	}
	if !cursor.CreatedAt.Equal(now) {
		t.Fatalf("timestamp mismatch: got %v want %v", cursor.CreatedAt, now)
	}
	if cursor.ID != 42 {
		t.Fatalf("id mismatch: got %d", cursor.ID)
	}
}

func TestParseCursorEmpty(t *testing.T) {
	cursor, err := ParseCursor("  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cursor != nil {
		t.Fatal("expected nil cursor for blank input")
	}
}

func TestParseCursorMalformed(t *testing.T) {
	if _, err := ParseCursor("!!not-base64!!"); err == nil {
		t.Fatal("expected decode error")
	}
	if _, err := ParseCursor("bm90LWEtY3Vyc29y"); err == nil {
		t.Fatal("expected format error")
	}
}
