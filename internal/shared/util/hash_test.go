package util

import "testing"

func TestContentHash(t *testing.T) {
	got := ContentHash([]byte("resume"))
	if got != ContentHash([]byte("resume")) {
		t.Fatalf("expected stable hash, got %s", got)
	}
	for _, ch := range got {
		if !((ch >= 'a' && ch <= 'f') || (ch >= '0' && ch <= '9')) {
			t.Fatalf("hash contains non-hex character: %c", ch)
		}
	}
	if len(got) != 64 {
		t.Fatalf("expected 64 hex characters, got %d", len(got))
	}
}

func TestShortHash(t *testing.T) {
	// sha256("") = e3b0c44298fc1c149afbf4c8996fb924...
	if got := ShortHash(nil); got != "e3b0c44298fc1c14" {
		t.Fatalf("unexpected short hash %s", got)
	}
	if ShortHash([]byte("a")) == ShortHash([]byte("b")) {
		t.Fatalf("expected distinct hashes")
	}
}
