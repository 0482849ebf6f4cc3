package storage

import (
	"testing"

	"kamaris/internal/config"
)

func validS3Config() config.ObjectStoreConfig {
	return config.ObjectStoreConfig{
		Endpoint:      "http://localhost:3900",
		Region:        "garage",
		AccessKey:     "GK123",
		SecretKey:     "secret",
		Bucket:        "media",
		PublicBaseURL: "https://cdn.example.com/media/",
	}
}

func TestNewS3StoreRejectsIncompleteConfig(t *testing.T) {
	t.Parallel()

	cfg := validS3Config()
	cfg.SecretKey = ""

	if _, err := NewS3Store(cfg); err == nil {
		t.Fatal("expected fail-fast on missing credentials")
	}
}

func TestPublicURL(t *testing.T) {
	t.Parallel()

	store, err := NewS3Store(validS3Config())
	if err != nil {
		t.Fatalf("could not build store: %v", err)
	}

	tests := []struct {
		key  string
		want string
	}{
		{"images/church.jpg", "https://cdn.example.com/media/images/church.jpg"},
		{"/images/church.jpg", "https://cdn.example.com/media/images/church.jpg"},
		{"images/old church.jpg", "https://cdn.example.com/media/images/old%20church.jpg"},
	}

	for _, tt := range tests {
		if got := store.PublicURL(tt.key); got != tt.want {
			t.Errorf("PublicURL(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestStringListContains(t *testing.T) {
	t.Parallel()

	tags := StringList{"history", "culture"}

	if !tags.Contains("history") {
		t.Error("expected membership")
	}
	if tags.Contains("food") {
		t.Error("unexpected membership")
	}
	if (StringList{}).Contains("anything") {
		t.Error("empty list contains nothing")
	}
}

func TestStringListRoundTrip(t *testing.T) {
	t.Parallel()

	v, err := StringList{"a", "b"}.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}

	var got StringList
	if err := got.Scan(v); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("round trip lost data: %v", got)
	}

	var empty StringList
	if err := empty.Scan(nil); err != nil {
		t.Fatalf("Scan(nil) failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("nil should scan to empty, got %v", empty)
	}
}
