// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
)

// captureLogger returns a logger writing text records into the
// returned buffer, so tests can assert on warnings.
func captureLogger() (*slog.Logger, *bytes.Buffer) {
	var buffer bytes.Buffer
	return slog.New(slog.NewTextHandler(&buffer, nil)), &buffer
}

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.cfg")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing settings: %v", err)
	}
	return path
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.cfg")
	original := Identity{
		ID:         uuid.MustParse("5f0c3a7d-9e8b-4c21-a6f2-d0b1c3e4f5a6"),
		Enabled:    true,
		AutoUpdate: false,
	}
	if err := Save(path, original); err != nil {
		t.Fatalf("Save: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading saved file: %v", err)
	}
	for _, line := range []string{"disabled = false", "update = false", "id = 5f0c3a7d9e8b4c21a6f2d0b1c3e4f5a6"} {
		if !strings.Contains(string(raw), line) {
			t.Errorf("saved file missing %q:\n%s", line, raw)
		}
	}

	logger, logs := captureLogger()
	loaded, err := Load(path, logger)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded != original {
		t.Errorf("Load() = %+v, want %+v", loaded, original)
	}
	if logs.Len() != 0 {
		t.Errorf("unexpected warnings for a well-formed file:\n%s", logs.String())
	}
}

func TestLoadAbsent(t *testing.T) {
	logger, _ := captureLogger()
	_, err := Load(filepath.Join(t.TempDir(), "missing.cfg"), logger)
	if !errors.Is(err, ErrAbsent) {
		t.Fatalf("Load() error = %v, want ErrAbsent", err)
	}
}

func TestLoadTotallyMalformed(t *testing.T) {
	logger, _ := captureLogger()
	path := writeSettings(t, "\x00\x01 this is not a settings file\n{[}]\n")
	_, err := Load(path, logger)
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("Load() error = %v, want ErrMalformed", err)
	}
}

func TestLoadFieldLevelRecovery(t *testing.T) {
	tests := []struct {
		name           string
		content        string
		wantEnabled    bool
		wantAutoUpdate bool
		wantID         string // empty means "any fresh ID"
		wantWarning    string
	}{
		{
			name:           "malformed id",
			content:        "disabled = false\nupdate = false\nid = not-a-uuid\n",
			wantEnabled:    true,
			wantAutoUpdate: false,
			wantWarning:    "could not parse id",
		},
		{
			name:           "malformed disabled flag",
			content:        "disabled = maybe\nupdate = false\nid = 5f0c3a7d9e8b4c21a6f2d0b1c3e4f5a6\n",
			wantEnabled:    true,
			wantAutoUpdate: false,
			wantID:         "5f0c3a7d9e8b4c21a6f2d0b1c3e4f5a6",
			wantWarning:    "field=disabled",
		},
		{
			name:           "malformed update flag",
			content:        "disabled = true\nupdate = sometimes\nid = 5f0c3a7d9e8b4c21a6f2d0b1c3e4f5a6\n",
			wantEnabled:    false,
			wantAutoUpdate: true,
			wantID:         "5f0c3a7d9e8b4c21a6f2d0b1c3e4f5a6",
			wantWarning:    "field=update",
		},
		{
			name:           "missing id",
			content:        "// comment\ndisabled = false\nupdate = true\n",
			wantEnabled:    true,
			wantAutoUpdate: true,
			wantWarning:    "no id",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			logger, logs := captureLogger()
			identity, err := Load(writeSettings(t, test.content), logger)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if identity.Enabled != test.wantEnabled {
				t.Errorf("Enabled = %v, want %v", identity.Enabled, test.wantEnabled)
			}
			if identity.AutoUpdate != test.wantAutoUpdate {
				t.Errorf("AutoUpdate = %v, want %v", identity.AutoUpdate, test.wantAutoUpdate)
			}
			if identity.ID == uuid.Nil {
				t.Error("ID is nil, want a usable ID")
			}
			if test.wantID != "" && identity.HexID() != test.wantID {
				t.Errorf("HexID() = %q, want %q", identity.HexID(), test.wantID)
			}
			if !strings.Contains(logs.String(), test.wantWarning) {
				t.Errorf("warning %q not logged:\n%s", test.wantWarning, logs.String())
			}
		})
	}
}

func TestLoadAcceptsDashedID(t *testing.T) {
	logger, _ := captureLogger()
	path := writeSettings(t, "disabled = false\nupdate = true\nid = 5f0c3a7d-9e8b-4c21-a6f2-d0b1c3e4f5a6\n")
	identity, err := Load(path, logger)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if identity.HexID() != "5f0c3a7d9e8b4c21a6f2d0b1c3e4f5a6" {
		t.Errorf("HexID() = %q", identity.HexID())
	}
}

func TestNewDefaults(t *testing.T) {
	first, second := New(), New()
	if !first.Enabled || !first.AutoUpdate {
		t.Errorf("New() = %+v, want enabled with auto-update", first)
	}
	if first.ID == second.ID {
		t.Error("New() returned the same ID twice")
	}
	if len(first.HexID()) != 32 {
		t.Errorf("HexID() length = %d, want 32", len(first.HexID()))
	}
}
