// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Setting keys in settings.cfg.
const (
	keyDisabled = "disabled"
	keyUpdate   = "update"
	keyID       = "id"
)

var (
	// ErrAbsent is returned by Load when the settings file does not
	// exist.
	ErrAbsent = errors.New("identity: settings file absent")

	// ErrMalformed is returned by Load when the settings file exists
	// but contains no recognizable setting.
	ErrMalformed = errors.New("identity: settings file malformed")
)

// Identity is the durable per-installation configuration.
type Identity struct {
	// ID anonymously identifies the installation across sessions.
	ID uuid.UUID

	// Enabled is false once the user has declined reporting. Stored
	// inverted as "disabled" in the settings file.
	Enabled bool

	// AutoUpdate records whether the user allows automatic agent
	// updates. The agent itself only carries the flag.
	AutoUpdate bool
}

// New returns a first-run identity: a fresh random ID with reporting
// and automatic updates enabled.
func New() Identity {
	return Identity{ID: uuid.New(), Enabled: true, AutoUpdate: true}
}

// HexID returns the ID as 32 lower-case hex digits without dashes, the
// form used in settings.cfg and in reports.
func (identity Identity) HexID() string {
	return strings.ReplaceAll(identity.ID.String(), "-", "")
}

// Load reads the settings file at path. Malformed individual fields are
// replaced with their defaults (fresh ID, enabled, auto-update on) and
// reported through logger; the caller should Save the result so the
// repair is durable.
func Load(path string, logger *slog.Logger) (Identity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Identity{}, ErrAbsent
		}
		return Identity{}, fmt.Errorf("%w: reading %s: %v", ErrMalformed, path, err)
	}

	values := parse(data)
	if len(values) == 0 {
		return Identity{}, fmt.Errorf("%w: %s has no settings", ErrMalformed, path)
	}

	identity := New()

	if raw, ok := values[keyID]; !ok {
		logger.Warn("settings file has no id, generated a new one", "path", path)
	} else if parsed, err := uuid.Parse(raw); err != nil {
		logger.Warn("could not parse id, generated a new one", "path", path, "value", raw, "error", err)
	} else {
		identity.ID = parsed
	}

	if disabled, ok := parseBool(values, keyDisabled, path, logger); ok {
		identity.Enabled = !disabled
	}
	if update, ok := parseBool(values, keyUpdate, path, logger); ok {
		identity.AutoUpdate = update
	}

	return identity, nil
}

// parseBool looks up a boolean setting. It returns ok=false (and logs a
// warning) when the key is missing or its value is not a boolean.
func parseBool(values map[string]string, key, path string, logger *slog.Logger) (bool, bool) {
	raw, present := values[key]
	if !present {
		logger.Warn("settings file is missing a field, using default", "path", path, "field", key)
		return false, false
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		logger.Warn("could not parse field, using default", "path", path, "field", key, "value", raw)
		return false, false
	}
	return value, true
}

// parse extracts known "key = value" lines. Comment lines (// or #),
// blank lines, and unknown keys are ignored; the last occurrence of a
// key wins.
func parse(data []byte) map[string]string {
	values := make(map[string]string)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "//") || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		switch key {
		case keyDisabled, keyUpdate, keyID:
			values[key] = strings.TrimSpace(value)
		}
	}
	return values
}

// Save writes identity to path, replacing any previous content.
func Save(path string, identity Identity) error {
	var buffer bytes.Buffer
	buffer.WriteString("// To disable reporting, change the line below to \"disabled = true\"\n")
	buffer.WriteString("// Do NOT delete this folder. It could be reinstated by another component.\n")
	fmt.Fprintf(&buffer, "%s = %t\n", keyDisabled, !identity.Enabled)
	fmt.Fprintf(&buffer, "%s = %t\n", keyUpdate, identity.AutoUpdate)
	fmt.Fprintf(&buffer, "%s = %s\n", keyID, identity.HexID())

	if err := os.WriteFile(path, buffer.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing settings %s: %w", path, err)
	}
	return nil
}
