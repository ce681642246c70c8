// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/modstats/lib/session"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func sampleStatic() Static {
	return Static{
		Platform:           PlatformLinux,
		InstalledWithSteam: true,
		GameVersion:        GameVersion{Build: 1024, Major: 1, Minor: 12, Revision: 5, Is64: true},
		SystemInfo:         SystemInfo{CPUs: 8, GPUMemory: 4096, GPUVendorID: 0x10de, SystemMemory: 16000, Kernel: "6.8.0"},
		SubComponents: []SubComponent{{
			Name:        "Orbiter",
			Title:       "Orbit Tools",
			SHA256:      strings.Repeat("ab", 32),
			FileVersion: FileVersion{Major: 2, Minor: 1},
		}},
	}
}

func sampleDocument() *Document {
	return Build("0123456789abcdef0123456789abcdef", 8, Session{
		Started:  epoch,
		Finished: epoch.Add(5 * time.Second),
		Phases: map[session.Phase]time.Duration{
			"MainMenu": time.Second,
			"Flight":   4 * time.Second,
		},
	}, sampleStatic())
}

func TestBuildScenes(t *testing.T) {
	document := sampleDocument()

	want := map[string]float64{"mainmenu": 1000, "flight": 4000}
	if len(document.Scenes) != len(want) {
		t.Fatalf("scenes = %v, want %v", document.Scenes, want)
	}
	for key, value := range want {
		if document.Scenes[key] != value {
			t.Errorf("scenes[%q] = %v, want %v", key, document.Scenes[key], value)
		}
	}
}

func TestBuildFractionalMilliseconds(t *testing.T) {
	document := Build("0123456789abcdef0123456789abcdef", 8, Session{
		Phases: map[session.Phase]time.Duration{"Flight": 1500 * time.Microsecond},
	}, Static{Platform: PlatformWindows})
	if got := document.Scenes["flight"]; got != 1.5 {
		t.Errorf("flight = %v, want 1.5", got)
	}
}

func TestEncodeShape(t *testing.T) {
	data, err := Encode(sampleDocument())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var generic map[string]any
	if err := json.Unmarshal(data, &generic); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{
		"started", "finished", "crashed", "statisticsVersion", "platform", "id",
		"installedWithSteam", "gameVersion", "scenes", "systemInfo", "subComponents",
	} {
		if _, ok := generic[key]; !ok {
			t.Errorf("encoded report is missing %q", key)
		}
	}
	if generic["started"] != "2026-03-01T12:00:00Z" {
		t.Errorf("started = %v, want RFC 3339 UTC", generic["started"])
	}
	if !strings.Contains(string(data), `"scenes":{"flight":4000,"mainmenu":1000}`) {
		t.Errorf("scenes not sorted or not in milliseconds: %s", data)
	}
}

func TestEncodeEmptyCollections(t *testing.T) {
	document := Build("0123456789abcdef0123456789abcdef", 8, Session{}, Static{Platform: PlatformMac})
	data, err := Encode(document)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(string(data), `"scenes":{}`) || !strings.Contains(string(data), `"subComponents":[]`) {
		t.Errorf("empty collections should encode as {} and []: %s", data)
	}
}

func TestValidate(t *testing.T) {
	valid, err := Encode(sampleDocument())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if err := Validate(valid); err != nil {
		t.Fatalf("Validate(valid report) = %v", err)
	}

	mutate := func(change func(map[string]any)) []byte {
		var generic map[string]any
		if err := json.Unmarshal(valid, &generic); err != nil {
			t.Fatal(err)
		}
		change(generic)
		data, err := json.Marshal(generic)
		if err != nil {
			t.Fatal(err)
		}
		return data
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"missing id", mutate(func(m map[string]any) { delete(m, "id") })},
		{"dashed id", mutate(func(m map[string]any) { m["id"] = "01234567-89ab-cdef-0123-456789abcdef" })},
		{"unknown platform", mutate(func(m map[string]any) { m["platform"] = "beos" })},
		{"negative scene", mutate(func(m map[string]any) { m["scenes"] = map[string]any{"flight": -1} })},
		{"bad timestamp", mutate(func(m map[string]any) { m["started"] = "yesterday" })},
		{"not an object", []byte(`[1, 2, 3]`)},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := Validate(test.data)
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestValidateAcceptsUnknownFields(t *testing.T) {
	data, err := Encode(sampleDocument())
	if err != nil {
		t.Fatal(err)
	}
	extended := strings.Replace(string(data), `{"started"`, `{"futureField":true,"started"`, 1)
	if err := Validate([]byte(extended)); err != nil {
		t.Errorf("Validate rejected an additive field: %v", err)
	}
}

func TestDigestIgnoresFormatting(t *testing.T) {
	compact := []byte(`{"b":1,"a":[true,"x"]}`)
	spaced := []byte("{\n  \"a\": [ true, \"x\" ],\n  \"b\": 1.0\n}")

	first, err := Digest(compact)
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	second, err := Digest(spaced)
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	if first != second {
		t.Errorf("digests differ: %s vs %s", first, second)
	}
	if len(first) != 64 {
		t.Errorf("digest length = %d, want 64 hex chars", len(first))
	}

	different, err := Digest([]byte(`{"a":[true,"x"],"b":2}`))
	if err != nil {
		t.Fatal(err)
	}
	if different == first {
		t.Error("different documents produced the same digest")
	}
}

func TestDigestRejectsInvalidJSON(t *testing.T) {
	if _, err := Digest([]byte(`{"a":`)); err == nil {
		t.Error("Digest accepted truncated JSON")
	}
}

func TestDecode(t *testing.T) {
	data, err := Encode(sampleDocument())
	if err != nil {
		t.Fatal(err)
	}
	document, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if document.ID != "0123456789abcdef0123456789abcdef" || !document.Finished.Equal(epoch.Add(5*time.Second)) {
		t.Errorf("decoded document = %+v", document)
	}
}
