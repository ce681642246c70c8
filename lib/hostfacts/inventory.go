// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hostfacts

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/modstats/lib/report"
)

// ManifestName is the file that describes a sub-component inside its
// directory.
const ManifestName = "component.yaml"

// Inventory enumerates the host's loaded sub-components. Items that
// cannot be inspected are omitted and reported through warnings.
type Inventory interface {
	SubComponents(warnings *WarnOnce) []report.SubComponent
}

// manifest is the on-disk form of component.yaml.
type manifest struct {
	Name                 string `yaml:"name"`
	Title                string `yaml:"title"`
	URL                  string `yaml:"url"`
	Binary               string `yaml:"binary"`
	HostVersions         string `yaml:"host_versions"`
	FileVersion          string `yaml:"file_version"`
	InformationalVersion string `yaml:"informational_version"`
}

// DirectoryInventory reads one sub-component per immediate
// subdirectory of Root that contains a component.yaml. The manifest's
// binary path is relative to the subdirectory and is hashed with
// SHA-256.
//
// An example manifest:
//
//	name: orbiter
//	title: Orbit Tools
//	url: https://example.org/orbiter
//	binary: Orbiter.dll
//	host_versions: "1.10-1.12"
//	file_version: 2.1.0.17
//	informational_version: 2.1.0-rc1
type DirectoryInventory struct {
	Root string
}

// SubComponents returns the inventory sorted by name. A missing Root
// yields an empty inventory.
func (d DirectoryInventory) SubComponents(warnings *WarnOnce) []report.SubComponent {
	entries, err := os.ReadDir(d.Root)
	if err != nil {
		if !os.IsNotExist(err) {
			warnings.Warn(d.Root, "cannot list sub-component directory", "error", err)
		}
		return nil
	}

	var components []report.SubComponent
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		directory := filepath.Join(d.Root, entry.Name())
		if _, err := os.Stat(filepath.Join(directory, ManifestName)); err != nil {
			continue
		}

		component, err := inspect(directory)
		if err != nil {
			warnings.Warn(entry.Name(), "error while inspecting sub-component, leaving it out of reports", "error", err)
			continue
		}
		components = append(components, component)
	}

	sort.Slice(components, func(i, j int) bool { return components[i].Name < components[j].Name })
	return components
}

func inspect(directory string) (report.SubComponent, error) {
	data, err := os.ReadFile(filepath.Join(directory, ManifestName))
	if err != nil {
		return report.SubComponent{}, fmt.Errorf("reading manifest: %w", err)
	}

	var parsed manifest
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return report.SubComponent{}, fmt.Errorf("parsing manifest: %w", err)
	}
	if parsed.Name == "" {
		return report.SubComponent{}, fmt.Errorf("manifest has no name")
	}

	component := report.SubComponent{
		Name:                 parsed.Name,
		Title:                parsed.Title,
		SourceURL:            parsed.URL,
		HostVersionRange:     parsed.HostVersions,
		InformationalVersion: parsed.InformationalVersion,
	}

	if parsed.FileVersion != "" {
		component.FileVersion, err = parseFileVersion(parsed.FileVersion)
		if err != nil {
			return report.SubComponent{}, err
		}
	}

	if parsed.Binary != "" {
		component.SHA256, err = hashFile(filepath.Join(directory, parsed.Binary))
		if err != nil {
			return report.SubComponent{}, err
		}
	}

	return component, nil
}

// parseFileVersion parses "major[.minor[.build[.revision]]]".
func parseFileVersion(value string) (report.FileVersion, error) {
	parts := strings.Split(value, ".")
	if len(parts) > 4 {
		return report.FileVersion{}, fmt.Errorf("file version %q has more than four parts", value)
	}
	var numbers [4]int
	for i, part := range parts {
		number, err := strconv.Atoi(part)
		if err != nil || number < 0 {
			return report.FileVersion{}, fmt.Errorf("file version %q: part %d is not a non-negative integer", value, i+1)
		}
		numbers[i] = number
	}
	return report.FileVersion{
		Major:    numbers[0],
		Minor:    numbers[1],
		Build:    numbers[2],
		Revision: numbers[3],
	}, nil
}

// hashFile streams a file through SHA-256 and returns the hex digest.
func hashFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
