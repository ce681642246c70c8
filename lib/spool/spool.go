// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package spool

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const (
	// SettingsName is the installation identity file.
	SettingsName = "settings.cfg"
	// CheckpointName holds the in-progress session, replaced whole.
	CheckpointName = "checkpoint.json"
	// PluginsName is the directory Install copies into.
	PluginsName = "Plugins"

	reportPrefix = "report-"
	reportSuffix = ".json"
)

// Dir is the durable folder.
type Dir struct {
	Root string
}

// New returns a Dir rooted at root. The directory is not created until
// [Dir.Ensure].
func New(root string) Dir {
	return Dir{Root: root}
}

// Ensure creates the folder if it does not exist.
func (d Dir) Ensure() error {
	if err := os.MkdirAll(d.Root, 0o755); err != nil {
		return fmt.Errorf("creating statistics folder: %w", err)
	}
	return nil
}

// SettingsPath returns the path of settings.cfg.
func (d Dir) SettingsPath() string { return filepath.Join(d.Root, SettingsName) }

// CheckpointPath returns the path of checkpoint.json.
func (d Dir) CheckpointPath() string { return filepath.Join(d.Root, CheckpointName) }

// ReportPath returns the path of report-<index>.json.
func (d Dir) ReportPath(index int) string {
	return filepath.Join(d.Root, reportPrefix+strconv.Itoa(index)+reportSuffix)
}

// NextReportPath returns the path of the lowest-numbered report slot
// that does not exist. Any error other than absence stops the search.
func (d Dir) NextReportPath() (string, error) {
	for index := 0; ; index++ {
		path := d.ReportPath(index)
		_, err := os.Lstat(path)
		if errors.Is(err, os.ErrNotExist) {
			return path, nil
		}
		if err != nil {
			return "", fmt.Errorf("finding free report slot: %w", err)
		}
	}
}

// Report is one queued report file.
type Report struct {
	Index int
	Path  string
}

// ReportIndex parses the index out of a report file name. Returns false
// for names that are not report-<non-negative integer>.json.
func ReportIndex(name string) (int, bool) {
	middle, ok := strings.CutPrefix(name, reportPrefix)
	if !ok {
		return 0, false
	}
	middle, ok = strings.CutSuffix(middle, reportSuffix)
	if !ok || middle == "" {
		return 0, false
	}
	for _, character := range middle {
		if character < '0' || character > '9' {
			return 0, false
		}
	}
	index, err := strconv.Atoi(middle)
	if err != nil {
		return 0, false
	}
	return index, true
}

// Reports lists the queued report files at the time of the call, sorted
// by index. A folder that does not exist has no reports.
func (d Dir) Reports() ([]Report, error) {
	entries, err := os.ReadDir(d.Root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing reports: %w", err)
	}

	var reports []Report
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		index, ok := ReportIndex(entry.Name())
		if !ok {
			continue
		}
		reports = append(reports, Report{Index: index, Path: filepath.Join(d.Root, entry.Name())})
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].Index < reports[j].Index })
	return reports, nil
}

// WriteCheckpoint replaces checkpoint.json with data.
func (d Dir) WriteCheckpoint(data []byte) error {
	if err := writeAtomic(d.CheckpointPath(), data); err != nil {
		return fmt.Errorf("writing checkpoint: %w", err)
	}
	return nil
}

// RemoveCheckpoint deletes checkpoint.json. Returns nil when there is
// none.
func (d Dir) RemoveCheckpoint() error {
	if err := os.Remove(d.CheckpointPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing checkpoint: %w", err)
	}
	return nil
}

// RecoverCheckpoint moves a leftover checkpoint.json into the next free
// report slot and returns the new path. Returns "" and nil when there
// is no checkpoint.
func (d Dir) RecoverCheckpoint() (string, error) {
	if _, err := os.Lstat(d.CheckpointPath()); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("checking for checkpoint: %w", err)
	}

	destination, err := d.NextReportPath()
	if err != nil {
		return "", err
	}
	if err := os.Rename(d.CheckpointPath(), destination); err != nil {
		return "", fmt.Errorf("recovering checkpoint: %w", err)
	}
	syncDirectory(d.Root)
	return destination, nil
}

// WriteReport stores data in the next free report slot and returns its
// path.
func (d Dir) WriteReport(data []byte) (string, error) {
	destination, err := d.NextReportPath()
	if err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	if err := writeAtomic(destination, data); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return destination, nil
}

// InstallItem is a file to place in Plugins/ under Name.
type InstallItem struct {
	Name   string
	Source string
}

// Install copies each item into Plugins/ unless a file with that name
// is already there. Returns the names that were copied.
func (d Dir) Install(items []InstallItem) ([]string, error) {
	plugins := filepath.Join(d.Root, PluginsName)
	if err := os.MkdirAll(plugins, 0o755); err != nil {
		return nil, fmt.Errorf("creating plugins directory: %w", err)
	}

	var installed []string
	for _, item := range items {
		destination := filepath.Join(plugins, item.Name)
		if _, err := os.Lstat(destination); err == nil {
			continue
		}
		if err := copyAtomic(item.Source, destination); err != nil {
			return installed, fmt.Errorf("installing %s: %w", item.Name, err)
		}
		installed = append(installed, item.Name)
	}
	return installed, nil
}

func copyAtomic(source, destination string) error {
	input, err := os.Open(source)
	if err != nil {
		return err
	}
	defer input.Close()

	info, err := input.Stat()
	if err != nil {
		return err
	}
	return writeAtomicFrom(destination, input, info.Mode().Perm())
}

func writeAtomic(path string, data []byte) error {
	return writeAtomicFrom(path, bytes.NewReader(data), 0o644)
}

// writeAtomicFrom writes the content of source to a temporary file in
// path's directory, fsyncs it, and renames it over path. Readers never
// see a partial write.
func writeAtomicFrom(path string, source io.Reader, mode os.FileMode) error {
	directory := filepath.Dir(path)
	file, err := os.CreateTemp(directory, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}
	temporaryPath := file.Name()

	// Write, sync, close, in that order. If any step fails, remove the
	// temporary file and report the first error.
	if _, err := io.Copy(file, source); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("writing temporary file: %w", err)
	}
	if err := file.Chmod(mode); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("setting mode of temporary file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("syncing temporary file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("closing temporary file: %w", err)
	}

	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("renaming into place: %w", err)
	}
	syncDirectory(directory)
	return nil
}

// syncDirectory makes a completed rename durable across power loss.
// Failures are ignored: the rename itself already succeeded.
func syncDirectory(directory string) {
	handle, err := os.Open(directory)
	if err != nil {
		return
	}
	handle.Sync()
	handle.Close()
}
