// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package collector

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"

	"github.com/bureau-foundation/modstats/lib/codec"
	"github.com/bureau-foundation/modstats/lib/report"
)

// MaxReportSize bounds an accepted request body. Real reports are a few
// kilobytes even with large sub-component inventories.
const MaxReportSize = 1 << 20

var digestPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// Server serves the collector's HTTP API.
type Server struct {
	store  *Store
	logger *slog.Logger
}

// NewServer returns a server over store.
func NewServer(store *Store, logger *slog.Logger) *Server {
	return &Server{store: store, logger: logger}
}

// Handler returns the routed HTTP handler:
//
//	POST /statistics/report            store a report, reply "OK"
//	GET  /statistics/reports/{digest}  stored report (?format=cbor|diag)
//	GET  /statistics/count             {"count": n} (?id= filters)
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Route("/statistics", func(r chi.Router) {
		r.Post("/report", s.handleReport)
		r.Get("/reports/{digest}", s.handleGetReport)
		r.Get("/count", s.handleCount)
	})
	return r
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxReportSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "report too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "reading body", http.StatusBadRequest)
		return
	}

	if err := report.Validate(body); err != nil {
		s.logger.Warn("rejected report", "error", err, "remote", r.RemoteAddr)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	document, err := report.Decode(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	digest, err := report.Digest(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	inserted, err := s.store.Put(r.Context(), digest, document, body)
	if err != nil {
		s.logger.Error("storing report failed", "digest", digest, "error", err)
		http.Error(w, "storing report", http.StatusInternalServerError)
		return
	}

	s.logger.Info("received report",
		"id", document.ID,
		"digest", digest,
		"statistics_version", document.StatisticsVersion,
		"crashed", document.Crashed,
		"duplicate", !inserted,
	)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "OK")
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	digest := chi.URLParam(r, "digest")
	if !digestPattern.MatchString(digest) {
		http.Error(w, "malformed digest", http.StatusBadRequest)
		return
	}

	stored, err := s.store.Get(r.Context(), digest)
	if errors.Is(err, ErrNotFound) {
		http.Error(w, "report not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("reading report failed", "digest", digest, "error", err)
		http.Error(w, "reading report", http.StatusInternalServerError)
		return
	}

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		w.Header().Set("Content-Type", "application/json")
		w.Write(stored.Body)
	case "cbor":
		w.Header().Set("Content-Type", "application/cbor")
		w.Write(stored.Document)
	case "diag":
		diagnostic, err := codec.Diagnose(stored.Document)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		io.WriteString(w, diagnostic)
	default:
		http.Error(w, "unknown format "+format, http.StatusBadRequest)
	}
}

func (s *Server) handleCount(w http.ResponseWriter, r *http.Request) {
	count, err := s.store.Count(r.Context(), r.URL.Query().Get("id"))
	if err != nil {
		s.logger.Error("counting reports failed", "error", err)
		http.Error(w, "counting reports", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{"count": count})
}
