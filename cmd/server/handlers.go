package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/choclar/precificador/internal/history"
	"github.com/choclar/precificador/internal/obs"
	"github.com/choclar/precificador/internal/pricing"
	"github.com/choclar/precificador/internal/report"
	"github.com/choclar/precificador/internal/workspace"
)

// analyzer is the narrow interface the server needs from the insight client.
type analyzer interface {
	Analyze(ctx context.Context, items []pricing.ItemResult, summary pricing.Summary) string
}

// server orchestrates the live workspace, the pricing engine, the history
// store, the report renderer, and the insight client. The mutex serializes
// the single logical thread of control over the working state; the pricing
// engine itself stays pure and is re-run from scratch on every access.
type server struct {
	db       *sql.DB
	store    *history.Store
	insights analyzer
	log      zerolog.Logger

	mu             sync.Mutex
	ws             *workspace.Workspace
	insightText    string
	insightPending bool
	insightGen     uint64
	insightTimeout time.Duration
}

func newServer(database *sql.DB, store *history.Store, insights analyzer, insightTimeout time.Duration, log zerolog.Logger) *server {
	return &server{
		db:             database,
		store:          store,
		insights:       insights,
		log:            log,
		ws:             workspace.New(),
		insightTimeout: insightTimeout,
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(obs.RequestLogger{Logger: s.log}.Middleware)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Post("/items", s.handleItemAdd)
		r.Patch("/items/{id}", s.handleItemUpdate)
		r.Delete("/items/{id}", s.handleItemRemove)
		r.Put("/adjustments", s.handleAdjustmentsSet)
		r.Put("/save-name", s.handleSaveNameSet)
		r.Get("/history", s.handleHistoryList)
		r.Post("/history", s.handleHistorySave)
		r.Delete("/history/{id}", s.handleHistoryRemove)
		r.Post("/history/{id}/load", s.handleHistoryLoad)
		r.Get("/insights", s.handleInsightState)
		r.Post("/insights", s.handleInsightRequest)
		r.Get("/report", s.handleReport)
	})

	return r
}

type insightState struct {
	Pending bool   `json:"pending"`
	Text    string `json:"text"`
}

type stateResponse struct {
	Items    []pricing.LineItem   `json:"items"`
	Results  []pricing.ItemResult `json:"results"`
	Summary  pricing.Summary      `json:"summary"`
	SaveName string               `json:"saveName"`
	Insight  insightState         `json:"insight"`
}

// stateLocked builds the full state payload. Caller holds s.mu.
func (s *server) stateLocked() stateResponse {
	result := s.ws.Calculate()
	return stateResponse{
		Items:    s.ws.Items,
		Results:  result.Items,
		Summary:  result.Summary,
		SaveName: s.ws.SaveName,
		Insight:  insightState{Pending: s.insightPending, Text: s.insightText},
	}
}

// clearInsightLocked discards the insight display state and invalidates any
// in-flight request so its late completion is dropped. Caller holds s.mu.
func (s *server) clearInsightLocked() {
	s.insightGen++
	s.insightPending = false
	s.insightText = ""
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.PingContext(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "db_unavailable", "database is not reachable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleState(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	state := s.stateLocked()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, state)
}

func (s *server) handleItemAdd(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.ws.AddItem()
	state := s.stateLocked()
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, state)
}

func (s *server) handleItemUpdate(w http.ResponseWriter, r *http.Request) {
	var patch workspace.ItemPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must be a JSON item patch")
		return
	}

	s.mu.Lock()
	err := s.ws.UpdateItem(chi.URLParam(r, "id"), patch)
	state := s.stateLocked()
	s.mu.Unlock()

	if errors.Is(err, workspace.ErrItemNotFound) {
		writeError(w, http.StatusNotFound, "item_not_found", "no item with that id")
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *server) handleItemRemove(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	removed, err := s.ws.RemoveItem(chi.URLParam(r, "id"))
	state := s.stateLocked()
	s.mu.Unlock()

	switch {
	case errors.Is(err, workspace.ErrLastItem):
		writeError(w, http.StatusUnprocessableEntity, "last_item", "não é possível remover o último item")
		return
	case errors.Is(err, workspace.ErrItemNotFound):
		writeError(w, http.StatusNotFound, "item_not_found", "no item with that id")
		return
	}

	s.log.Debug().Str("item_id", removed.ID).Str("description", removed.Description).Msg("item removed")
	writeJSON(w, http.StatusOK, state)
}

func (s *server) handleAdjustmentsSet(w http.ResponseWriter, r *http.Request) {
	var adj pricing.Adjustments
	if err := json.NewDecoder(r.Body).Decode(&adj); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must be a JSON adjustments object")
		return
	}

	// Percentages are applied as given; out-of-range and negative values are
	// part of the calculation contract, not validation errors.
	s.mu.Lock()
	s.ws.Adjustments = adj
	state := s.stateLocked()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, state)
}

func (s *server) handleSaveNameSet(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must be a JSON object with a name")
		return
	}

	s.mu.Lock()
	s.ws.SaveName = body.Name
	state := s.stateLocked()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, state)
}

func (s *server) handleHistoryList(w http.ResponseWriter, r *http.Request) {
	snapshots, err := s.store.List()
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list history")
		writeError(w, http.StatusInternalServerError, "history_unavailable", "failed to load history")
		return
	}
	writeJSON(w, http.StatusOK, snapshots)
}

func (s *server) handleHistorySave(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if r.Body != nil {
		// The name may also have been staged via PUT /api/save-name.
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	s.mu.Lock()
	name := body.Name
	if name == "" {
		name = s.ws.SaveName
	}
	result := s.ws.Calculate()
	snap, err := history.NewSnapshot(name, s.ws.Items, s.ws.Adjustments, result.Summary.GrandTotal, time.Now())
	if err != nil {
		s.mu.Unlock()
		writeError(w, http.StatusUnprocessableEntity, "empty_name", "dê um nome para a nota primeiro")
		return
	}

	if err := s.store.Append(snap); err != nil {
		s.mu.Unlock()
		s.log.Error().Err(err).Msg("failed to save snapshot")
		writeError(w, http.StatusInternalServerError, "save_failed", "failed to save snapshot")
		return
	}

	// Save is archive-and-clear: the working state resets to a blank note.
	s.ws.Reset()
	s.clearInsightLocked()
	state := s.stateLocked()
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]any{
		"snapshot": snap,
		"state":    state,
	})
}

func (s *server) handleHistoryRemove(w http.ResponseWriter, r *http.Request) {
	err := s.store.Remove(chi.URLParam(r, "id"))
	if errors.Is(err, history.ErrSnapshotNotFound) {
		writeError(w, http.StatusNotFound, "snapshot_not_found", "no snapshot with that id")
		return
	}
	if err != nil {
		s.log.Error().Err(err).Msg("failed to remove snapshot")
		writeError(w, http.StatusInternalServerError, "remove_failed", "failed to remove snapshot")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (s *server) handleHistoryLoad(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Get(chi.URLParam(r, "id"))
	if errors.Is(err, history.ErrSnapshotNotFound) {
		writeError(w, http.StatusNotFound, "snapshot_not_found", "no snapshot with that id")
		return
	}
	if err != nil {
		s.log.Error().Err(err).Msg("failed to load snapshot")
		writeError(w, http.StatusInternalServerError, "load_failed", "failed to load snapshot")
		return
	}

	s.mu.Lock()
	s.ws.Load(snap.Items, pricing.Adjustments{
		Freight:         snap.Freight,
		DiscountPercent: snap.DiscountPercent,
		MarkupPercent:   snap.MarkupPercent,
	}, snap.Name)
	s.clearInsightLocked()
	state := s.stateLocked()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, state)
}

func (s *server) handleInsightState(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	state := insightState{Pending: s.insightPending, Text: s.insightText}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, state)
}

func (s *server) handleInsightRequest(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if s.insightPending {
		s.mu.Unlock()
		writeError(w, http.StatusConflict, "insight_pending", "an insight request is already in flight")
		return
	}

	result := s.ws.Calculate()
	if result.Summary.SubtotalItems == 0 {
		s.mu.Unlock()
		writeError(w, http.StatusUnprocessableEntity, "empty_calculation", "lance itens com custo antes de pedir insights")
		return
	}

	s.insightGen++
	gen := s.insightGen
	s.insightPending = true
	s.insightText = ""
	items, summary := result.Items, result.Summary
	s.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.insightTimeout)
		defer cancel()

		text := s.insights.Analyze(ctx, items, summary)

		s.mu.Lock()
		defer s.mu.Unlock()
		// A newer request or a workspace reset supersedes this completion.
		if gen != s.insightGen {
			return
		}
		s.insightText = text
		s.insightPending = false
	}()

	writeJSON(w, http.StatusAccepted, insightState{Pending: true})
}

func (s *server) handleReport(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	result := s.ws.Calculate()
	input := report.Input{
		Name:      s.ws.SaveName,
		Results:   result.Items,
		Summary:   result.Summary,
		Insight:   s.insightText,
		Generated: time.Now(),
	}
	filename := report.FileName(s.ws.SaveName)
	s.mu.Unlock()

	var buf bytes.Buffer
	if err := report.Render(&buf, input); err != nil {
		s.log.Error().Err(err).Msg("failed to render report")
		writeError(w, http.StatusInternalServerError, "report_failed", "failed to render report")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = w.Write(buf.Bytes())
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]errorBody{"error": {Code: code, Message: message}})
}
