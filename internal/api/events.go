package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hstefan/energy-sensors/internal/clustering"
	"github.com/hstefan/energy-sensors/internal/event"
	"github.com/hstefan/energy-sensors/internal/ingest"
	"github.com/hstefan/energy-sensors/internal/telegram"
)

// Pagination bounds for GET /events.
const (
	defaultEventLimit = 50
	maxEventLimit     = 500
)

// EventResponse is a stored event with its current cluster label. The
// label is null when the event has not been clustered yet.
type EventResponse struct {
	event.Record
	ClusterLabel *int `json:"cluster_label"`
}

// EventList is the body of GET /events.
type EventList struct {
	Events []event.Record `json:"events"`
	Count  int            `json:"count"`
	Total  int64          `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// handleStoreEvent ingests a telegram (text/plain) or an already parsed
// document (application/json).
func (s *Server) handleStoreEvent(w http.ResponseWriter, r *http.Request) {
	mt, err := mediaType(r)
	if err != nil || (mt != mediaText && mt != mediaJSON) {
		writeError(w, http.StatusUnsupportedMediaType, ErrCodeUnsupportedMedia,
			"content type must be text/plain or application/json")
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	var rec *event.Record
	if mt == mediaJSON {
		doc, docErr := telegram.DocumentFromJSON(body)
		if docErr != nil {
			writeBadRequest(w, docErr.Error())
			return
		}
		rec, err = s.ingest.IngestDocument(r.Context(), ingest.SourceJSON, doc)
	} else {
		rec, err = s.ingest.Ingest(r.Context(), ingest.SourceHTTP, string(body))
	}

	switch {
	case err == nil:
	case errors.Is(err, ingest.ErrParse):
		writeError(w, http.StatusBadRequest, ErrCodeParse, err.Error())
		return
	case errors.Is(err, ingest.ErrMapping):
		writeError(w, http.StatusUnprocessableEntity, ErrCodeMapping, err.Error())
		return
	default:
		s.logger.Error("failed to store event",
			"error", err,
			"request_id", r.Context().Value(ctxKeyRequestID),
		)
		writeInternalError(w, "failed to store event")
		return
	}

	s.logger.Debug("event stored via API",
		"event_id", rec.ID,
		"subject", r.Context().Value(ctxKeySubject),
	)
	w.Header().Set("Location", "/api/v1/events/"+strconv.FormatInt(rec.ID, 10))
	writeJSON(w, http.StatusCreated, rec)
}

// handleListEvents returns stored events newest first.
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit", defaultEventLimit, 1, maxEventLimit)
	if !ok {
		return
	}
	offset, ok := queryInt(w, r, "offset", 0, 0, -1)
	if !ok {
		return
	}

	ctx := r.Context()
	events, err := s.events.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list events", "error", err)
		writeInternalError(w, "failed to list events")
		return
	}
	if events == nil {
		events = []event.Record{}
	}
	total, err := s.events.Count(ctx)
	if err != nil {
		s.logger.Error("failed to count events", "error", err)
		writeInternalError(w, "failed to count events")
		return
	}

	writeJSON(w, http.StatusOK, EventList{
		Events: events,
		Count:  len(events),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// handleGetEvent returns one event and its cluster label.
func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeBadRequest(w, "event id must be a positive integer")
		return
	}

	ctx := r.Context()
	rec, err := s.events.Get(ctx, id)
	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			writeNotFound(w, "event not found")
			return
		}
		s.logger.Error("failed to get event", "event_id", id, "error", err)
		writeInternalError(w, "failed to get event")
		return
	}

	resp := EventResponse{Record: *rec}
	label, err := s.clusters.ClusterOf(ctx, id)
	switch {
	case err == nil:
		resp.ClusterLabel = &label
	case errors.Is(err, clustering.ErrNotClustered):
	default:
		s.logger.Warn("failed to look up cluster label", "event_id", id, "error", err)
	}
	writeJSON(w, http.StatusOK, resp)
}

// queryInt reads an optional integer query parameter bounded below by
// lo and, when hi >= 0, above by hi.
func queryInt(w http.ResponseWriter, r *http.Request, name string, def, lo, hi int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < lo || (hi >= 0 && v > hi) {
		msg := name + " must be an integer >= " + strconv.Itoa(lo)
		if hi >= 0 {
			msg += " and <= " + strconv.Itoa(hi)
		}
		writeError(w, http.StatusBadRequest, ErrCodeValidation, msg)
		return 0, false
	}
	return v, true
}
