package api

import (
	"errors"
	"net/http"

	"github.com/hstefan/energy-sensors/internal/ingest"
	"github.com/hstefan/energy-sensors/internal/telegram"
)

// errNoSections is reported for input that contains no section header.
// The parser accepts such input as an empty document, but there is
// nothing for a client to use.
const errNoSections = "failed to parse event text: no sections found"

// BatchItem is one line of a batch parse response. Exactly one of
// Document and Error is set.
type BatchItem struct {
	Line     int                `json:"line"`
	Document *telegram.Document `json:"document,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// handleParseTelegram parses a single telegram and returns its document
// without storing anything.
func (s *Server) handleParseTelegram(w http.ResponseWriter, r *http.Request) {
	if !requireText(w, r) {
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	doc, err := s.ingest.Parse(string(body))
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeParse, err.Error())
		return
	}
	if doc.Len() == 0 {
		writeError(w, http.StatusBadRequest, ErrCodeParse, errNoSections)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleParseBatch parses one telegram per line. Lines that fail are
// reported in place; the response is 200 as long as the batch itself was
// acceptable.
func (s *Server) handleParseBatch(w http.ResponseWriter, r *http.Request) {
	if !requireText(w, r) {
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	results, err := s.ingest.ParseBatch(r.Context(), string(body))
	if err != nil {
		if errors.Is(err, ingest.ErrTooManyLines) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrCodeTooLarge, err.Error())
			return
		}
		s.logger.Warn("batch parse aborted", "error", err)
		writeInternalError(w, "batch parse aborted")
		return
	}

	items := make([]BatchItem, len(results))
	for i, res := range results {
		items[i] = BatchItem{Line: res.Line, Document: res.Document}
		switch {
		case res.Err != nil:
			items[i].Error = res.Err.Error()
		case res.Document.Len() == 0:
			items[i] = BatchItem{Line: res.Line, Error: errNoSections}
		}
	}
	writeJSON(w, http.StatusOK, items)
}
