package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/matheus3301/guestbook/internal/entry"
	"github.com/matheus3301/guestbook/internal/store"
	"go.uber.org/zap"
)

// Store is the persistence the entry handlers need.
type Store interface {
	ListEntries(ctx context.Context) ([]entry.Entry, error)
	InsertEntry(ctx context.Context, in entry.Input) (entry.Entry, error)
	ReplaceEntry(ctx context.Context, id entry.ID, in entry.Input) (entry.Entry, error)
	DeleteEntry(ctx context.Context, id entry.ID) error
}

const missingFieldsText = "Name and message are required"

// ErrorResponse is the JSON body of every non-2xx answer.
type ErrorResponse struct {
	Error string `json:"error"`
}

// EntryService serves the guestbook collection.
type EntryService struct {
	store  Store
	logger *zap.Logger
}

// NewEntryService creates the handlers backed by s.
func NewEntryService(s Store, logger *zap.Logger) *EntryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EntryService{store: s, logger: logger}
}

// HandleList answers with every entry, newest first.
func (s *EntryService) HandleList(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.ListEntries(r.Context())
	if err != nil {
		s.logger.Error("list entries failed", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "Failed to fetch entries")
		return
	}
	if entries == nil {
		entries = []entry.Entry{}
	}
	render.JSON(w, r, entries)
}

// HandleCreate inserts a new entry and answers 201 with it.
func (s *EntryService) HandleCreate(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeInput(w, r)
	if !ok {
		return
	}
	created, err := s.store.InsertEntry(r.Context(), in)
	if err != nil {
		s.logger.Error("insert entry failed", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "Failed to create entry")
		return
	}
	s.logger.Info("entry created", zap.String("id", string(created.ID)))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, created)
}

// HandleReplace overwrites the entry named in the path.
func (s *EntryService) HandleReplace(w http.ResponseWriter, r *http.Request) {
	id := entryID(r)
	in, ok := decodeInput(w, r)
	if !ok {
		return
	}
	updated, err := s.store.ReplaceEntry(r.Context(), id, in)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "Entry not found")
		return
	}
	if err != nil {
		s.logger.Error("replace entry failed", zap.Error(err), zap.String("id", string(id)))
		writeError(w, r, http.StatusInternalServerError, "Failed to update entry")
		return
	}
	s.logger.Info("entry replaced", zap.String("id", string(id)))
	render.JSON(w, r, updated)
}

// HandleDelete removes the entry named in the path and answers 204.
func (s *EntryService) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := entryID(r)
	err := s.store.DeleteEntry(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "Entry not found")
		return
	}
	if err != nil {
		s.logger.Error("delete entry failed", zap.Error(err), zap.String("id", string(id)))
		writeError(w, r, http.StatusInternalServerError, "Failed to delete entry")
		return
	}
	s.logger.Info("entry deleted", zap.String("id", string(id)))
	render.NoContent(w, r)
}

func decodeInput(w http.ResponseWriter, r *http.Request) (entry.Input, bool) {
	var in entry.Input
	if err := render.DecodeJSON(r.Body, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid request body")
		return entry.Input{}, false
	}
	if !in.Valid() {
		writeError(w, r, http.StatusBadRequest, missingFieldsText)
		return entry.Input{}, false
	}
	return in, true
}

// entryID reads the {id} segment. chi hands it over still escaped when the
// request path carried escapes.
func entryID(r *http.Request) entry.ID {
	raw := chi.URLParam(r, "id")
	if id, err := url.PathUnescape(raw); err == nil {
		return entry.ID(id)
	}
	return entry.ID(raw)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	render.Status(r, code)
	render.JSON(w, r, ErrorResponse{Error: msg})
}
