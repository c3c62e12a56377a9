package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/gisthub/internal/actor"
	"github.com/debemdeboas/gisthub/internal/config"
	"github.com/debemdeboas/gisthub/internal/editor"
	"github.com/debemdeboas/gisthub/internal/gists"
	"github.com/debemdeboas/gisthub/internal/model"
	"github.com/debemdeboas/gisthub/internal/routes"
	"github.com/debemdeboas/gisthub/internal/session"
	"github.com/debemdeboas/gisthub/internal/sse"
)

// Largest file body accepted by PUT /api/drafts/{id}/files/{name}.
const maxFileSize = 10 << 20

type server struct {
	session     *session.Session
	defaultMode model.ListMode
	log         zerolog.Logger
}

func newServer(sess *session.Session, defaultMode model.ListMode, l zerolog.Logger) *server {
	return &server{
		session:     sess,
		defaultMode: defaultMode,
		log:         l,
	}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET "+routes.HealthPath, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("GET "+routes.APIGists, s.serveGists)
	mux.HandleFunc("POST "+routes.APIGistsLoad, s.serveLoad)
	mux.HandleFunc("POST "+routes.APIGistsSearch, s.serveSearch)
	mux.HandleFunc("GET "+routes.APIGist, s.serveGist)

	mux.HandleFunc("POST "+routes.NewGist, s.serveNewDraft)
	mux.HandleFunc("GET "+routes.APIDraft, s.serveDraft)
	mux.HandleFunc("DELETE "+routes.APIDraft, s.serveDiscardDraft)
	mux.HandleFunc("PUT "+routes.APIDraftFile, s.serveSetFile)
	mux.HandleFunc("POST "+routes.APIDraftCommit, s.serveCommit)

	mux.HandleFunc("GET "+routes.SSEPath, s.serveEvents)

	return noCache(secureHeaders(mux.ServeHTTP))
}

func (s *server) serveGists(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.List.Snapshot())
}

func (s *server) serveLoad(w http.ResponseWriter, r *http.Request) {
	mode := s.defaultMode
	if q := r.URL.Query().Get("mode"); q != "" {
		parsed, err := model.ParseListMode(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		mode = parsed
	}

	// The fetch outlives a disconnecting client; only a newer Load cancels it.
	err := s.session.List.Load(context.WithoutCancel(r.Context()), mode)
	switch {
	case errors.Is(err, actor.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	case errors.Is(err, gists.ErrSuperseded):
		s.log.Debug().Stringer("mode", mode).Msg("Load superseded, returning latest snapshot")
	}

	writeJSON(w, http.StatusOK, s.session.List.Snapshot())
}

func (s *server) serveSearch(w http.ResponseWriter, r *http.Request) {
	if err := s.session.List.Search(r.FormValue("q")); err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.session.List.Snapshot())
}

func (s *server) serveGist(w http.ResponseWriter, r *http.Request) {
	gist, ok := s.session.List.Gist(model.GistID(r.PathValue("id")))
	if !ok {
		writeError(w, http.StatusNotFound, config.HTTPErrGistNotFound)
		return
	}
	writeJSON(w, http.StatusOK, gist)
}

func (s *server) serveNewDraft(w http.ResponseWriter, r *http.Request) {
	draft, err := s.session.NewDraft()
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to create draft")
		writeError(w, http.StatusInternalServerError, fmt.Sprintf(config.ErrCreateDraftFmt, err))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     config.CookieDraftID,
		Value:    string(draft.ID()),
		Path:     "/",
		HttpOnly: true,
	})
	writeJSON(w, http.StatusCreated, draft.Snapshot())
}

func (s *server) draft(w http.ResponseWriter, r *http.Request) (*editor.Draft, bool) {
	draft, err := s.session.Draft(editor.DraftID(r.PathValue("id")))
	if err != nil {
		writeError(w, http.StatusNotFound, config.HTTPErrDraftNotFound)
		return nil, false
	}
	return draft, true
}

func (s *server) serveDraft(w http.ResponseWriter, r *http.Request) {
	draft, ok := s.draft(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, draft.Snapshot())
}

func (s *server) serveDiscardDraft(w http.ResponseWriter, r *http.Request) {
	err := s.session.Cancel(editor.DraftID(r.PathValue("id")))
	if errors.Is(err, editor.ErrDraftNotFound) {
		writeError(w, http.StatusNotFound, config.HTTPErrDraftNotFound)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) serveSetFile(w http.ResponseWriter, r *http.Request) {
	draft, ok := s.draft(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxFileSize))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, config.ErrReadBody)
		return
	}

	name := r.PathValue("name")
	err = draft.SetFile(name, model.NewFile(name, string(body)))
	switch {
	case errors.Is(err, editor.ErrEmptyFilename):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, editor.ErrCommitInFlight):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusGone, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, draft.Snapshot())
}

func (s *server) serveCommit(w http.ResponseWriter, r *http.Request) {
	visibility := model.Secret
	if v := r.FormValue("visibility"); v != "" {
		parsed, err := model.ParseVisibility(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		visibility = parsed
	}

	gist, err := s.session.CreateGist(context.WithoutCancel(r.Context()), editor.DraftID(r.PathValue("id")), r.FormValue("description"), visibility)

	var commitErr *editor.CommitError
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, gist)
	case errors.Is(err, editor.ErrDraftNotFound):
		writeError(w, http.StatusNotFound, config.HTTPErrDraftNotFound)
	case errors.Is(err, editor.ErrEmptyDraft):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, editor.ErrCommitInFlight):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &commitErr):
		writeError(w, http.StatusBadGateway, commitErr.Message)
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *server) serveEvents(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Query().Get("stream") {
	case routes.StreamGists, "":
		client, err := s.session.List.Subscribe()
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		defer s.session.List.Unsubscribe(client)
		sse.Stream(w, r, client, encodeJSON[gists.Snapshot])

	case routes.StreamDraft:
		draft, err := s.session.Draft(editor.DraftID(r.URL.Query().Get("draft")))
		if err != nil {
			writeError(w, http.StatusNotFound, config.HTTPErrDraftNotFound)
			return
		}
		client, err := draft.Subscribe()
		if err != nil {
			writeError(w, http.StatusGone, err.Error())
			return
		}
		defer draft.Unsubscribe(client)
		sse.Stream(w, r, client, encodeJSON[editor.Snapshot])

	default:
		writeError(w, http.StatusBadRequest, "Unknown stream")
	}
}

func encodeJSON[T any](v T) ([]byte, error) {
	return json.Marshal(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set(config.HCType, config.CTypeJSON)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func noCache(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(config.HCacheControl, "no-cache")
		w.Header().Set("Vary", "Cookie")
		h(w, r)
	}
}

func secureHeaders(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "deny")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-XSS-Protection", "1; mode=block")

		h(w, r)
	}
}
