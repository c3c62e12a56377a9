// Package session ties a gist list to the drafts created from it: a committed
// draft is discarded and its gist shows up at the top of the list.
package session

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/gisthub/internal/editor"
	"github.com/debemdeboas/gisthub/internal/gists"
	"github.com/debemdeboas/gisthub/internal/model"
)

var sessionLogger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	sessionLogger = l
}

type Session struct {
	List   *gists.Controller
	Drafts editor.Workspace
}

func New(list *gists.Controller, drafts editor.Workspace) *Session {
	return &Session{
		List:   list,
		Drafts: drafts,
	}
}

func (s *Session) NewDraft() (*editor.Draft, error) {
	return s.Drafts.Create()
}

func (s *Session) Draft(id editor.DraftID) (*editor.Draft, error) {
	return s.Drafts.Get(id)
}

// CreateGist commits the draft. On success the committed files are discarded
// and the gist is inserted into the list. On failure nothing changes and the error
// from Commit is returned.
func (s *Session) CreateGist(ctx context.Context, id editor.DraftID, description string, visibility model.Visibility) (model.Gist, error) {
	draft, err := s.Drafts.Get(id)
	if err != nil {
		return model.Gist{}, err
	}

	gist, err := draft.Commit(ctx, description, visibility)
	if err != nil {
		return model.Gist{}, err
	}

	if cleared, err := draft.DiscardCommitted(); err != nil {
		sessionLogger.Warn().Err(err).Str("draft_id", string(id)).Msg("Failed to discard committed draft")
	} else if !cleared {
		sessionLogger.Info().Str("draft_id", string(id)).Msg("Draft edited after commit, keeping edits")
	}
	if err := s.List.Insert(gist); err != nil {
		sessionLogger.Warn().Err(err).Str("gist_id", string(gist.ID)).Msg("Failed to insert created gist")
	}

	sessionLogger.Info().Str("gist_id", string(gist.ID)).Str("draft_id", string(id)).Msg("Gist created from draft")
	return gist, nil
}

// Cancel discards the draft and forgets it.
func (s *Session) Cancel(id editor.DraftID) error {
	draft, err := s.Drafts.Get(id)
	if err != nil {
		return err
	}
	if err := draft.Discard(); err != nil {
		return err
	}
	return s.Drafts.Delete(id)
}
