// Package remote defines the gist service the controllers depend on, and the
// backends implementing it.
package remote

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/gisthub/internal/model"
)

// Service is the remote gist API. Creation is atomic from the caller's side.
type Service interface {
	ListGists(ctx context.Context) ([]model.Gist, error)
	ListStarredGists(ctx context.Context) ([]model.Gist, error)
	CreateGist(ctx context.Context, description string, files map[string]model.File, public bool) (model.Gist, error)
}

// Starrer is implemented by backends that can star a gist.
type Starrer interface {
	StarGist(ctx context.Context, id model.GistID) error
}

var (
	ErrNotFound = errors.New("gist not found")
	ErrNoFiles  = errors.New("a gist needs at least one file")
)

var remoteLogger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	remoteLogger = l
}

func validateFiles(files map[string]model.File) error {
	if len(files) == 0 {
		return ErrNoFiles
	}
	for name := range files {
		if name == "" {
			return errors.New("file names must not be empty")
		}
	}
	return nil
}
