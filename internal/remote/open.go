package remote

import (
	"context"
	"fmt"
	"os"

	"github.com/debemdeboas/gisthub/internal/config"
	"github.com/debemdeboas/gisthub/internal/db"
)

// Open builds the backend selected by cfg. Secrets are read from the
// environment variables cfg names. The returned close func releases the
// backend's resources.
func Open(ctx context.Context, cfg config.RemoteConfig) (Service, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case config.BackendGitHub:
		gh, err := NewGitHub(ctx, os.Getenv(cfg.GitHub.TokenEnv), GitHubOptions{
			User:     cfg.GitHub.User,
			BaseURL:  cfg.GitHub.BaseURL,
			PerPage:  cfg.GitHub.PerPage,
			MaxPages: cfg.GitHub.MaxPages,
		})
		if err != nil {
			return nil, nil, err
		}
		return gh, noop, nil

	case config.BackendSQLite:
		database := db.NewSQLite(cfg.SQLite.Path)
		if err := database.InitDB(); err != nil {
			return nil, nil, fmt.Errorf(config.ErrInitializeDatabaseFmt, err)
		}
		return NewStore(database, cfg.SQLite.Owner, cfg.SQLite.BaseURL), database.Close, nil

	case config.BackendS3:
		s3, err := NewS3(ctx, S3Options{
			Bucket:          cfg.S3.Bucket,
			Endpoint:        cfg.S3.Endpoint,
			Region:          cfg.S3.Region,
			AccessKeyID:     os.Getenv(cfg.S3.AccessKeyEnv),
			SecretAccessKey: os.Getenv(cfg.S3.SecretKeyEnv),
			Owner:           cfg.S3.Owner,
		})
		if err != nil {
			return nil, nil, err
		}
		return s3, noop, nil
	}

	return nil, nil, fmt.Errorf("unknown remote backend %q", cfg.Backend)
}
