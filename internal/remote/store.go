package remote

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/debemdeboas/gisthub/internal/db"
	"github.com/debemdeboas/gisthub/internal/language"
	"github.com/debemdeboas/gisthub/internal/model"
	"github.com/debemdeboas/gisthub/internal/util"
	"github.com/debemdeboas/gisthub/internal/util/compression"
)

// Store is a self-hosted gist service on SQLite. File contents are stored
// compressed. Lists are newest first.
type Store struct {
	db         db.DB
	compressor compression.Compressor

	owner   string
	baseURL string
}

func NewStore(database db.DB, owner, baseURL string) *Store {
	return &Store{
		db:         database,
		compressor: compression.ZstdCompressor{},
		owner:      owner,
		baseURL:    baseURL,
	}
}

const (
	selectGists = `SELECT g.id, g.description, g.owner, g.public, g.created_at, g.updated_at FROM gists g`
	selectFiles = `SELECT f.gist_id, f.filename, f.language, f.content, f.size FROM gist_files f`
)

func (s *Store) ListGists(ctx context.Context) ([]model.Gist, error) {
	return s.list(ctx, selectGists+` ORDER BY g.rowid DESC`, selectFiles)
}

func (s *Store) ListStarredGists(ctx context.Context) ([]model.Gist, error) {
	return s.list(ctx,
		selectGists+` JOIN stars s ON s.gist_id = g.id ORDER BY g.rowid DESC`,
		selectFiles+` JOIN stars s ON s.gist_id = f.gist_id`,
	)
}

func (s *Store) list(ctx context.Context, gistQuery, fileQuery string) ([]model.Gist, error) {
	gists, err := s.scanGists(ctx, gistQuery)
	if err != nil {
		return nil, err
	}

	index := make(map[model.GistID]int, len(gists))
	for i, g := range gists {
		index[g.ID] = i
	}

	// The gist rows are closed by now; the pool holds a single connection.
	if err := s.attachFiles(ctx, fileQuery, gists, index); err != nil {
		return nil, err
	}

	return gists, nil
}

func (s *Store) scanGists(ctx context.Context, query string) ([]model.Gist, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying gists: %w", err)
	}
	defer rows.Close()

	gists := make([]model.Gist, 0)
	for rows.Next() {
		var (
			gist        model.Gist
			description sql.NullString
			owner       sql.NullString
			public      bool
		)
		if err := rows.Scan(&gist.ID, &description, &owner, &public, &gist.CreatedAt, &gist.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning gist: %w", err)
		}

		if description.Valid {
			gist.Description = model.String(description.String)
		}
		if owner.Valid {
			gist.Owner = &model.Owner{Login: model.String(owner.String)}
		}
		gist.Visibility = model.VisibilityOf(public)
		gist.HTMLURL = s.htmlURL(gist.ID)
		gist.Files = make(map[string]model.File)

		gists = append(gists, gist)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating gists: %w", err)
	}

	return gists, nil
}

func (s *Store) attachFiles(ctx context.Context, query string, gists []model.Gist, index map[model.GistID]int) error {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("error querying gist files: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			gistID     model.GistID
			file       model.File
			lang       sql.NullString
			compressed []byte
		)
		if err := rows.Scan(&gistID, &file.Filename, &lang, &compressed, &file.Size); err != nil {
			return fmt.Errorf("error scanning gist file: %w", err)
		}

		i, ok := index[gistID]
		if !ok {
			continue
		}

		content, err := s.compressor.Decompress(compressed)
		if err != nil {
			return fmt.Errorf("error decompressing %s: %w", file.Filename, err)
		}
		text := string(content)
		file.Content = &text
		file.Language = language.Language(lang.String)
		if !language.Known(file.Language) {
			file.Language = language.Resolve(file.Filename)
		}

		gists[i].Files[file.Filename] = file
	}

	return rows.Err()
}

func (s *Store) CreateGist(ctx context.Context, description string, files map[string]model.File, public bool) (model.Gist, error) {
	if err := validateFiles(files); err != nil {
		return model.Gist{}, err
	}

	now := time.Now().UTC()
	gist := model.Gist{
		ID:          model.GistID(uuid.New().String()),
		Description: model.String(description),
		Files:       make(map[string]model.File, len(files)),
		Visibility:  model.VisibilityOf(public),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	gist.HTMLURL = s.htmlURL(gist.ID)

	var owner sql.NullString
	if s.owner != "" {
		owner = sql.NullString{String: s.owner, Valid: true}
		gist.Owner = &model.Owner{Login: model.String(s.owner)}
	}

	tx, err := s.db.Get().BeginTx(ctx, nil)
	if err != nil {
		return model.Gist{}, fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO gists (id, description, owner, public, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		gist.ID, description, owner, public, now, now,
	)
	if err != nil {
		return model.Gist{}, fmt.Errorf("error saving gist: %w", err)
	}

	for name, f := range files {
		file := model.NewFile(name, f.ContentOrEmpty())

		compressed, err := s.compressor.Compress([]byte(file.ContentOrEmpty()))
		if err != nil {
			return model.Gist{}, fmt.Errorf("error compressing %s: %w", name, err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO gist_files (gist_id, filename, language, content, content_hash, size) VALUES (?, ?, ?, ?, ?, ?)`,
			gist.ID, name, string(file.Language), compressed, util.ContentHashString(file.ContentOrEmpty()), file.Size,
		)
		if err != nil {
			return model.Gist{}, fmt.Errorf("error saving file %s: %w", name, err)
		}

		gist.Files[name] = file
	}

	if err := tx.Commit(); err != nil {
		return model.Gist{}, fmt.Errorf("error committing gist: %w", err)
	}

	remoteLogger.Debug().Str("gist_id", string(gist.ID)).Int("files", len(files)).Msg("Gist saved")
	return gist, nil
}

func (s *Store) StarGist(ctx context.Context, id model.GistID) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO stars (gist_id) VALUES (?)`, id)

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("error starring gist: %w", err)
	}
	return nil
}

func (s *Store) htmlURL(id model.GistID) string {
	if s.baseURL == "" {
		return ""
	}
	return s.baseURL + "/" + string(id)
}
