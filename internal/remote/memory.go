package remote

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/debemdeboas/gisthub/internal/model"
)

// Memory is an in-process Service. Lists are newest first.
type Memory struct {
	mu      sync.Mutex
	gists   []model.Gist
	starred map[model.GistID]bool
	owner   string

	listErr    error
	starredErr error
	createErr  error
	creates    int
}

func NewMemory(owner string, gists ...model.Gist) *Memory {
	return &Memory{
		gists:   slices.Clone(gists),
		starred: make(map[model.GistID]bool),
		owner:   owner,
	}
}

// FailWith makes subsequent calls of each kind fail. Nil clears the failure.
func (m *Memory) FailWith(list, starred, create error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listErr, m.starredErr, m.createErr = list, starred, create
}

// Creates reports how many CreateGist calls reached the backend.
func (m *Memory) Creates() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creates
}

func (m *Memory) ListGists(ctx context.Context) ([]model.Gist, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	return slices.Clone(m.gists), nil
}

func (m *Memory) ListStarredGists(ctx context.Context) ([]model.Gist, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.starredErr != nil {
		return nil, m.starredErr
	}

	out := make([]model.Gist, 0, len(m.starred))
	for _, g := range m.gists {
		if m.starred[g.ID] {
			out = append(out, g)
		}
	}
	return out, nil
}

func (m *Memory) CreateGist(ctx context.Context, description string, files map[string]model.File, public bool) (model.Gist, error) {
	if err := ctx.Err(); err != nil {
		return model.Gist{}, err
	}
	if err := validateFiles(files); err != nil {
		return model.Gist{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	if m.createErr != nil {
		return model.Gist{}, m.createErr
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
	if m.owner != "" {
		gist.Owner = &model.Owner{Login: model.String(m.owner)}
	}
	for name, f := range files {
		gist.Files[name] = model.NewFile(name, f.ContentOrEmpty())
	}

	m.gists = append([]model.Gist{gist}, m.gists...)
	remoteLogger.Debug().Str("gist_id", string(gist.ID)).Msg("Gist created in memory")
	return gist, nil
}

func (m *Memory) StarGist(ctx context.Context, id model.GistID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.gists {
		if g.ID == id {
			m.starred[id] = true
			return nil
		}
	}
	return ErrNotFound
}
