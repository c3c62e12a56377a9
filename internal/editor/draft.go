// Package editor holds the draft controller, which collects the files of a
// gist being created and commits them to the remote service.
package editor

import (
	"bytes"
	"context"
	"errors"
	"maps"
	"slices"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/gisthub/internal/actor"
	"github.com/debemdeboas/gisthub/internal/language"
	"github.com/debemdeboas/gisthub/internal/model"
	"github.com/debemdeboas/gisthub/internal/remote"
	"github.com/debemdeboas/gisthub/internal/sse"
	"github.com/debemdeboas/gisthub/internal/util"
)

var (
	ErrEmptyDraft     = errors.New("draft has no files")
	ErrCommitInFlight = errors.New("a commit is already in progress")
	ErrEmptyFilename  = errors.New("file name must not be empty")
)

var editorLogger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	editorLogger = l
}

// CommitError is returned when the remote service rejects a commit. Only the
// message fit for the user is kept.
type CommitError struct {
	Message string
}

func (e *CommitError) Error() string {
	return e.Message
}

type Snapshot struct {
	ID         DraftID               `json:"id"`
	Files      map[string]model.File `json:"files"`
	CanCommit  bool                  `json:"can_commit"`
	Committing bool                  `json:"committing"`
	// Fingerprint changes whenever a filename, language or content changes.
	Fingerprint string `json:"fingerprint"`
	// Suggestion is offered as the description when the user leaves it blank.
	Suggestion string `json:"suggested_description,omitempty"`
	Version    uint64 `json:"version"`
}

// Draft accumulates file edits for a new gist. Files are unique by name and
// the last write wins. There is no way to remove a single file; Discard drops
// them all.
type Draft struct {
	id      DraftID
	service remote.Service
	timeout time.Duration

	queue   *actor.Queue
	clients *sse.Clients[Snapshot]
	current atomic.Pointer[Snapshot]

	// Owned by the queue goroutine.
	files      map[string]model.File
	committing bool
	committed  string // fingerprint of the last successful commit
	version    uint64
}

func NewDraft(id DraftID, service remote.Service, commitTimeout time.Duration) *Draft {
	d := &Draft{
		id:      id,
		service: service,
		timeout: commitTimeout,
		queue:   actor.NewQueue(),
		clients: sse.NewClients[Snapshot](),
		files:   make(map[string]model.File),
	}
	d.current.Store(d.snapshot())
	return d
}

func (d *Draft) ID() DraftID {
	return d.id
}

// SetFile inserts or replaces the file stored under name. The file takes
// name as its filename, and its language is resolved from name when unset.
// Edits are refused with ErrCommitInFlight while a commit is pending.
func (d *Draft) SetFile(name string, file model.File) error {
	if name == "" {
		return ErrEmptyFilename
	}

	file.Filename = name
	if file.Language == "" {
		file.Language = language.Resolve(name)
	}
	if file.Content != nil && file.Size == 0 {
		file.Size = len(*file.Content)
	}

	var guardErr error
	err := d.queue.Do(func() {
		if d.committing {
			guardErr = ErrCommitInFlight
			return
		}
		d.files[name] = file
		d.publish()
	})
	if err != nil {
		return err
	}
	return guardErr
}

// CanCommit reports whether the draft holds at least one file.
func (d *Draft) CanCommit() bool {
	return d.Snapshot().CanCommit
}

// Commit sends a copy of the files to the remote service. On failure the
// draft is left untouched and a *CommitError is returned. On success the
// caller is expected to Discard the draft and hand the gist to the list.
func (d *Draft) Commit(ctx context.Context, description string, visibility model.Visibility) (model.Gist, error) {
	var (
		files    map[string]model.File
		guardErr error
	)
	err := d.queue.Do(func() {
		switch {
		case d.committing:
			guardErr = ErrCommitInFlight
		case len(d.files) == 0:
			guardErr = ErrEmptyDraft
		default:
			d.committing = true
			files = maps.Clone(d.files)
			d.publish()
		}
	})
	if err != nil {
		return model.Gist{}, err
	}
	if guardErr != nil {
		return model.Gist{}, guardErr
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	editorLogger.Debug().Str("draft_id", string(d.id)).Int("files", len(files)).Stringer("visibility", visibility).Msg("Committing draft")
	gist, createErr := d.service.CreateGist(ctx, description, files, visibility.IsPublic())

	_ = d.queue.Do(func() {
		d.committing = false
		if createErr == nil {
			d.committed = Fingerprint(files)
		}
		d.publish()
	})

	if createErr != nil {
		editorLogger.Error().Err(createErr).Str("draft_id", string(d.id)).Msg("Failed to create gist")
		return model.Gist{}, &CommitError{Message: remote.Describe(createErr)}
	}

	editorLogger.Info().Str("draft_id", string(d.id)).Str("gist_id", string(gist.ID)).Msg("Gist created")
	return gist, nil
}

// Discard drops every file in the draft.
func (d *Draft) Discard() error {
	return d.queue.Do(func() {
		d.files = make(map[string]model.File)
		d.publish()
	})
}

// DiscardCommitted drops the files only if they are still the ones the last
// successful commit sent, and reports whether it did. Edits made after that
// commit are kept.
func (d *Draft) DiscardCommitted() (bool, error) {
	return actor.Query(d.queue, func() bool {
		if d.committed == "" || d.committed != Fingerprint(d.files) {
			return false
		}
		d.files = make(map[string]model.File)
		d.committed = ""
		d.publish()
		return true
	})
}

// SuggestedDescription is the title of the first markdown file, by name, that
// has one.
func (d *Draft) SuggestedDescription() string {
	return d.Snapshot().Suggestion
}

func (d *Draft) Snapshot() Snapshot {
	return *d.current.Load()
}

func (d *Draft) Subscribe() (*sse.Client[Snapshot], error) {
	return actor.Query(d.queue, func() *sse.Client[Snapshot] {
		return d.clients.Subscribe(*d.current.Load())
	})
}

func (d *Draft) Unsubscribe(client *sse.Client[Snapshot]) {
	d.clients.Delete(client)
}

func (d *Draft) Close() {
	d.queue.Close()
	d.clients.Close()
}

func (d *Draft) publish() {
	d.version++
	snap := d.snapshot()
	d.current.Store(snap)
	d.clients.Broadcast(*snap)
}

func (d *Draft) snapshot() *Snapshot {
	return &Snapshot{
		ID:          d.id,
		Files:       maps.Clone(d.files),
		CanCommit:   len(d.files) > 0,
		Committing:  d.committing,
		Fingerprint: Fingerprint(d.files),
		Suggestion:  suggest(d.files),
		Version:     d.version,
	}
}

// Fingerprint hashes the filenames, languages and contents of files.
func Fingerprint(files map[string]model.File) string {
	var b bytes.Buffer
	for _, name := range sortedNames(files) {
		f := files[name]
		b.WriteString(name)
		b.WriteByte(0)
		b.WriteString(string(f.Language))
		b.WriteByte(0)
		b.WriteString(f.ContentOrEmpty())
		b.WriteByte(0)
	}
	return util.ContentHash(b.Bytes())
}

func suggest(files map[string]model.File) string {
	for _, name := range sortedNames(files) {
		f := files[name]
		if f.Language != language.Markdown {
			continue
		}
		if title := util.SuggestTitle([]byte(f.ContentOrEmpty())); title != "" {
			return title
		}
	}
	return ""
}

func sortedNames(files map[string]model.File) []string {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
