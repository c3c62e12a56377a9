package editor

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/debemdeboas/gisthub/internal/remote"
)

type DraftID string

var ErrDraftNotFound = errors.New("draft not found")

// Workspace keeps the drafts that are being edited.
type Workspace interface {
	Create() (*Draft, error)
	Get(id DraftID) (*Draft, error)
	Delete(id DraftID) error
}

type MemoryWorkspace struct {
	drafts sync.Map

	service       remote.Service
	commitTimeout time.Duration
}

func NewMemoryWorkspace(service remote.Service, commitTimeout time.Duration) *MemoryWorkspace {
	return &MemoryWorkspace{
		service:       service,
		commitTimeout: commitTimeout,
	}
}

func (w *MemoryWorkspace) Create() (*Draft, error) {
	id := DraftID(uuid.New().String())
	draft := NewDraft(id, w.service, w.commitTimeout)
	w.drafts.Store(id, draft)
	editorLogger.Debug().Str("draft_id", string(id)).Msg("Draft created")
	return draft, nil
}

func (w *MemoryWorkspace) Get(id DraftID) (*Draft, error) {
	if draft, ok := w.drafts.Load(id); ok {
		return draft.(*Draft), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrDraftNotFound, id)
}

// Delete closes the draft and forgets it. Unknown ids are ignored.
func (w *MemoryWorkspace) Delete(id DraftID) error {
	if draft, ok := w.drafts.LoadAndDelete(id); ok {
		draft.(*Draft).Close()
	}
	return nil
}

// Len reports how many drafts are open.
func (w *MemoryWorkspace) Len() int {
	n := 0
	w.drafts.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
