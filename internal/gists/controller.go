// Package gists holds the list controller: it loads gists from the remote
// service, accepts newly created ones and filters what is shown by a search
// text.
package gists

import (
	"context"
	"errors"
	"slices"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/gisthub/internal/actor"
	"github.com/debemdeboas/gisthub/internal/cache"
	"github.com/debemdeboas/gisthub/internal/model"
	"github.com/debemdeboas/gisthub/internal/remote"
	"github.com/debemdeboas/gisthub/internal/sse"
)

// ErrSuperseded is returned by Load when a later Load or Insert replaced it
// before its result arrived. The result was discarded.
var ErrSuperseded = errors.New("load superseded by a newer request")

var listLogger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	listLogger = l
}

// Snapshot is an immutable view of the controller. Version increases with
// every published change.
type Snapshot struct {
	State      model.ContentState `json:"content"`
	SearchText string             `json:"search"`
	Mode       model.ListMode     `json:"mode"`
	Version    uint64             `json:"version"`
}

type Options struct {
	// LoadTimeout bounds each fetch. Zero means no timeout.
	LoadTimeout time.Duration
	Mode        model.ListMode
}

type Controller struct {
	service remote.Service
	timeout time.Duration

	queue   *actor.Queue
	clients *sse.Clients[Snapshot]
	index   *cache.Cache[model.GistID, model.Gist]
	current atomic.Pointer[Snapshot]

	// Owned by the queue goroutine.
	gists      []model.Gist
	state      model.ContentState
	searchText string
	mode       model.ListMode
	version    uint64
	generation uint64
	cancel     context.CancelFunc
}

func NewController(service remote.Service, opts Options) *Controller {
	c := &Controller{
		service: service,
		timeout: opts.LoadTimeout,
		queue:   actor.NewQueue(),
		clients: sse.NewClients[Snapshot](),
		index:   cache.NewCache[model.GistID, model.Gist](),
		state:   model.LoadingState(),
		mode:    opts.Mode,
	}
	c.current.Store(&Snapshot{State: c.state, Mode: c.mode})
	return c
}

// Load fetches the collection for mode and publishes Loading, then Content or
// Error. The latest issued call wins: an earlier in-flight Load is cancelled
// and returns ErrSuperseded. Fetch failures are published, not returned.
func (c *Controller) Load(ctx context.Context, mode model.ListMode) error {
	var (
		generation uint64
		fetchCtx   context.Context
	)
	err := c.queue.Do(func() {
		c.supersede()
		generation = c.generation

		var cancel context.CancelFunc
		if c.timeout > 0 {
			fetchCtx, cancel = context.WithTimeout(ctx, c.timeout)
		} else {
			fetchCtx, cancel = context.WithCancel(ctx)
		}
		c.cancel = cancel

		c.mode = mode
		c.state = model.LoadingState()
		c.publish()
	})
	if err != nil {
		return err
	}

	listLogger.Debug().Stringer("mode", mode).Uint64("generation", generation).Msg("Loading gists")
	gists, fetchErr := c.fetch(fetchCtx, mode)

	applied := false
	err = c.queue.Do(func() {
		if generation != c.generation {
			return
		}
		applied = true
		c.cancel()
		c.cancel = nil

		if fetchErr != nil {
			listLogger.Error().Err(fetchErr).Stringer("mode", mode).Msg("Failed to load gists")
			c.state = model.ErrorState(remote.Describe(fetchErr))
		} else {
			c.setGists(gists)
			c.state = model.ContentOf(c.view())
		}
		c.publish()
	})
	if err != nil {
		return err
	}

	if !applied {
		listLogger.Debug().Uint64("generation", generation).Msg("Discarding superseded load")
		return ErrSuperseded
	}
	return nil
}

func (c *Controller) fetch(ctx context.Context, mode model.ListMode) ([]model.Gist, error) {
	if mode == model.Starred {
		return c.service.ListStarredGists(ctx)
	}
	return c.service.ListGists(ctx)
}

// Insert prepends gist and publishes the whole sequence as Content, whatever
// the prior state. The search text is cleared and any in-flight Load is
// superseded.
func (c *Controller) Insert(gist model.Gist) error {
	return c.queue.Do(func() {
		c.supersede()

		gists := make([]model.Gist, 0, len(c.gists)+1)
		gists = append(gists, gist)
		gists = append(gists, c.gists...)
		c.gists = gists
		c.index.Set(gist.ID, gist)

		c.searchText = ""
		c.state = model.ContentOf(c.gists)
		c.publish()

		listLogger.Debug().Str("gist_id", string(gist.ID)).Int("count", len(c.gists)).Msg("Inserted gist")
	})
}

// Search records query and, when content is shown, republishes the filtered
// view. In Loading or Error the shown state is kept and the query applies
// once content arrives. The held sequence is never modified.
func (c *Controller) Search(query string) error {
	return c.queue.Do(func() {
		c.searchText = query
		if c.state.IsContent() {
			c.state = model.ContentOf(c.view())
		}
		c.publish()
	})
}

func (c *Controller) Snapshot() Snapshot {
	return *c.current.Load()
}

// Gist looks up a gist in the held sequence, ignoring the search text.
func (c *Controller) Gist(id model.GistID) (model.Gist, bool) {
	return c.index.Get(id)
}

// Subscribe returns a client primed with the current snapshot that receives
// every later one. Slow readers only see the latest.
func (c *Controller) Subscribe() (*sse.Client[Snapshot], error) {
	return actor.Query(c.queue, func() *sse.Client[Snapshot] {
		return c.clients.Subscribe(*c.current.Load())
	})
}

func (c *Controller) Unsubscribe(client *sse.Client[Snapshot]) {
	c.clients.Delete(client)
}

// Close cancels any in-flight Load, stops the controller and closes every
// subscriber.
func (c *Controller) Close() {
	_ = c.queue.Do(func() {
		if c.cancel != nil {
			c.cancel()
			c.cancel = nil
		}
	})
	c.queue.Close()
	c.clients.Close()
}

func (c *Controller) supersede() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.generation++
}

func (c *Controller) setGists(gists []model.Gist) {
	c.gists = slices.Clone(gists)

	index := make(map[model.GistID]model.Gist, len(c.gists))
	for _, g := range c.gists {
		index[g.ID] = g
	}
	c.index.SetTo(index)
}

func (c *Controller) view() []model.Gist {
	if c.searchText == "" {
		return c.gists
	}
	return Filter(c.gists, c.searchText)
}

func (c *Controller) publish() {
	c.version++
	snap := &Snapshot{
		State:      c.state,
		SearchText: c.searchText,
		Mode:       c.mode,
		Version:    c.version,
	}
	c.current.Store(snap)
	c.clients.Broadcast(*snap)
}
