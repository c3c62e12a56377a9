package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v39/github"
	"golang.org/x/oauth2"

	"github.com/debemdeboas/gisthub/internal/language"
	"github.com/debemdeboas/gisthub/internal/model"
)

type GitHubOptions struct {
	// User whose gists are listed. Empty lists the authenticated user's gists.
	User     string
	BaseURL  string
	PerPage  int
	MaxPages int
}

// GitHub talks to the GitHub gists API.
type GitHub struct {
	client   *github.Client
	user     string
	perPage  int
	maxPages int
}

func NewGitHub(ctx context.Context, token string, opts GitHubOptions) (*GitHub, error) {
	var httpClient *http.Client
	if token != "" {
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	}

	client := github.NewClient(httpClient)
	if opts.BaseURL != "" {
		base := opts.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub base URL: %w", err)
		}
		client.BaseURL = u
	}

	if opts.PerPage <= 0 {
		opts.PerPage = 30
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = 10
	}

	return &GitHub{
		client:   client,
		user:     opts.User,
		perPage:  opts.PerPage,
		maxPages: opts.MaxPages,
	}, nil
}

func (g *GitHub) ListGists(ctx context.Context) ([]model.Gist, error) {
	return g.paginate(ctx, func(opts *github.GistListOptions) ([]*github.Gist, *github.Response, error) {
		return g.client.Gists.List(ctx, g.user, opts)
	})
}

func (g *GitHub) ListStarredGists(ctx context.Context) ([]model.Gist, error) {
	return g.paginate(ctx, func(opts *github.GistListOptions) ([]*github.Gist, *github.Response, error) {
		return g.client.Gists.ListStarred(ctx, opts)
	})
}

func (g *GitHub) paginate(ctx context.Context, list func(*github.GistListOptions) ([]*github.Gist, *github.Response, error)) ([]model.Gist, error) {
	opts := &github.GistListOptions{
		ListOptions: github.ListOptions{PerPage: g.perPage},
	}

	var out []model.Gist
	for page := 0; page < g.maxPages; page++ {
		gists, resp, err := list(opts)
		if err != nil {
			return nil, err
		}
		for _, gist := range gists {
			out = append(out, fromGitHub(gist))
		}

		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	remoteLogger.Debug().Int("count", len(out)).Msg("Fetched gists from GitHub")
	return out, nil
}

func (g *GitHub) CreateGist(ctx context.Context, description string, files map[string]model.File, public bool) (model.Gist, error) {
	if err := validateFiles(files); err != nil {
		return model.Gist{}, err
	}

	ghFiles := make(map[github.GistFilename]github.GistFile, len(files))
	for name, f := range files {
		ghFiles[github.GistFilename(name)] = github.GistFile{
			Filename: github.String(name),
			Content:  github.String(f.ContentOrEmpty()),
		}
	}

	created, _, err := g.client.Gists.Create(ctx, &github.Gist{
		Description: github.String(description),
		Public:      github.Bool(public),
		Files:       ghFiles,
	})
	if err != nil {
		return model.Gist{}, err
	}

	return fromGitHub(created), nil
}

func (g *GitHub) StarGist(ctx context.Context, id model.GistID) error {
	_, err := g.client.Gists.Star(ctx, string(id))
	return err
}

func fromGitHub(gist *github.Gist) model.Gist {
	out := model.Gist{
		ID:          model.GistID(gist.GetID()),
		Description: gist.Description,
		Visibility:  model.VisibilityOf(gist.GetPublic()),
		HTMLURL:     gist.GetHTMLURL(),
		CreatedAt:   gist.GetCreatedAt(),
		UpdatedAt:   gist.GetUpdatedAt(),
	}

	if gist.Owner != nil {
		out.Owner = &model.Owner{Login: gist.Owner.Login}
	}

	if gist.Files != nil {
		out.Files = make(map[string]model.File, len(gist.Files))
		for key, f := range gist.Files {
			name := string(key)
			out.Files[name] = model.File{
				Filename: name,
				Language: language.Resolve(name),
				Content:  f.Content,
				Size:     f.GetSize(),
				RawURL:   f.GetRawURL(),
			}
		}
	}

	return out
}
