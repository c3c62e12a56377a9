// Package model defines the gist data types shared by the controllers and backends.
package model

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/debemdeboas/gisthub/internal/language"
)

type GistID string

type Visibility int

const (
	Secret Visibility = iota
	Public
)

func (v Visibility) IsPublic() bool {
	return v == Public
}

func (v Visibility) String() string {
	if v == Public {
		return "public"
	}
	return "secret"
}

func VisibilityOf(public bool) Visibility {
	if public {
		return Public
	}
	return Secret
}

func ParseVisibility(s string) (Visibility, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "public":
		return Public, nil
	case "secret", "private":
		return Secret, nil
	}
	return Secret, fmt.Errorf("unknown visibility %q", s)
}

func (v Visibility) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *Visibility) UnmarshalText(text []byte) error {
	parsed, err := ParseVisibility(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

type Owner struct {
	Login *string `json:"login,omitempty"`
}

type File struct {
	Filename string            `json:"filename"`
	Language language.Language `json:"language,omitempty"`

	// Nil when only metadata was fetched.
	Content *string `json:"content,omitempty"`

	Size   int    `json:"size,omitempty"`
	RawURL string `json:"raw_url,omitempty"`
}

// NewFile builds a file with content and the language resolved from its name.
func NewFile(filename, content string) File {
	return File{
		Filename: filename,
		Language: language.Resolve(filename),
		Content:  &content,
		Size:     len(content),
	}
}

func (f File) ContentOrEmpty() string {
	if f.Content == nil {
		return ""
	}
	return *f.Content
}

// Gist is treated as an immutable value once fetched.
type Gist struct {
	ID          GistID          `json:"id"`
	Description *string         `json:"description,omitempty"`
	Owner       *Owner          `json:"owner,omitempty"`
	Files       map[string]File `json:"files,omitempty"`
	Visibility  Visibility      `json:"visibility"`
	HTMLURL     string          `json:"html_url,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (g Gist) DescriptionOrEmpty() string {
	if g.Description == nil {
		return ""
	}
	return *g.Description
}

// OwnerLogin returns the owner's login, or "" when absent.
func (g Gist) OwnerLogin() string {
	if g.Owner == nil || g.Owner.Login == nil {
		return ""
	}
	return *g.Owner.Login
}

func (g Gist) Filenames() []string {
	names := make([]string, 0, len(g.Files))
	for name := range g.Files {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Title is the first filename in sorted order, which is how gist pages are named.
func (g Gist) Title() string {
	names := g.Filenames()
	if len(names) == 0 {
		return string(g.ID)
	}
	return names[0]
}

func String(s string) *string {
	return &s
}
