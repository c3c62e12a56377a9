package gists

import (
	"strings"

	"github.com/debemdeboas/gisthub/internal/model"
)

// Matches reports whether any filename, the owner login or the description
// contains query, ignoring case. A gist with neither files nor an owner login
// never matches.
func Matches(gist model.Gist, query string) bool {
	if len(gist.Files) == 0 && gist.OwnerLogin() == "" {
		return false
	}
	q := strings.ToLower(query)

	for name := range gist.Files {
		if strings.Contains(strings.ToLower(name), q) {
			return true
		}
	}
	if login := gist.OwnerLogin(); login != "" && strings.Contains(strings.ToLower(login), q) {
		return true
	}
	return strings.Contains(strings.ToLower(gist.DescriptionOrEmpty()), q)
}

// Filter returns the gists matching query in their original order. An empty
// query returns gists unchanged.
func Filter(gists []model.Gist, query string) []model.Gist {
	if query == "" {
		return gists
	}

	out := make([]model.Gist, 0, len(gists))
	for _, g := range gists {
		if Matches(g, query) {
			out = append(out, g)
		}
	}
	return out
}
