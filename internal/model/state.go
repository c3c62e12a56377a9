package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ListMode selects which remote collection is fetched.
type ListMode int

const (
	AllGists ListMode = iota
	Starred
)

func (m ListMode) String() string {
	if m == Starred {
		return "starred"
	}
	return "all"
}

func ParseListMode(s string) (ListMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all", "allgists":
		return AllGists, nil
	case "starred":
		return Starred, nil
	}
	return AllGists, fmt.Errorf("unknown list mode %q", s)
}

func (m ListMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *ListMode) UnmarshalText(text []byte) error {
	mode, err := ParseListMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

type ContentKind int

const (
	Loading ContentKind = iota
	Content
	Error
)

func (k ContentKind) String() string {
	switch k {
	case Content:
		return "content"
	case Error:
		return "error"
	default:
		return "loading"
	}
}

// ContentState is the tagged union driving the list view. Gists is only
// meaningful for Content and Message only for Error.
type ContentState struct {
	Kind    ContentKind
	Gists   []Gist
	Message string
}

func LoadingState() ContentState {
	return ContentState{Kind: Loading}
}

func ContentOf(gists []Gist) ContentState {
	if gists == nil {
		gists = []Gist{}
	}
	return ContentState{Kind: Content, Gists: gists}
}

func ErrorState(message string) ContentState {
	return ContentState{Kind: Error, Message: message}
}

func (s ContentState) IsLoading() bool { return s.Kind == Loading }
func (s ContentState) IsContent() bool { return s.Kind == Content }
func (s ContentState) IsError() bool   { return s.Kind == Error }

func (s ContentState) MarshalJSON() ([]byte, error) {
	out := struct {
		State string `json:"state"`
		Gists *[]Gist `json:"gists,omitempty"`
		Error string `json:"error,omitempty"`
	}{State: s.Kind.String()}

	switch s.Kind {
	case Content:
		gists := s.Gists
		if gists == nil {
			gists = []Gist{}
		}
		out.Gists = &gists
	case Error:
		out.Error = s.Message
	}

	return json.Marshal(out)
}
