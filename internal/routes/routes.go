// Package routes defines HTTP route constants for the application.
package routes

// API Routes
const (
	// SSE
	SSEPath = "/sse"

	// Root
	RootPath   = "/"
	HealthPath = "/healthz"

	// Gist list
	APIGists       = "/api/gists"
	APIGistsLoad   = "/api/gists/load"
	APIGistsSearch = "/api/gists/search"
	APIGist        = "/api/gists/{id}"

	// Drafts
	NewGist        = "/new/gist"
	APIDraft       = "/api/drafts/{id}"
	APIDraftFile   = "/api/drafts/{id}/files/{name}"
	APIDraftCommit = "/api/drafts/{id}/commit"
)

// SSE stream names, passed as ?stream=
const (
	StreamGists = "gists"
	StreamDraft = "draft"
)
