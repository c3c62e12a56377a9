package config

const (
	HCType        = "Content-Type"
	HETag         = "ETag"
	HCacheControl = "Cache-Control"

	CTypeJSON        = "application/json"
	CTypeEventStream = "text/event-stream"
)

const (
	HTTPErrMethodNotAllowed = "Method not allowed"
	HTTPErrDraftNotFound    = "Draft not found"
	HTTPErrGistNotFound     = "Gist not found"
)

const (
	CookieDraftID = "draft-id"
)
