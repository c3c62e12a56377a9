package config

const (
	// Backend errors
	ErrInitializeDatabaseFmt = "Failed to initialize database: %v"
	ErrCreateBackendFmt      = "Failed to create %s backend: %v"
	ErrLoadGistsFmt          = "Failed to load gists: %v"

	// Config errors
	ErrWriteConfigContentFmt = "Failed to write config content: %v"
	ErrCreateTempFileFmt     = "Failed to create temp file: %v"

	// Draft errors
	ErrCreateDraftFmt = "Failed to create draft: %v"
	ErrReadBody       = "Failed to read request body"
)
