package config

// Defaults mirrored from the struct tags, for callers that need them without
// loading a config.
const (
	DefaultVersion       = "1"
	DefaultServerHost    = "0.0.0.0"
	DefaultServerPort    = "12600"
	DefaultBackend       = BackendGitHub
	DefaultGitHubToken   = "GITHUB_TOKEN"
	DefaultSQLitePath    = "./gists.db"
	DefaultListMode      = "all"
	DefaultConfigPath    = "config.yaml"
	DefaultLogLevel      = "info"
	DefaultS3Region      = "auto"
	DefaultGitHubPerPage = 30
)
