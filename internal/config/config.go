package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

var configLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	configLogger = l
}

const SupportedVersion = "1"

const (
	BackendGitHub = "github"
	BackendSQLite = "sqlite"
	BackendS3     = "s3"
)

// Config represents the complete configuration structure
type Config struct {
	Version string        `yaml:"version" default:"1"`
	Server  ServerConfig  `yaml:"server"`
	Remote  RemoteConfig  `yaml:"remote"`
	Client  ClientConfig  `yaml:"client"`
	Logging LoggingConfig `yaml:"logging"`
}

type LoggingConfig struct {
	Level string `yaml:"level" default:"info"`
}

type ServerConfig struct {
	Host string `yaml:"host" default:"0.0.0.0"`
	Port string `yaml:"port" default:"12600"`
}

type RemoteConfig struct {
	Backend string       `yaml:"backend" default:"github"`
	GitHub  GitHubConfig `yaml:"github"`
	SQLite  SQLiteConfig `yaml:"sqlite"`
	S3      S3Config     `yaml:"s3"`
}

type GitHubConfig struct {
	// Name of the environment variable holding the access token.
	TokenEnv string `yaml:"token_env" default:"GITHUB_TOKEN"`
	User     string `yaml:"user" default:""`
	BaseURL  string `yaml:"base_url" default:""`
	PerPage  int    `yaml:"per_page" default:"30"`
	MaxPages int    `yaml:"max_pages" default:"10"`
}

type SQLiteConfig struct {
	Path    string `yaml:"path" default:"./gists.db"`
	Owner   string `yaml:"owner" default:""`
	BaseURL string `yaml:"base_url" default:""`
}

type S3Config struct {
	Bucket       string `yaml:"bucket" default:"gists"`
	Endpoint     string `yaml:"endpoint" default:""`
	Region       string `yaml:"region" default:"auto"`
	AccessKeyEnv string `yaml:"access_key_env" default:"S3_ACCESS_KEY_ID"`
	SecretKeyEnv string `yaml:"secret_key_env" default:"S3_SECRET_ACCESS_KEY"`
	Owner        string `yaml:"owner" default:""`
}

type ClientConfig struct {
	LoadTimeout   time.Duration `yaml:"load_timeout" default:"30s"`
	CommitTimeout time.Duration `yaml:"commit_timeout" default:"30s"`
	DefaultMode   string        `yaml:"default_mode" default:"all"`
}

var AppConfig *Config

func LoadConfig(path string) error {
	config := &Config{}

	// Apply default values first
	applyDefaults(config)

	data, err := os.ReadFile(path)
	if err != nil {
		// If file doesn't exist, just use defaults
		configLogger.Info().Str("path", path).Msg("Config file not found, using defaults")
		AppConfig = config
		return nil
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return err
	}

	AppConfig = config
	return nil
}

func (c *Config) Validate() error {
	if c.Version != SupportedVersion {
		return fmt.Errorf("unsupported configuration version %q, expected %q", c.Version, SupportedVersion)
	}

	switch c.Remote.Backend {
	case BackendGitHub, BackendSQLite, BackendS3:
	default:
		return fmt.Errorf("unknown remote backend %q", c.Remote.Backend)
	}

	if c.Client.LoadTimeout < 0 || c.Client.CommitTimeout < 0 {
		return fmt.Errorf("client timeouts must not be negative")
	}
	return nil
}

func ApplyDefaults(config interface{}) {
	applyDefaults(config)
}

var durationType = reflect.TypeOf(time.Duration(0))

func applyDefaults(config interface{}) {
	v := reflect.ValueOf(config)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.IsValid() || !field.CanSet() {
			continue
		}

		// Recursively apply defaults to nested structs
		if field.Kind() == reflect.Struct {
			applyDefaults(field.Addr().Interface())
			continue
		}

		defaultValue := fieldType.Tag.Get("default")
		if defaultValue == "" {
			continue
		}

		if field.Type() == durationType {
			if val, err := time.ParseDuration(defaultValue); err == nil {
				field.SetInt(int64(val))
			}
			continue
		}

		switch field.Kind() {
		case reflect.String:
			field.SetString(defaultValue)
		case reflect.Bool:
			if val, err := strconv.ParseBool(defaultValue); err == nil {
				field.SetBool(val)
			}
		case reflect.Int:
			if val, err := strconv.ParseInt(defaultValue, 10, 64); err == nil {
				field.SetInt(val)
			}
		case reflect.Float64:
			if val, err := strconv.ParseFloat(defaultValue, 64); err == nil {
				field.SetFloat(val)
			}
		case reflect.Slice:
			if field.Len() == 0 && field.Type().Elem().Kind() == reflect.String {
				parts := strings.Split(defaultValue, ",")
				slice := reflect.MakeSlice(field.Type(), len(parts), len(parts))
				for j, part := range parts {
					slice.Index(j).SetString(strings.TrimSpace(part))
				}
				field.Set(slice)
			}
		default:
			configLogger.Warn().
				Str("field_name", fieldType.Name).
				Str("field_type", field.Kind().String()).
				Msg("Unsupported field type for default value")
		}
	}
}
