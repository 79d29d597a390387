// Package config resolves how the app reaches its document store.
// Sources, lowest precedence first: YAML file, environment, stored credentials
// (API key only), command-line flags applied by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DriverFirestore = "firestore"
	DriverMemory    = "memory"
	DriverFile      = "file"
	DriverSQLite    = "sqlite"
	DriverPostgres  = "postgres"
	DriverMySQL     = "mysql"
	DriverS3        = "s3"

	DefaultCollection = "todos"
	configFileName    = "config.yaml"
)

// Drivers lists every accepted store driver.
var Drivers = []string{DriverFirestore, DriverMemory, DriverFile, DriverSQLite, DriverPostgres, DriverMySQL, DriverS3}

// Firebase mirrors the web SDK's project settings.
type Firebase struct {
	APIKey            string `yaml:"api_key"`
	AuthDomain        string `yaml:"auth_domain"`
	ProjectID         string `yaml:"project_id"`
	StorageBucket     string `yaml:"storage_bucket"`
	MessagingSenderID string `yaml:"messaging_sender_id"`
	AppID             string `yaml:"app_id"`
	Credentials       string `yaml:"credentials"` // service account file
	DatabaseID        string `yaml:"database_id"`
}

// S3 settings for the s3 driver.
type S3 struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	Prefix    string `yaml:"prefix"`
	PathStyle bool   `yaml:"path_style"`
}

// Config is the resolved application configuration.
type Config struct {
	Driver     string   `yaml:"driver"`
	Collection string   `yaml:"collection"`
	DSN        string   `yaml:"dsn"`  // postgres, mysql
	Path       string   `yaml:"path"` // file, sqlite
	Theme      string   `yaml:"theme"`
	Firebase   Firebase `yaml:"firebase"`
	S3         S3       `yaml:"s3"`
}

// MissingError names the parameters a driver needs but did not get.
type MissingError struct {
	Driver string
	Params []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("%s store: missing required configuration: %s", e.Driver, strings.Join(e.Params, ", "))
}

// Getenv looks up environment variables; os.Getenv in production.
type Getenv func(string) string

// Dir is ~/.tada, home of the config and credential files.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home: %w", err)
	}
	return filepath.Join(home, ".tada"), nil
}

// Load reads the YAML file at path (or ~/.tada/config.yaml when empty, which
// may be absent), then applies environment overrides and defaults.
func Load(path string, getenv Getenv) (Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	var cfg Config
	explicit := path != ""
	if !explicit {
		dir, err := Dir()
		if err != nil {
			return cfg, err
		}
		path = filepath.Join(dir, configFileName)
	}
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return cfg, fmt.Errorf("read config: %w", err)
	}

	applyEnv(&cfg, getenv)

	if cfg.Driver == "" {
		cfg.Driver = DriverFirestore
	}
	cfg.Driver = strings.ToLower(cfg.Driver)
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	return cfg, nil
}

func applyEnv(cfg *Config, getenv Getenv) {
	set := func(dst *string, names ...string) {
		for _, n := range names {
			if v := strings.TrimSpace(getenv(n)); v != "" {
				*dst = v
				return
			}
		}
	}
	set(&cfg.Driver, "TADA_STORE_DRIVER")
	set(&cfg.Collection, "TADA_COLLECTION")
	set(&cfg.DSN, "TADA_STORE_DSN")
	set(&cfg.Path, "TADA_STORE_PATH")
	set(&cfg.Theme, "TADA_THEME")

	fb := &cfg.Firebase
	set(&fb.APIKey, "TADA_FIREBASE_API_KEY", "FIREBASE_API_KEY")
	set(&fb.AuthDomain, "TADA_FIREBASE_AUTH_DOMAIN", "FIREBASE_AUTH_DOMAIN")
	set(&fb.ProjectID, "TADA_FIREBASE_PROJECT_ID", "FIREBASE_PROJECT_ID")
	set(&fb.StorageBucket, "TADA_FIREBASE_STORAGE_BUCKET", "FIREBASE_STORAGE_BUCKET")
	set(&fb.MessagingSenderID, "TADA_FIREBASE_MESSAGING_SENDER_ID", "FIREBASE_MESSAGING_SENDER_ID")
	set(&fb.AppID, "TADA_FIREBASE_APP_ID", "FIREBASE_APP_ID")
	set(&fb.Credentials, "TADA_FIREBASE_CREDENTIALS", "GOOGLE_APPLICATION_CREDENTIALS")
	set(&fb.DatabaseID, "TADA_FIREBASE_DATABASE_ID")

	set(&cfg.S3.Bucket, "TADA_S3_BUCKET")
	set(&cfg.S3.Region, "TADA_S3_REGION")
	set(&cfg.S3.Endpoint, "TADA_S3_ENDPOINT")
	set(&cfg.S3.Prefix, "TADA_S3_PREFIX")
	if v := getenv("TADA_S3_PATH_STYLE"); v != "" {
		cfg.S3.PathStyle = strings.EqualFold(v, "true")
	}
}

// Validate checks the selected driver has what it needs to connect.
func (c Config) Validate() error {
	var missing []string
	need := func(v, name string) {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	switch c.Driver {
	case DriverFirestore:
		need(c.Firebase.ProjectID, "TADA_FIREBASE_PROJECT_ID")
		if c.Firebase.Credentials == "" {
			need(c.Firebase.APIKey, "TADA_FIREBASE_API_KEY")
		}
	case DriverPostgres, DriverMySQL:
		need(c.DSN, "TADA_STORE_DSN")
	case DriverS3:
		need(c.S3.Bucket, "TADA_S3_BUCKET")
	case DriverMemory, DriverFile, DriverSQLite:
	default:
		return fmt.Errorf("unknown store driver %q (want one of %s)", c.Driver, strings.Join(Drivers, ", "))
	}
	if len(missing) > 0 {
		return &MissingError{Driver: c.Driver, Params: missing}
	}
	return nil
}
