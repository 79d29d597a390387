package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) Getenv {
	return func(k string) string { return m[k] }
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := Load("", envMap(nil))
	require.NoError(t, err)
	assert.Equal(t, DriverFirestore, cfg.Driver)
	assert.Equal(t, "todos", cfg.Collection)
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tada.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
driver: SQLite
path: /tmp/tada.db
firebase:
  project_id: from-file
  api_key: file-key
s3:
  bucket: b1
  path_style: true
`), 0o600))

	cfg, err := Load(path, envMap(map[string]string{
		"FIREBASE_PROJECT_ID": "from-env",
		"TADA_COLLECTION":     "tasks",
	}))
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.Driver)
	assert.Equal(t, "/tmp/tada.db", cfg.Path)
	assert.Equal(t, "from-env", cfg.Firebase.ProjectID)
	assert.Equal(t, "file-key", cfg.Firebase.APIKey)
	assert.Equal(t, "tasks", cfg.Collection)
	assert.True(t, cfg.S3.PathStyle)
}

func TestPrefixedEnvWins(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := Load("", envMap(map[string]string{
		"TADA_FIREBASE_API_KEY": "primary",
		"FIREBASE_API_KEY":      "fallback",
	}))
	require.NoError(t, err)
	assert.Equal(t, "primary", cfg.Firebase.APIKey)
}

func TestExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), envMap(nil))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		missing []string
	}{
		{"firestore empty", Config{Driver: DriverFirestore}, []string{"TADA_FIREBASE_PROJECT_ID", "TADA_FIREBASE_API_KEY"}},
		{"firestore with credentials file", Config{Driver: DriverFirestore, Firebase: Firebase{ProjectID: "p", Credentials: "sa.json"}}, nil},
		{"firestore complete", Config{Driver: DriverFirestore, Firebase: Firebase{ProjectID: "p", APIKey: "k"}}, nil},
		{"postgres", Config{Driver: DriverPostgres}, []string{"TADA_STORE_DSN"}},
		{"s3", Config{Driver: DriverS3}, []string{"TADA_S3_BUCKET"}},
		{"memory", Config{Driver: DriverMemory}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.missing == nil {
				assert.NoError(t, err)
				return
			}
			var me *MissingError
			require.ErrorAs(t, err, &me)
			assert.Equal(t, tt.missing, me.Params)
		})
	}

	err := Config{Driver: "redis"}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown store driver")
}

func TestTokenLifecycle(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	none := envMap(nil)

	ti, err := GetToken(none)
	require.NoError(t, err)
	assert.Nil(t, ti)

	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": exp.Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	require.NoError(t, SetToken("Bearer "+signed))
	ti, err = GetToken(none)
	require.NoError(t, err)
	require.NotNil(t, ti)
	assert.Equal(t, signed, ti.Token)
	assert.Equal(t, "file", ti.Source)
	require.NotNil(t, ti.ExpiresAt)
	assert.True(t, exp.Equal(*ti.ExpiresAt))

	dir, err := Dir()
	require.NoError(t, err)
	st, err := os.Stat(filepath.Join(dir, credFileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), st.Mode().Perm())

	ti, err = GetToken(envMap(map[string]string{TokenEnv: "env-key"}))
	require.NoError(t, err)
	assert.Equal(t, "env", ti.Source)

	require.NoError(t, DeleteToken())
	require.NoError(t, DeleteToken())
	ti, err = GetToken(none)
	require.NoError(t, err)
	assert.Nil(t, ti)
}

func TestApplyToken(t *testing.T) {
	cfg := Config{}
	require.NoError(t, cfg.ApplyToken(envMap(map[string]string{TokenEnv: "k1"})))
	assert.Equal(t, "k1", cfg.Firebase.APIKey)

	cfg.Firebase.APIKey = "explicit"
	require.NoError(t, cfg.ApplyToken(envMap(map[string]string{TokenEnv: "k2"})))
	assert.Equal(t, "explicit", cfg.Firebase.APIKey)
}

func TestClaims(t *testing.T) {
	_, ok := Claims("opaque-api-key")
	assert.False(t, ok)
}
