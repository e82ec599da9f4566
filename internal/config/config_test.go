package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dl.cfg")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
[AWS]
AWS_ACCESS_KEY_ID = AKIATESTKEY
AWS_SECRET_ACCESS_KEY = testsecret
REGION = eu-central-1

[S3]
INPUT_BUCKET = raw-bucket
OUTPUT_BUCKET = lake-bucket
SONG_DATA_PATTERN = song_data/*/*/*/*.json
OUTPUT_PREFIX = analytics/

[JOB]
LOG_LEVEL = debug
MAX_PARALLEL_FETCH = 4
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "AKIATESTKEY", cfg.AWS.AccessKeyID)
	assert.Equal(t, "testsecret", cfg.AWS.SecretAccessKey)
	assert.Equal(t, "eu-central-1", cfg.AWS.Region)
	assert.Equal(t, "raw-bucket", cfg.InputBucket)
	assert.Equal(t, "lake-bucket", cfg.OutputBucket)
	assert.Equal(t, "song_data/*/*/*/*.json", cfg.SongDataPattern)
	assert.Equal(t, "analytics/", cfg.OutputPrefix)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 4, cfg.MaxParallelFetch)
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
[AWS]
AWS_ACCESS_KEY_ID = AKIATESTKEY
AWS_SECRET_ACCESS_KEY = testsecret
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "us-west-2", cfg.AWS.Region)
	assert.Equal(t, "song_data/A/A/*/*.json", cfg.SongDataPattern)
	assert.Equal(t, "log_data/*/*/*.json", cfg.LogDataPattern)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8, cfg.MaxParallelFetch)
}

func TestLoadMissingCredentials(t *testing.T) {
	path := writeConfig(t, `
[S3]
INPUT_BUCKET = raw-bucket
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AWS_ACCESS_KEY_ID")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.cfg"))
	require.Error(t, err)
}
