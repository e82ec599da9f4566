package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// AWSConfig holds the credentials handed to the storage client. They are
// carried explicitly rather than exported into the process environment.
type AWSConfig struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
}

// Config is the full job configuration, read once at startup from an
// ini-style file (dl.cfg by convention).
type Config struct {
	AWS AWSConfig

	InputBucket     string
	OutputBucket    string
	SongDataPattern string
	LogDataPattern  string
	OutputPrefix    string

	LogLevel         string
	TempDir          string
	MaxParallelFetch int
}

// Load reads the ini file at path into a Config. Missing credentials are a
// fatal configuration error; everything else falls back to the defaults
// the job has always used.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("ini")

	v.SetDefault("aws.region", "us-west-2")
	v.SetDefault("s3.input_bucket", "udacity-dend")
	v.SetDefault("s3.output_bucket", "despotakis-data-lake")
	v.SetDefault("s3.song_data_pattern", "song_data/A/A/*/*.json")
	v.SetDefault("s3.log_data_pattern", "log_data/*/*/*.json")
	v.SetDefault("s3.output_prefix", "")
	v.SetDefault("job.log_level", "info")
	v.SetDefault("job.temp_dir", "/tmp/sparkify_parquet")
	v.SetDefault("job.max_parallel_fetch", 8)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := Config{
		AWS: AWSConfig{
			AccessKeyID:     v.GetString("aws.aws_access_key_id"),
			SecretAccessKey: v.GetString("aws.aws_secret_access_key"),
			Region:          v.GetString("aws.region"),
		},
		InputBucket:      v.GetString("s3.input_bucket"),
		OutputBucket:     v.GetString("s3.output_bucket"),
		SongDataPattern:  v.GetString("s3.song_data_pattern"),
		LogDataPattern:   v.GetString("s3.log_data_pattern"),
		OutputPrefix:     v.GetString("s3.output_prefix"),
		LogLevel:         v.GetString("job.log_level"),
		TempDir:          v.GetString("job.temp_dir"),
		MaxParallelFetch: v.GetInt("job.max_parallel_fetch"),
	}

	if cfg.AWS.AccessKeyID == "" || cfg.AWS.SecretAccessKey == "" {
		return Config{}, fmt.Errorf("config %s: AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY are required", path)
	}
	if cfg.MaxParallelFetch < 1 {
		cfg.MaxParallelFetch = 1
	}

	return cfg, nil
}
