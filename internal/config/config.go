package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTPPort  int
	OutputDir string

	YtDlpPath    string
	FFmpegPath   string
	FetchTimeout time.Duration

	JobRetention  time.Duration
	SweepInterval time.Duration
}

// fileConfig is the optional YAML config file. Values found here become the
// defaults that environment variables may still override.
type fileConfig struct {
	HTTPPort      int    `yaml:"http_port"`
	OutputDir     string `yaml:"output_dir"`
	YtDlpPath     string `yaml:"ytdlp_path"`
	FFmpegPath    string `yaml:"ffmpeg_path"`
	FetchTimeout  int    `yaml:"fetch_timeout_seconds"`
	JobRetention  int    `yaml:"job_retention_seconds"`
	SweepInterval int    `yaml:"sweep_interval_seconds"`
}

func Load() *Config {
	fc := loadFile(os.Getenv("CONFIG_FILE"))

	return &Config{
		HTTPPort:      getEnvInt("HTTP_PORT", orInt(fc.HTTPPort, 8000)),
		OutputDir:     getEnv("OUTPUT_DIR", orStr(fc.OutputDir, "./downloads")),
		YtDlpPath:     getEnv("YTDLP_PATH", orStr(fc.YtDlpPath, "yt-dlp")),
		FFmpegPath:    getEnv("FFMPEG_PATH", orStr(fc.FFmpegPath, "ffmpeg")),
		FetchTimeout:  time.Duration(getEnvInt("FETCH_TIMEOUT_SECONDS", orInt(fc.FetchTimeout, 600))) * time.Second,
		JobRetention:  time.Duration(getEnvInt("JOB_RETENTION_SECONDS", orInt(fc.JobRetention, 3600))) * time.Second,
		SweepInterval: time.Duration(getEnvInt("SWEEP_INTERVAL_SECONDS", orInt(fc.SweepInterval, 3600))) * time.Second,
	}
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

func loadFile(path string) fileConfig {
	var fc fileConfig
	if path == "" {
		return fc
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fc
	}
	// A malformed file falls back to built-in defaults.
	_ = yaml.Unmarshal(data, &fc)
	return fc
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func orStr(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

func orInt(v, fallback int) int {
	if v != 0 {
		return v
	}
	return fallback
}
