package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Listen       string
	Capabilities []string
	DerefTags    bool
	LogLevel     slog.Level
}

func defaultConfig() Config {
	return Config{
		Listen:       "tcp://127.0.0.1:9418",
		Capabilities: []string{"multi_ack", "side-band-64k"},
		DerefTags:    true,
		LogLevel:     slog.LevelInfo,
	}
}

type fileConfig struct {
	Listen       string   `toml:"listen"`
	Capabilities []string `toml:"capabilities"`
	DerefTags    bool     `toml:"deref_tags"`
	LogLevel     string   `toml:"log_level"`
}

func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("listen") {
		if addr := strings.TrimSpace(raw.Listen); addr != "" {
			cfg.Listen = addr
		}
	}

	if meta.IsDefined("capabilities") {
		cfg.Capabilities = normalizeCaps(raw.Capabilities)
	}

	if meta.IsDefined("deref_tags") {
		cfg.DerefTags = raw.DerefTags
	}

	if meta.IsDefined("log_level") {
		level, err := parseLevel(raw.LogLevel)
		if err != nil {
			return Config{}, err
		}
		cfg.LogLevel = level
	}

	return cfg, nil
}

func normalizeCaps(in []string) []string {
	out := make([]string, 0, len(in))
	for _, c := range in {
		if v := strings.TrimSpace(c); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("parse log_level: unknown level %q", s)
}
