package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"evalgallery/internal/config"
)

const logLevelEnvKey = "EVALGALLERY_LOG_LEVEL"

// levelSource names where the effective log level came from.
type levelSource string

const (
	fromFlag    levelSource = "flag"
	fromEnv     levelSource = "env"
	fromConfig  levelSource = "config"
	fromDefault levelSource = "default"
)

// configureLoggerForCLI installs the default slog logger. The level is read
// from --log-level, then EVALGALLERY_LOG_LEVEL, then the config file. An
// invalid flag is an error; an invalid env or config value falls back to the
// default level and returns a warning line.
func configureLoggerForCLI(flagLevel, configLevel string) (string, error) {
	envLevel := os.Getenv(logLevelEnvKey)
	raw, source := selectedLogLevel(flagLevel, envLevel, configLevel)

	level, err := parseLogLevel(raw)
	if err == nil {
		slog.SetDefault(newLogger(level))
		return "", nil
	}

	var warning string
	switch source {
	case fromFlag:
		return "", fmt.Errorf("invalid --log-level %q", flagLevel)
	case fromEnv:
		warning = fmt.Sprintf("warning: invalid %s=%q; defaulting to %s", logLevelEnvKey, envLevel, config.DefaultLogLevel)
	case fromConfig:
		warning = fmt.Sprintf("warning: invalid log_level=%q; defaulting to %s", configLevel, config.DefaultLogLevel)
	}
	fallback, _ := parseLogLevel(config.DefaultLogLevel)
	slog.SetDefault(newLogger(fallback))
	return warning, nil
}

func selectedLogLevel(flagLevel, envLevel, configLevel string) (string, levelSource) {
	candidates := []struct {
		value  string
		source levelSource
	}{
		{flagLevel, fromFlag},
		{envLevel, fromEnv},
		{configLevel, fromConfig},
	}
	for _, c := range candidates {
		if strings.TrimSpace(c.value) != "" {
			return c.value, c.source
		}
	}
	return "", fromDefault
}

func parseLogLevel(raw string) (slog.Level, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch value {
	case "":
		value = config.DefaultLogLevel
	case "warning":
		value = "warn"
	}

	if numeric, err := strconv.Atoi(value); err == nil {
		return slog.Level(numeric), nil
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", raw)
	}
	return level, nil
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})).With("app", "evalgallery")
}
