// Package logger provides structured logging with configurable log levels.
// It wraps the standard log/slog package, writes text in dev and JSON in prod,
// and can fan out to a size-rotated log file.
package logger
