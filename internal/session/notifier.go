// Copyright (c) 2026 SafHub. All rights reserved.

package session

import "log/slog"

// LogNotifier is a [Notifier] for headless use: messages become log records.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier writing to logger.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (notifier *LogNotifier) Success(title, message string) {
	notifier.logger.Info("notify_success", slog.String("title", title), slog.String("message", message))
}

func (notifier *LogNotifier) Error(title, message string) {
	notifier.logger.Warn("notify_error", slog.String("title", title), slog.String("message", message))
}
