// Copyright (c) 2026 SafHub. All rights reserved.

package mail

import (
	"context"
	"log/slog"
)

// LogMailer writes verification links to the log instead of sending them.
// Only for development: anyone reading the log can confirm the address.
type LogMailer struct {
	verifyURL string
	logger    *slog.Logger
}

// NewLogMailer constructs a [LogMailer].
func NewLogMailer(verifyURL string, logger *slog.Logger) *LogMailer {
	return &LogMailer{verifyURL: verifyURL, logger: logger}
}

// SendVerification logs the confirmation link for token.
func (mailer *LogMailer) SendVerification(context context.Context, to, token string) error {
	mailer.logger.InfoContext(context, "verification_mail_logged",
		slog.String("to", to),
		slog.String("link", VerificationLink(mailer.verifyURL, token)),
	)
	return nil
}
