// Copyright (c) 2026 SafHub. All rights reserved.

package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	// SendgridHost is the production Web API host.
	SendgridHost = "https://api.sendgrid.com"

	sendgridEndpoint = "/v3/mail/send"
)

// SendgridMailer sends mail through the SendGrid v3 Web API.
type SendgridMailer struct {
	key           string
	host          string
	from          *sgmail.Email
	subjectPrefix string
	verifyURL     string
	logger        *slog.Logger
}

// SendgridOptions configures a [SendgridMailer]. Host defaults to
// [SendgridHost].
type SendgridOptions struct {
	APIKey    string
	Host      string
	AppName   string
	FromEmail string
	VerifyURL string
}

// NewSendgridMailer constructs a [SendgridMailer].
func NewSendgridMailer(options SendgridOptions, logger *slog.Logger) *SendgridMailer {
	if options.Host == "" {
		options.Host = SendgridHost
	}
	return &SendgridMailer{
		key:           options.APIKey,
		host:          options.Host,
		from:          sgmail.NewEmail(options.AppName, options.FromEmail),
		subjectPrefix: "[" + options.AppName + "] ",
		verifyURL:     options.VerifyURL,
		logger:        logger,
	}
}

/*
SendVerification mails the confirmation link for token to the address to.

Returns:
  - err: Transport failures, or the API's status and body on a 4xx/5xx
*/
func (mailer *SendgridMailer) SendVerification(context context.Context, to, token string) error {
	link := VerificationLink(mailer.verifyURL, token)

	personalization := sgmail.NewPersonalization()
	personalization.Subject = mailer.subjectPrefix + verificationSubject
	personalization.AddTos(sgmail.NewEmail("", to))

	message := sgmail.NewV3Mail()
	message.SetFrom(mailer.from)
	message.AddPersonalizations(personalization)
	message.AddContent(
		sgmail.NewContent("text/plain", verificationText(link)),
		sgmail.NewContent("text/html", verificationHTML(link)),
	)

	request := sendgrid.GetRequest(mailer.key, sendgridEndpoint, mailer.host)
	request.Method = http.MethodPost
	request.Body = sgmail.GetRequestBody(message)

	response, err := sendgrid.MakeRequestWithContext(context, request)
	if err != nil {
		return fmt.Errorf("mail_sendgrid_request_failed: %w", err)
	}
	if response.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("mail_sendgrid_rejected: status %d: %s", response.StatusCode, response.Body)
	}

	mailer.logger.DebugContext(context, "verification_mail_sent", slog.Int("status", response.StatusCode))
	return nil
}
