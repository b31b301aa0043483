// Copyright (c) 2026 SafHub. All rights reserved.

// Package mail delivers account emails for the identity backend.
//
// Two senders exist: [SendgridMailer] for deployed environments and
// [LogMailer], which only logs, for development and tests.
package mail

import (
	"fmt"
	"net/url"
)

const verificationSubject = "Confirm your email address"

/*
VerificationLink appends token to base as the "token" query parameter.

Description: Existing query parameters of base are kept. A base that does
not parse is returned with the parameter appended verbatim.
*/
func VerificationLink(base, token string) string {
	link, err := url.Parse(base)
	if err != nil {
		return base + "?token=" + url.QueryEscape(token)
	}
	query := link.Query()
	query.Set("token", token)
	link.RawQuery = query.Encode()
	return link.String()
}

func verificationText(link string) string {
	return fmt.Sprintf("Welcome to SafHub!\n\nConfirm your email address to finish signing up:\n%s\n\nIf you did not create an account, ignore this email.\n", link)
}

func verificationHTML(link string) string {
	return fmt.Sprintf(`<p>Welcome to SafHub!</p><p><a href="%s">Confirm your email address</a> to finish signing up.</p><p>If you did not create an account, ignore this email.</p>`, link)
}
