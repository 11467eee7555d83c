// Package services defines the business logic for debtor tracking: outbound
// reminders, inbound reply correlation, engagement reports, and sentiment
// enrichment. This file centralizes common service-level error values so that
// they can be consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages or HTTP status codes is performed at the handler
// layer.
package services

import "errors"

var (
	// ErrDebtorNotFound indicates that the requested debtor does not exist or
	// is not accessible to the current user.
	ErrDebtorNotFound = errors.New("debtor not found")

	// ErrChannelNotLinked is returned when a reminder is requested for a
	// debtor who has not yet linked their chat account.
	ErrChannelNotLinked = errors.New("debtor has not linked a chat account")

	// ErrNoTransport is returned when sending is attempted but no outbound
	// transport is configured for this process.
	ErrNoTransport = errors.New("no outbound transport configured")

	// ErrNoClassifier is returned when an enrichment pass is requested but no
	// sentiment classifier is configured.
	ErrNoClassifier = errors.New("no sentiment classifier configured")

	// ErrEmptyUpload is returned when a debtor upload contains no rows.
	ErrEmptyUpload = errors.New("upload contains no rows")

	// ErrInvalidRow is returned when an uploaded debtor row is missing its
	// email, the identifier inbound replies link against.
	ErrInvalidRow = errors.New("debtor row requires an email")
)
