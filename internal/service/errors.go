// Package service contains the application services that orchestrate the
// domain, stores, and platform capabilities.
package service

import "errors"

// Account lifecycle errors. Handlers map these to precise HTTP statuses;
// only truly unexpected failures collapse into a generic internal error.
var (
	// ErrEmailInUse indicates a signup with an already-registered email.
	ErrEmailInUse = errors.New("email already in use")

	// ErrAccountNotFound indicates no account matches the given email or ID.
	ErrAccountNotFound = errors.New("account not found")

	// ErrIncorrectPassword indicates the supplied password does not match
	// the stored hash.
	ErrIncorrectPassword = errors.New("incorrect password")

	// ErrNotVerified indicates a login attempt against an account whose
	// email has not been verified yet.
	ErrNotVerified = errors.New("account email not verified")

	// ErrCodeMismatch indicates the supplied verification code does not
	// match the outstanding one.
	ErrCodeMismatch = errors.New("verification code mismatch")

	// ErrCodeExpired indicates the supplied verification code matched but
	// is past its validity window.
	ErrCodeExpired = errors.New("verification code expired")

	// ErrResetTokenInvalid indicates the supplied reset credential does not
	// match the stored digest, or no reset is in flight.
	ErrResetTokenInvalid = errors.New("reset token invalid")

	// ErrResetTokenExpired indicates the supplied reset credential matched
	// but is past its validity window.
	ErrResetTokenExpired = errors.New("reset token expired")

	// ErrMailDelivery indicates the downstream mail dispatch failed. Any
	// state mutated before the send (e.g. the created account) stays in
	// place; the resend operations are the recovery path.
	ErrMailDelivery = errors.New("mail delivery failed")
)
