package domain

import "errors"

// ErrNotFound is returned by gateways when the requested document does not
// exist in the remote store.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when input fails a domain rule
// (e.g. a patch that tries to rewrite a trip id).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrBackend wraps every failed remote call. The underlying cause is collapsed
// into the message; callers only ever branch on this sentinel.
var ErrBackend = errors.New("backend error")

// ErrConnectivity means no active network advertises internet capability.
var ErrConnectivity = errors.New("no internet connectivity")

// ErrPermission means the notification platform requires a runtime permission
// that has not been granted. The dispatcher never returns it to callers; it is
// only used for logging.
var ErrPermission = errors.New("notification permission not granted")

// ErrParse marks a malformed inbound payload. Parsers substitute a safe default
// instead of failing, so this only appears in logs.
var ErrParse = errors.New("malformed payload")
