package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Credential errors. Every failure to read a usable token wraps ErrUnauthorized.
	ErrUnauthorized       = fmt.Errorf("unauthorized")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Request errors, mapped to client facing statuses by the gateway
	ErrBadRequest = fmt.Errorf("bad request")
	ErrNotFound   = fmt.Errorf("not found")

	// API and service errors
	ErrAPIRequest        = fmt.Errorf("API request failed")
	ErrMalformedResponse = fmt.Errorf("malformed upstream response")
	ErrTimeout           = fmt.Errorf("operation timed out")

	// Login task errors
	ErrLoginFailed = fmt.Errorf("login task failed")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
