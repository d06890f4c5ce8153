package humans

import "errors"

// Configuration errors. These are returned by builders at start-up and are
// not meant to be recovered from.
var (
	ErrNilBase              = errors.New("humans: schema base is nil")
	ErrMissingUserDirectory = errors.New("humans: user directory is required")
	ErrBaseMismatch         = errors.New("humans: directories belong to different schema bases")
	ErrTableRegistered      = errors.New("humans: table already registered")
	ErrAlreadyLinked        = errors.New("humans: directory already linked to a permission directory")
	ErrNoSchemes            = errors.New("humans: at least one crypt scheme is required")
	ErrUnknownScheme        = errors.New("humans: unknown crypt scheme")
)

// Capability errors, returned when an operation needs a relation that was not
// composed into the schema.
var (
	ErrGroupsNotConfigured      = errors.New("humans: group relation not configured")
	ErrPermissionsNotConfigured = errors.New("humans: permission relation not configured")
)

// Validation errors, returned before a row is written
var (
	ErrUsernameRequired = errors.New("humans: username is required")
	ErrPasswordRequired = errors.New("humans: password is required")
	ErrNameRequired     = errors.New("humans: name is required")
)
