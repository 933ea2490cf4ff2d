package reminder

import "errors"

var (
	// ErrConfigurationMissing marks an optional setting that is absent; the affected policy is skipped.
	ErrConfigurationMissing = errors.New("configuration missing")
	// ErrConfigurationInvalid marks a setting that is present but malformed.
	ErrConfigurationInvalid = errors.New("configuration invalid")
	// ErrSourceFetchFailed wraps pull request source failures for a single repository.
	ErrSourceFetchFailed = errors.New("pull request fetch failed")
	// ErrDeliveryFailed wraps a failed webhook or email send.
	ErrDeliveryFailed = errors.New("delivery failed")
)
