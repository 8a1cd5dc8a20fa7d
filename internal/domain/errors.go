package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidName     = errors.New("invalid name")
	ErrInvalidDomain   = errors.New("invalid domain")
	ErrInvalidTTL      = errors.New("invalid TTL")
	ErrInvalidType     = errors.New("invalid type")
	ErrInvalidRole     = errors.New("invalid role")
	ErrEmptyValue      = errors.New("empty value")
	ErrRequired        = errors.New("required field missing")
	ErrMissingSecret   = errors.New("missing secret reference")
	ErrDuplicateID     = errors.New("duplicate provider id")
	ErrDuplicateName   = errors.New("duplicate provider name")
	ErrProviderMissing = errors.New("provider not found")
	ErrSelfSync        = errors.New("provider lists itself as its only source")

	ErrConfiguration       = errors.New("configuration error")
	ErrMissingCredential   = errors.New("missing credential")
	ErrUnsupportedProvider = errors.New("unsupported provider")
	ErrProviderAuth        = errors.New("provider authentication failed")
	ErrProviderRateLimit   = errors.New("provider rate limit exceeded")
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrMalformedRecord     = errors.New("malformed record")
	ErrSafetyViolation     = errors.New("safety violation")
	ErrPartialApply        = errors.New("some record operations failed")
	ErrTargetTimeout       = errors.New("target deadline exceeded")

	ErrDNSDomainNotFound = errors.New("DNS domain not found")
	ErrDNSRecordNotFound = errors.New("DNS record not found")

	ErrConfigReadFailed  = errors.New("config read failed")
	ErrConfigParseFailed = errors.New("config parse failed")

	ErrStateReadFailed    = errors.New("state read failed")
	ErrStateWriteFailed   = errors.New("state write failed")
	ErrStateSerializeFail = errors.New("state serialization failed")
)

func RequiredField(field string) error {
	return fmt.Errorf("%w: %s", ErrRequired, field)
}

func WrapOp(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

func WrapEntity(entity, name string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s[%s]: %w", entity, name, err)
}

// MalformedRecordError reports a vendor record that could not be canonicalized.
type MalformedRecordError struct {
	Vendor string
	ID     string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s record: %s", e.Vendor, e.Reason)
	}
	return fmt.Sprintf("%s record %s: %s", e.Vendor, e.ID, e.Reason)
}

func (e *MalformedRecordError) Unwrap() error {
	return ErrMalformedRecord
}

func NewMalformedRecord(vendor, id, reason string) error {
	return &MalformedRecordError{Vendor: vendor, ID: id, Reason: reason}
}

// ConfigurationError aborts a whole run before any network call.
func ConfigurationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// IsProviderError reports whether err belongs to the vendor-side taxonomy.
func IsProviderError(err error) bool {
	return errors.Is(err, ErrProviderAuth) ||
		errors.Is(err, ErrProviderRateLimit) ||
		errors.Is(err, ErrProviderUnavailable) ||
		errors.Is(err, ErrUnsupportedProvider)
}

// IsRetryable reports whether a record operation failing with err is worth another attempt.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, ErrProviderAuth),
		errors.Is(err, ErrUnsupportedProvider),
		errors.Is(err, ErrMalformedRecord),
		errors.Is(err, ErrDNSDomainNotFound),
		errors.Is(err, ErrMissingCredential):
		return false
	}
	return true
}
