package xerror

import (
	"errors"
	"fmt"
)

// ProviderError tags an error with the storage or secrets provider it came from.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider=%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func WrapProviderError(provider string, err error) error {
	if err == nil {
		return nil
	}
	return &ProviderError{
		Provider: provider,
		Err:      err,
	}
}

func GetProvider(err error) string {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Provider
	}
	return ""
}
