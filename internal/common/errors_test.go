package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelsAreDistinct(t *testing.T) {
	all := []error{
		ErrorNotFound,
		ErrValidation,
		ErrInvalidCredentials,
		ErrAlreadyRegistered,
		ErrInvalidToken,
		ErrTokenExpired,
		ErrStorage,
	}
	for i, a := range all {
		for j, b := range all {
			if i != j {
				assert.False(t, errors.Is(a, b), "%v must not match %v", a, b)
			}
		}
	}
}

func TestSentinelsSurviveWrapping(t *testing.T) {
	err := fmt.Errorf("failed to get kv[authToken]: %w", ErrStorage)
	assert.ErrorIs(t, err, ErrStorage)
}
