package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorConstructors_WrapSentinels(t *testing.T) {
	assert.ErrorIs(t, ValidationError("bad input %d", 7), ErrValidation)
	assert.ErrorIs(t, PermissionError("not allowed"), ErrPermission)
	assert.ErrorIs(t, NotFoundError("post 3"), ErrNotFound)
}

func TestErrorConstructors_KeepMessages(t *testing.T) {
	err := ValidationError("field %s is empty", "text")
	assert.Contains(t, err.Error(), "field text is empty")

	err = PermissionError("address is not on the posting list")
	assert.Contains(t, err.Error(), "posting list")
}

func TestSentinels_AreDistinct(t *testing.T) {
	sentinels := []error{ErrValidation, ErrPermission, ErrNotFound, ErrStorage, ErrCorrupt}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j {
				assert.False(t, errors.Is(a, b))
			}
		}
	}
}

func TestWrappedStorageErrors_Match(t *testing.T) {
	err := fmt.Errorf("%w: read index for board.example: disk gone", ErrStorage)
	assert.ErrorIs(t, err, ErrStorage)
	assert.NotErrorIs(t, err, ErrCorrupt)
}
