package repo

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pkordes/tripsync/internal/domain"
)

func TestValidatePatch(t *testing.T) {
	tests := []struct {
		name    string
		patch   map[string]any
		wantErr bool
	}{
		{"no id", map[string]any{"name": "x"}, false},
		{"same id", map[string]any{"id": "t1"}, false},
		{"different id", map[string]any{"id": "t2"}, true},
		{"non-string id", map[string]any{"id": 7}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePatch("t1", tt.patch)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWrapErr(t *testing.T) {
	err := wrapErr("op", domain.ErrNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NotErrorIs(t, err, domain.ErrBackend)

	err = wrapErr("op", errors.New("connection refused"))
	assert.ErrorIs(t, err, domain.ErrBackend)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%\_a\\b`, escapeLike(`100%_a\b`))
}
