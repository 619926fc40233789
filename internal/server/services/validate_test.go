package services

import (
	"strings"
	"testing"

	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/stretchr/testify/assert"
)

func TestValidateMasterPassword(t *testing.T) {
	tests := []struct {
		password string
		ok       bool
	}{
		{"Correct-Horse-9!", true},
		{"Abcdefghij1?", true},
		{"Abcdefghi1?", false},
		{strings.Repeat("Aa1!", 33), false},
		{"correct-horse-9!", false},
		{"CORRECT-HORSE-9!", false},
		{"Correct-Horse-X!", false},
		{"Correct-Horse-99", false},
	}

	for _, tt := range tests {
		err := validateMasterPassword(tt.password)
		if tt.ok {
			assert.NoError(t, err, tt.password)
		} else {
			assert.ErrorIs(t, err, common.ErrValidation, tt.password)
		}
	}
}

func TestValidateEmailAndUsername(t *testing.T) {
	assert.NoError(t, validateEmail("alice@example.com"))
	assert.ErrorIs(t, validateEmail(""), common.ErrValidation)
	assert.ErrorIs(t, validateEmail("alice@example"), common.ErrValidation)
	assert.ErrorIs(t, validateEmail(strings.Repeat("a", 250)+"@example.com"), common.ErrValidation)

	assert.NoError(t, validateUsername("alice_01-x"))
	assert.ErrorIs(t, validateUsername("ab"), common.ErrValidation)
	assert.ErrorIs(t, validateUsername(strings.Repeat("a", 51)), common.ErrValidation)
	assert.ErrorIs(t, validateUsername("alice!"), common.ErrValidation)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "alice@example.com", normalizeEmail("  Alice@Example.COM "))
}
