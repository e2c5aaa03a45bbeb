package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)

	assert.True(t, CheckPassword("correct horse", hash))
	assert.False(t, CheckPassword("battery staple", hash))
	assert.False(t, CheckPassword("correct horse", "not-a-bcrypt-hash"))
}

func TestEqualConstantTime(t *testing.T) {
	assert.True(t, EqualConstantTime("abc", "abc"))
	assert.False(t, EqualConstantTime("abc", "abd"))
	assert.False(t, EqualConstantTime("abc", "abcd"))
	assert.False(t, EqualConstantTime("", "a"))
}
