package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerification(t *testing.T) {
	body, err := Verification("482913", "jane doe", "5 minutes")
	require.NoError(t, err)
	assert.Contains(t, body, "482913")
	assert.Contains(t, body, "Dear jane doe")
	assert.Contains(t, body, "5 minutes")
}

func TestPasswordUpdatedEscapes(t *testing.T) {
	body, err := PasswordUpdated("a@x.com", "<b>Jane</b>")
	require.NoError(t, err)
	assert.Contains(t, body, "a@x.com")
	assert.NotContains(t, body, "<b>Jane</b>")
}
