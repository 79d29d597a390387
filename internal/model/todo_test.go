package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeText(t *testing.T) {
	got, err := NormalizeText("  Buy milk \n")
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", got)

	for _, in := range []string{"", " ", "\t\n  "} {
		_, err := NormalizeText(in)
		var ve *ValidationError
		require.True(t, errors.As(err, &ve), "input %q", in)
		assert.Equal(t, "text", ve.Field)
		assert.Equal(t, "text: cannot be empty", err.Error())
	}
}

func TestEdited(t *testing.T) {
	t0 := time.Now()
	assert.False(t, Todo{CreatedAt: t0, UpdatedAt: t0}.Edited())
	assert.True(t, Todo{CreatedAt: t0, UpdatedAt: t0.Add(time.Millisecond)}.Edited())
}
