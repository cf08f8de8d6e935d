package cli

import (
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatewell-labs/formgate/internal/schema"
)

func TestGeneratePayload_ValidAgainstSchemas(t *testing.T) {
	gofakeit.Seed(42)

	for name, form := range schema.All() {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < 25; i++ {
				payload, err := GeneratePayload(name)
				require.NoError(t, err)

				result := form.Validate(payload)
				assert.True(t, result.OK(), "generated payload must pass validation: %v", result.Errors)
			}
		})
	}
}

func TestGeneratePayload_UnknownEndpoint(t *testing.T) {
	_, err := GeneratePayload("nope")
	assert.Error(t, err)
}
