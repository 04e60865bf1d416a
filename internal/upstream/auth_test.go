package upstream

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateServiceAccountJSONAcceptsObject(t *testing.T) {
	err := ValidateServiceAccountJSON(`{"type":"service_account","private_key":"x"}`)
	assert.NoError(t, err)
}

func TestValidateServiceAccountJSONRejectsMalformed(t *testing.T) {
	err := ValidateServiceAccountJSON(`not json`)
	assert.Error(t, err)
}
