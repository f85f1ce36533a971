package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crime-analysis/backend/internal/models"
)

func TestParseRole(t *testing.T) {
	role, err := parseRole("ministry_of_justice")
	require.NoError(t, err)
	assert.Equal(t, models.RoleMinistryOfJustice, role)

	role, err = parseRole("unknown")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUnknown, role)

	_, err = parseRole("adminstrator")
	assert.ErrorContains(t, err, "unknown role")
}
