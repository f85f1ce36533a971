package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/crime-analysis/backend/internal/models"
)

func TestAuthorize_Table(t *testing.T) {
	expected := map[Operation][]models.Role{
		OpRead: models.Roles,
		OpCreateIncident: {
			models.RoleGeneralStatistic, models.RoleAdministrator,
		},
		OpUpdateIncident: {
			models.RoleGeneralStatistic, models.RoleHR, models.RoleCivilStatus,
			models.RoleMinistryOfJustice, models.RoleAdministrator,
		},
		OpDeleteIncident: {models.RoleAdministrator},
		OpExportReport:   {models.RoleAdministrator, models.RoleMinistryOfInterior},
		OpListUsers:      {models.RoleAdministrator},
	}

	for _, op := range Operations {
		want := map[models.Role]bool{}
		for _, r := range expected[op] {
			want[r] = true
		}
		for _, role := range models.Roles {
			assert.Equalf(t, want[role], Authorize(role, op), "role=%s op=%s", role, op)
		}
	}
}

func TestAuthorize_UnrecognisedInputs(t *testing.T) {
	assert.False(t, Authorize(models.Role("superuser"), OpDeleteIncident))
	assert.False(t, Authorize(models.RoleAdministrator, Operation("drop_tables")))
}

func TestCheck(t *testing.T) {
	assert.NoError(t, Check(models.RoleAdministrator, OpExportReport))

	err := Check(models.RoleHR, OpExportReport)
	assert.ErrorIs(t, err, ErrForbidden)
}
