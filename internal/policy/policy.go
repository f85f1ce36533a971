// Package policy decides which roles may perform which operations.
package policy

import (
	"errors"
	"fmt"

	"github.com/crime-analysis/backend/internal/models"
)

type Operation string

const (
	OpRead           Operation = "read"
	OpCreateIncident Operation = "create_incident"
	OpUpdateIncident Operation = "update_incident"
	OpDeleteIncident Operation = "delete_incident"
	OpExportReport   Operation = "export_report"
	OpListUsers      Operation = "list_users"
)

// Operations lists every gated operation.
var Operations = []Operation{
	OpRead,
	OpCreateIncident,
	OpUpdateIncident,
	OpDeleteIncident,
	OpExportReport,
	OpListUsers,
}

var ErrForbidden = errors.New("forbidden")

func roleSet(roles ...models.Role) map[models.Role]struct{} {
	set := make(map[models.Role]struct{}, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

var allowed = map[Operation]map[models.Role]struct{}{
	OpRead: roleSet(models.Roles...),
	OpCreateIncident: roleSet(
		models.RoleGeneralStatistic,
		models.RoleAdministrator,
	),
	OpUpdateIncident: roleSet(
		models.RoleGeneralStatistic,
		models.RoleHR,
		models.RoleCivilStatus,
		models.RoleMinistryOfJustice,
		models.RoleAdministrator,
	),
	OpDeleteIncident: roleSet(models.RoleAdministrator),
	OpExportReport: roleSet(
		models.RoleAdministrator,
		models.RoleMinistryOfInterior,
	),
	OpListUsers: roleSet(models.RoleAdministrator),
}

// Authorize reports whether role may perform op. Unknown operations are denied.
func Authorize(role models.Role, op Operation) bool {
	roles, ok := allowed[op]
	if !ok {
		return false
	}
	_, ok = roles[role]
	return ok
}

// Check is Authorize as an error.
func Check(role models.Role, op Operation) error {
	if !Authorize(role, op) {
		return fmt.Errorf("%w: role %q may not %s", ErrForbidden, role, op)
	}
	return nil
}
