package auth

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// HasPermission reports whether the role has been granted the named
// permission. The probe is a plain boolean query — a missing grant is not an
// error, so admin-or-owner checks never use error control flow.
func HasPermission(db sqlx.Queryer, roleID, permission string) (bool, error) {
	var granted bool
	err := sqlx.Get(db, &granted, `
		SELECT EXISTS (
			SELECT 1 FROM role_permissions rp
			JOIN permissions p ON p.id = rp.permission_id
			WHERE rp.role_id = $1 AND p.name = $2
		)
	`, roleID, permission)
	if err != nil {
		return false, fmt.Errorf("permission lookup failed: %w", err)
	}
	return granted, nil
}

// RequirePermission denies with ErrForbidden unless the role holds the named
// permission.
func RequirePermission(db sqlx.Queryer, roleID, permission string) error {
	granted, err := HasPermission(db, roleID, permission)
	if err != nil {
		return err
	}
	if !granted {
		return fmt.Errorf("%w: missing permission %q", ErrForbidden, permission)
	}
	return nil
}

// AllowAdminOrOwner implements the ownership override: the named
// (admin-equivalent) permission is checked first, and if absent the caller may
// still proceed as the resource's owner. Only when neither holds is the
// request denied.
func AllowAdminOrOwner(db sqlx.Queryer, roleID, adminPermission string, isOwner bool) error {
	granted, err := HasPermission(db, roleID, adminPermission)
	if err != nil {
		return err
	}
	if granted || isOwner {
		return nil
	}
	return fmt.Errorf("%w: requires %q or ownership of the resource", ErrForbidden, adminPermission)
}
