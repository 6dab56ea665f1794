package tenantdb

import "regexp"

// MaxTenantIDLength keeps identifiers within MongoDB's database name limit
// after the configured prefix is applied.
const MaxTenantIDLength = 63

var tenantIDPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)

// ValidateTenantID reports ErrInvalidTenantID for identifiers that are empty,
// too long or contain characters that are unsafe in a database name.
func ValidateTenantID(id string) error {
	if id == "" || len(id) > MaxTenantIDLength || !tenantIDPattern.MatchString(id) {
		return ErrInvalidTenantID
	}
	return nil
}
