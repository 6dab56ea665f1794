// Package schema binds typed collection handles to tenant connections.
//
// A Binder turns a *tenantdb.Conn into a *Set holding the four collections
// every clinic database has: patients, appointments, staff and settings.
// Sets are cached per connection, so binding is cheap on every request, and
// dropped when the registry closes the connection.
//
//	set, err := binder.Bind(conn)
//	if err != nil {
//		// errors.Is(err, schema.ErrBindingFailed)
//	}
//	patients, err := set.Patients.List(ctx, schema.ListOptions{Limit: 20})
//
// Models validate themselves with pkg/validator before every write and fill
// defaults (isActive, status, role, timezone) and timestamps. Deleting is a
// soft delete through Archive. EnsureIndexes creates the per-tenant indexes
// and is meant to be used as the registry initializer.
package schema
