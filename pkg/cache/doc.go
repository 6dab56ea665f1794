// Package cache provides a generic, thread-safe LRU map used to keep a bounded
// set of long-lived resources such as per-tenant database connections.
//
// Entries dropped because the capacity bound was exceeded are passed to the
// callback registered with OnEvict, which is where owners release the resource.
// Explicit removals return the value to the caller and never fire the callback,
// so the caller decides how the resource is retired.
//
// # Usage
//
//	conns := cache.NewLRU[string, *tenantdb.Conn](500)
//	conns.OnEvict(func(id string, c *tenantdb.Conn) {
//		go c.Close(context.Background())
//	})
//
//	conns.Put("clinic_42", conn)
//	conn, ok := conns.Get("clinic_42")
//
//	// remove only if the cached value is still the one we hold
//	conns.RemoveIf("clinic_42", func(c *tenantdb.Conn) bool { return c == conn })
//
// All operations are O(1) except Range and Drain, which visit every entry.
package cache
