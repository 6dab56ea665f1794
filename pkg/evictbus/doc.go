// Package evictbus propagates tenant connection evictions across replicas.
//
// When an operator evicts a tenant on one replica, the other replicas still
// hold their own connection to the tenant's database. Bus publishes the
// eviction on a Redis pub/sub channel and Run applies events received from
// other replicas to the local registry:
//
//	bus, _ := evictbus.New(redisClient, evictbus.WithLogger(log))
//	go bus.Run(ctx, registry)
//
//	registry.Evict("clinic_42")
//	_, _ = bus.Publish(ctx, "clinic_42")
//
// Delivery is best effort: replicas that are not subscribed when an event is
// published miss it. Events published by a Bus are ignored by that same Bus.
package evictbus
