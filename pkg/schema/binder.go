package schema

import (
	"sync"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/dmitrymomot/clinickit/pkg/tenantdb"
)

// Set is the group of data-access handles bound to one tenant connection.
// It never changes after creation.
type Set struct {
	Patients     *Collection[Patient, *Patient]
	Appointments *Collection[Appointment, *Appointment]
	Staff        *Collection[Staff, *Staff]
	Settings     *SettingsCollection
}

func newSet(db *mongo.Database) *Set {
	return &Set{
		Patients:     newCollection[Patient, *Patient](db, PatientsCollection),
		Appointments: newCollection[Appointment, *Appointment](db, AppointmentsCollection),
		Staff:        newCollection[Staff, *Staff](db, StaffCollection),
		Settings:     newSettingsCollection(db),
	}
}

// Binder builds handle sets for tenant connections. Binding the same
// connection twice returns the same Set; a set is dropped when its connection
// closes.
type Binder struct {
	mu   sync.Mutex
	sets map[*tenantdb.Conn]*Set
}

// NewBinder returns an empty Binder.
func NewBinder() *Binder {
	return &Binder{sets: make(map[*tenantdb.Conn]*Set)}
}

// Bind returns the handle set for conn, creating it on first use.
func (b *Binder) Bind(conn *tenantdb.Conn) (*Set, error) {
	if conn == nil {
		return nil, &BindingError{Err: ErrNilConnection}
	}

	b.mu.Lock()
	if set, ok := b.sets[conn]; ok {
		b.mu.Unlock()
		if !conn.IsOpen() {
			return nil, &BindingError{TenantID: conn.TenantID(), Err: tenantdb.ErrConnectionClosed}
		}
		return set, nil
	}

	db, err := conn.Database()
	if err != nil {
		b.mu.Unlock()
		return nil, &BindingError{TenantID: conn.TenantID(), Err: err}
	}

	set := newSet(db)
	b.sets[conn] = set
	b.mu.Unlock()

	// Runs immediately if conn closed in the meantime.
	conn.OnClose(func() { b.forget(conn) })
	return set, nil
}

// Len returns the number of connections with a bound set.
func (b *Binder) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sets)
}

func (b *Binder) forget(conn *tenantdb.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.sets, conn)
}
