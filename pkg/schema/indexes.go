package schema

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// StaffEmailIndex is the unique index enforcing one staff member per email.
const StaffEmailIndex = "staff_email_unique"

var indexes = map[string][]mongo.IndexModel{
	StaffCollection: {
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName(StaffEmailIndex).SetUnique(true),
		},
	},
	PatientsCollection: {
		{
			Keys:    bson.D{{Key: "lastName", Value: 1}, {Key: "firstName", Value: 1}},
			Options: options.Index().SetName("patients_name"),
		},
	},
	AppointmentsCollection: {
		{
			Keys:    bson.D{{Key: "patientId", Value: 1}, {Key: "appointmentDate", Value: -1}},
			Options: options.Index().SetName("appointments_patient_date"),
		},
		{
			Keys:    bson.D{{Key: "appointmentDate", Value: 1}},
			Options: options.Index().SetName("appointments_date"),
		},
	},
}

// EnsureIndexes creates the indexes every tenant database needs. It is
// idempotent and matches tenantdb.Initializer, so a registry can run it on
// each newly opened connection.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	for _, name := range []string{StaffCollection, PatientsCollection, AppointmentsCollection} {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, indexes[name]); err != nil {
			return fmt.Errorf("schema: create %s indexes: %w", name, err)
		}
	}
	return nil
}
