package schema

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/dmitrymomot/clinickit/pkg/validator"
)

// Collection names inside every tenant database.
const (
	PatientsCollection     = "patients"
	AppointmentsCollection = "appointments"
	StaffCollection        = "staff"
	SettingsCollectionName = "settings"
)

// Appointment statuses.
const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusNoShow    = "no-show"
)

// Staff roles.
const (
	RoleAdmin        = "admin"
	RoleDoctor       = "doctor"
	RoleTherapist    = "therapist"
	RoleNurse        = "nurse"
	RoleReceptionist = "receptionist"
)

var (
	appointmentStatuses = []string{StatusScheduled, StatusCompleted, StatusCancelled, StatusNoShow}
	staffRoles          = []string{RoleAdmin, RoleDoctor, RoleTherapist, RoleNurse, RoleReceptionist}
)

const maxTextLength = 10000

// Patient is a clinic's patient record.
type Patient struct {
	ID             bson.ObjectID `bson:"_id,omitempty" json:"id"`
	FirstName      string        `bson:"firstName" json:"firstName"`
	LastName       string        `bson:"lastName" json:"lastName"`
	Email          string        `bson:"email,omitempty" json:"email,omitempty"`
	Phone          string        `bson:"phone,omitempty" json:"phone,omitempty"`
	DateOfBirth    *time.Time    `bson:"dateOfBirth,omitempty" json:"dateOfBirth,omitempty"`
	Address        string        `bson:"address,omitempty" json:"address,omitempty"`
	MedicalHistory string        `bson:"medicalHistory,omitempty" json:"medicalHistory,omitempty"`
	IsActive       *bool         `bson:"isActive,omitempty" json:"isActive,omitempty"`
	CreatedAt      time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time     `bson:"updatedAt" json:"updatedAt"`
}

func (p *Patient) Validate() error {
	rules := []validator.Rule{
		validator.RequiredString("firstName", p.FirstName),
		validator.RequiredString("lastName", p.LastName),
		validator.Optional(p.Email, validator.ValidEmail("email", p.Email)),
		validator.Optional(p.Phone, validator.ValidPhone("phone", p.Phone)),
		validator.MaxLenString("medicalHistory", p.MedicalHistory, maxTextLength),
	}
	if p.DateOfBirth != nil {
		rules = append(rules, validator.ValidBirthdate("dateOfBirth", *p.DateOfBirth))
	}
	return validator.Apply(rules...)
}

func (p *Patient) normalize(created bool) {
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	if created && p.IsActive == nil {
		p.IsActive = boolPtr(true)
	}
}

func (p *Patient) id() bson.ObjectID      { return p.ID }
func (p *Patient) setID(id bson.ObjectID) { p.ID = id }
func (p *Patient) stamp(now time.Time, created bool) {
	if created {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
}
func (*Patient) activeFilter() bson.E  { return bson.E{Key: "isActive", Value: bson.D{{Key: "$ne", Value: false}}} }
func (*Patient) archiveUpdate() bson.D { return bson.D{{Key: "isActive", Value: false}} }

// Appointment is a scheduled visit of a patient.
type Appointment struct {
	ID              bson.ObjectID `bson:"_id,omitempty" json:"id"`
	PatientID       bson.ObjectID `bson:"patientId" json:"patientId"`
	AppointmentDate time.Time     `bson:"appointmentDate" json:"appointmentDate"`
	AppointmentType string        `bson:"appointmentType,omitempty" json:"appointmentType,omitempty"`
	Duration        int           `bson:"duration,omitempty" json:"duration,omitempty"` // minutes
	Status          string        `bson:"status,omitempty" json:"status,omitempty"`
	Notes           string        `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt       time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time     `bson:"updatedAt" json:"updatedAt"`
}

func (a *Appointment) Validate() error {
	return validator.Apply(
		validator.RequiredComparable("patientId", a.PatientID),
		validator.RequiredTime("appointmentDate", a.AppointmentDate),
		validator.MinNum("duration", a.Duration, 0),
		validator.MaxNum("duration", a.Duration, 24*60),
		validator.Optional(a.Status, validator.InListString("status", a.Status, appointmentStatuses)),
		validator.MaxLenString("notes", a.Notes, maxTextLength),
	)
}

func (a *Appointment) normalize(created bool) {
	a.Status = strings.ToLower(strings.TrimSpace(a.Status))
	if created && a.Status == "" {
		a.Status = StatusScheduled
	}
}

func (a *Appointment) id() bson.ObjectID      { return a.ID }
func (a *Appointment) setID(id bson.ObjectID) { a.ID = id }
func (a *Appointment) stamp(now time.Time, created bool) {
	if created {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
}
func (*Appointment) activeFilter() bson.E {
	return bson.E{Key: "status", Value: bson.D{{Key: "$ne", Value: StatusCancelled}}}
}
func (*Appointment) archiveUpdate() bson.D { return bson.D{{Key: "status", Value: StatusCancelled}} }

// Staff is a clinic employee. Email is unique within a tenant.
type Staff struct {
	ID        bson.ObjectID `bson:"_id,omitempty" json:"id"`
	FirstName string        `bson:"firstName" json:"firstName"`
	LastName  string        `bson:"lastName" json:"lastName"`
	Email     string        `bson:"email" json:"email"`
	Role      string        `bson:"role,omitempty" json:"role,omitempty"`
	Phone     string        `bson:"phone,omitempty" json:"phone,omitempty"`
	IsActive  *bool         `bson:"isActive,omitempty" json:"isActive,omitempty"`
	CreatedAt time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time     `bson:"updatedAt" json:"updatedAt"`
}

func (s *Staff) Validate() error {
	return validator.Apply(
		validator.RequiredString("firstName", s.FirstName),
		validator.RequiredString("lastName", s.LastName),
		validator.ValidEmail("email", s.Email),
		validator.Optional(s.Role, validator.InListString("role", s.Role, staffRoles)),
		validator.Optional(s.Phone, validator.ValidPhone("phone", s.Phone)),
	)
}

func (s *Staff) normalize(created bool) {
	s.FirstName = strings.TrimSpace(s.FirstName)
	s.LastName = strings.TrimSpace(s.LastName)
	s.Email = strings.ToLower(strings.TrimSpace(s.Email))
	s.Role = strings.ToLower(strings.TrimSpace(s.Role))
	if created && s.Role == "" {
		s.Role = RoleReceptionist
	}
	if created && s.IsActive == nil {
		s.IsActive = boolPtr(true)
	}
}

func (s *Staff) id() bson.ObjectID      { return s.ID }
func (s *Staff) setID(id bson.ObjectID) { s.ID = id }
func (s *Staff) stamp(now time.Time, created bool) {
	if created {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
}
func (*Staff) activeFilter() bson.E  { return bson.E{Key: "isActive", Value: bson.D{{Key: "$ne", Value: false}}} }
func (*Staff) archiveUpdate() bson.D { return bson.D{{Key: "isActive", Value: false}} }

// Hours is the opening window of one weekday, as "HH:MM" strings.
// An empty window means the clinic is closed that day.
type Hours struct {
	Open  string `bson:"open,omitempty" json:"open,omitempty"`
	Close string `bson:"close,omitempty" json:"close,omitempty"`
}

// BusinessHours holds the weekly opening hours.
type BusinessHours struct {
	Monday    Hours `bson:"monday" json:"monday"`
	Tuesday   Hours `bson:"tuesday" json:"tuesday"`
	Wednesday Hours `bson:"wednesday" json:"wednesday"`
	Thursday  Hours `bson:"thursday" json:"thursday"`
	Friday    Hours `bson:"friday" json:"friday"`
	Saturday  Hours `bson:"saturday" json:"saturday"`
	Sunday    Hours `bson:"sunday" json:"sunday"`
}

type weekday struct {
	name  string
	hours Hours
}

func (b BusinessHours) days() []weekday {
	return []weekday{
		{"monday", b.Monday},
		{"tuesday", b.Tuesday},
		{"wednesday", b.Wednesday},
		{"thursday", b.Thursday},
		{"friday", b.Friday},
		{"saturday", b.Saturday},
		{"sunday", b.Sunday},
	}
}

// DefaultTimezone is used when settings do not name one.
const DefaultTimezone = "UTC"

// Settings is the single clinic-wide settings document of a tenant.
type Settings struct {
	ID            bson.ObjectID `bson:"_id,omitempty" json:"id"`
	ClinicName    string        `bson:"clinicName" json:"clinicName"`
	ClinicAddress string        `bson:"clinicAddress,omitempty" json:"clinicAddress,omitempty"`
	ClinicPhone   string        `bson:"clinicPhone,omitempty" json:"clinicPhone,omitempty"`
	ClinicEmail   string        `bson:"clinicEmail,omitempty" json:"clinicEmail,omitempty"`
	BusinessHours BusinessHours `bson:"businessHours" json:"businessHours"`
	Timezone      string        `bson:"timezone" json:"timezone"`
	UpdatedAt     time.Time     `bson:"updatedAt" json:"updatedAt"`
}

func (s *Settings) Validate() error {
	rules := []validator.Rule{
		validator.RequiredString("clinicName", s.ClinicName),
		validator.Optional(s.ClinicEmail, validator.ValidEmail("clinicEmail", s.ClinicEmail)),
		validator.Optional(s.ClinicPhone, validator.ValidPhone("clinicPhone", s.ClinicPhone)),
		validator.ValidTimezone("timezone", s.Timezone),
	}
	for _, day := range s.BusinessHours.days() {
		field, h := "businessHours."+day.name, day.hours
		rules = append(rules,
			validator.Optional(h.Open, validator.ValidClockTime(field+".open", h.Open)),
			validator.Optional(h.Close, validator.ValidClockTime(field+".close", h.Close)),
			validator.When(validClock(h.Open) && validClock(h.Close), validator.Rule{
				Check: func() bool { return h.Open < h.Close },
				Error: validator.ValidationError{
					Field:          field,
					Message:        "closing time must be after opening time",
					TranslationKey: "validation.hours_order",
				},
			}),
		)
	}
	return validator.Apply(rules...)
}

func (s *Settings) normalize(bool) {
	s.ClinicName = strings.TrimSpace(s.ClinicName)
	s.ClinicEmail = strings.ToLower(strings.TrimSpace(s.ClinicEmail))
	if s.Timezone == "" {
		s.Timezone = DefaultTimezone
	}
}

func (s *Settings) id() bson.ObjectID           { return s.ID }
func (s *Settings) setID(id bson.ObjectID)      { s.ID = id }
func (s *Settings) stamp(now time.Time, _ bool) { s.UpdatedAt = now }
func (*Settings) activeFilter() bson.E          { return bson.E{} }
func (*Settings) archiveUpdate() bson.D         { return nil }

func validClock(v string) bool {
	return v != "" && validator.ValidClockTime("", v).Check()
}

func boolPtr(v bool) *bool { return &v }
