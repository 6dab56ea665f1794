// Package validator provides small composable validation rules.
//
// A Rule pairs a Check func with a ValidationError that carries the field
// name, a human message and a translation key. Apply evaluates rules and
// aggregates failures into ValidationErrors, which implements error:
//
//	err := validator.Apply(
//		validator.RequiredString("firstName", p.FirstName),
//		validator.Optional(p.Email, validator.ValidEmail("email", p.Email)),
//		validator.MinNum("duration", a.Duration, 0),
//	)
//	if verrs := validator.ExtractValidationErrors(err); verrs != nil {
//		// verrs.Map() groups messages by field
//	}
//
// Optional and When wrap a rule so it only applies to present values or
// under a condition. Rules hold no state and are safe for concurrent use.
package validator
