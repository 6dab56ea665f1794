package validator

import (
	"time"
	_ "time/tzdata" // zone database for minimal images
)

// RequiredTime validates that a time is set.
func RequiredTime(field string, value time.Time) Rule {
	return Rule{
		Check: func() bool {
			return !value.IsZero()
		},
		Error: ValidationError{
			Field:          field,
			Message:        "field is required",
			TranslationKey: "validation.required",
			TranslationValues: map[string]any{
				"field": field,
			},
		},
	}
}

// ValidBirthdate rejects dates in the future or more than 150 years ago.
func ValidBirthdate(field string, value time.Time) Rule {
	return Rule{
		Check: func() bool {
			now := time.Now()
			if value.After(now) {
				return false
			}
			return value.After(now.AddDate(-150, 0, 0))
		},
		Error: ValidationError{
			Field:          field,
			Message:        "birthdate must not be in the future or more than 150 years ago",
			TranslationKey: "validation.valid_birthdate",
			TranslationValues: map[string]any{
				"field": field,
			},
		},
	}
}

// ValidClockTime validates a 24-hour "HH:MM" time of day.
func ValidClockTime(field, value string) Rule {
	return Rule{
		Check: func() bool {
			if len(value) != 5 {
				return false
			}
			_, err := time.Parse("15:04", value)
			return err == nil
		},
		Error: ValidationError{
			Field:          field,
			Message:        "must be a time in HH:MM format",
			TranslationKey: "validation.clock_time",
			TranslationValues: map[string]any{
				"field": field,
			},
		},
	}
}

// ValidTimezone validates an IANA time zone name such as "Europe/Berlin".
func ValidTimezone(field, value string) Rule {
	return Rule{
		Check: func() bool {
			if value == "" || value == "Local" {
				return false
			}
			_, err := time.LoadLocation(value)
			return err == nil
		},
		Error: ValidationError{
			Field:          field,
			Message:        "must be a valid IANA time zone",
			TranslationKey: "validation.timezone",
			TranslationValues: map[string]any{
				"field": field,
			},
		},
	}
}
