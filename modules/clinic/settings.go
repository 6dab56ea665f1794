package clinic

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/clinickit/pkg/schema"
)

// getSettings returns the clinic settings. A clinic that never saved any
// gets the defaults so clients can render the settings form.
func getSettings(r *http.Request, set *schema.Set) (result, error) {
	s, err := set.Settings.Current(r.Context())
	if errors.Is(err, schema.ErrNotFound) {
		return ok(&schema.Settings{Timezone: schema.DefaultTimezone}), nil
	}
	if err != nil {
		return result{}, err
	}
	return ok(s), nil
}

func saveSettings(r *http.Request, set *schema.Set) (result, error) {
	var s schema.Settings
	if err := decodeJSON(r, &s); err != nil {
		return result{}, err
	}
	saved, err := set.Settings.Save(r.Context(), &s)
	if err != nil {
		return result{}, err
	}
	return ok(saved), nil
}
