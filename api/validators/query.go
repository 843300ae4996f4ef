package validators

import (
	"fmt"
	"net/http"
	"strings"

	pkgerrors "github.com/fitpulse/checkout-gateway/pkg/errors"
)

// RequireQuery returns a non-empty query parameter or a validation error.
func RequireQuery(r *http.Request, name string) (string, error) {
	value := strings.TrimSpace(r.URL.Query().Get(name))
	if value == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("query parameter %q is required", name))
	}
	return value, nil
}
