package validators

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/partsdeskhq/partsdesk-backend/api/middleware"
	pkgerrors "github.com/partsdeskhq/partsdesk-backend/pkg/errors"
	"github.com/partsdeskhq/partsdesk-backend/pkg/window"
)

func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").WithDetails(map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}

// ParseWindowRequest reads the date-range query surface shared by list and
// report endpoints: explicit start/end timestamps or a month/year pair.
// Date parsing and precedence live in window.Resolve.
func ParseWindowRequest(r *http.Request) (window.Request, error) {
	query := r.URL.Query()
	req := window.Request{
		Start: strings.TrimSpace(query.Get("start")),
		End:   strings.TrimSpace(query.Get("end")),
		Month: strings.TrimSpace(query.Get("month")),
	}

	year, err := ParseQueryInt(r, "year", 0, 2000, 2100)
	if err != nil {
		return window.Request{}, err
	}
	req.Year = year

	return req, nil
}

// ActorFirstName reads the legacy ?firstName= attribution parameter.
func ActorFirstName(r *http.Request) string {
	return strings.TrimSpace(r.URL.Query().Get("firstName"))
}

// RequestActor resolves the acting user for a mutation: the token identity,
// with ?firstName= overriding the display name carried into audit fields.
func RequestActor(r *http.Request) (uuid.UUID, string) {
	userID, _ := uuid.Parse(middleware.UserIDFromContext(r.Context()))
	firstName := ActorFirstName(r)
	if firstName == "" {
		firstName = middleware.FirstNameFromContext(r.Context())
	}
	return userID, firstName
}
