package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
)

// claimsFrom writes the error response itself and returns false when the
// request carries no usable claims.
func claimsFrom(w http.ResponseWriter, r *http.Request) (jwt.Claims, bool) {
	claims, err := jwt.ClaimsFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return jwt.Claims{}, false
	}
	return claims, true
}

// selfOrManager allows employees to act on their own records only.
func selfOrManager(w http.ResponseWriter, claims jwt.Claims, employeeID string) bool {
	if claims.IsManager() || (claims.EmployeeID != "" && claims.EmployeeID == employeeID) {
		return true
	}
	response.HandleError(w, response.ErrManagerAccessRequired)
	return false
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}, op string) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		slog.Error(op+" decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return false
	}
	return true
}

// periodQuery reads month (number or name) and year query parameters.
func periodQuery(r *http.Request) (time.Month, int, error) {
	q := r.URL.Query()

	month, err := validator.ParseMonth(q.Get("month"))
	if err != nil {
		return 0, 0, validator.Single("month", "must be between 1 and 12 or a month name")
	}
	year, err := strconv.Atoi(q.Get("year"))
	if err != nil {
		return 0, 0, validator.Single("year", "must be a number")
	}
	return month, year, nil
}

// yearQuery defaults to the current year.
func yearQuery(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("year")
	if raw == "" {
		return time.Now().Year(), nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil {
		return 0, validator.Single("year", "must be a number")
	}
	return year, nil
}
