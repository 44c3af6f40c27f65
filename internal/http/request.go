package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gastos/internal/core"
	"gastos/internal/services"
)

const ownerHeader = "X-Owner-Phone"

// owner extracts the resolved family owner from the request. Token
// verification happens upstream; by the time a request reaches this server
// the header carries a verified main phone.
func owner(r *http.Request) (string, error) {
	phone := strings.TrimSpace(r.Header.Get(ownerHeader))
	if phone == "" {
		return "", fmt.Errorf("missing %s header: %w", ownerHeader, core.ErrValidation)
	}
	return phone, nil
}

// parseDate accepts RFC3339 timestamps and plain YYYY-MM-DD dates.
func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", value, core.ErrValidation)
	}
	return t, nil
}

// filterFromQuery parses the shared optional query parameters.
func filterFromQuery(r *http.Request) (services.Filter, error) {
	q := r.URL.Query()
	var f services.Filter

	if v := strings.TrimSpace(q.Get("start")); v != "" {
		t, err := parseDate(v)
		if err != nil {
			return f, err
		}
		f.Start = t
	}
	if v := strings.TrimSpace(q.Get("end")); v != "" {
		t, err := parseDate(v)
		if err != nil {
			return f, err
		}
		f.End = t
	}
	f.Category = strings.TrimSpace(q.Get("category"))
	f.Search = strings.TrimSpace(q.Get("search"))
	f.Status = strings.TrimSpace(q.Get("status"))
	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return f, fmt.Errorf("invalid limit %q: %w", v, core.ErrValidation)
		}
		f.Limit = n
	}
	return f, nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", r.PathValue("id"), core.ErrValidation)
	}
	return id, nil
}
