package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

const dateLayout = "2006-01-02"

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func dateQueryParam(r *http.Request, name string) (time.Time, bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, false, nil
	}

	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%s must be a date in the form %s", name, dateLayout)
	}

	return t, true, nil
}

// dateWindow reads the startDate/endDate query parameters. Missing bounds
// default to a window of defaultDays starting today.
func dateWindow(r *http.Request, defaultDays int) (time.Time, time.Time, error) {
	startDate, ok, err := dateQueryParam(r, "startDate")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !ok {
		startDate = truncateToDate(time.Now())
	}

	endDate, ok, err := dateQueryParam(r, "endDate")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !ok {
		endDate = startDate.AddDate(0, 0, defaultDays)
	}

	if endDate.Before(startDate) {
		return time.Time{}, time.Time{}, fmt.Errorf("endDate must not be before startDate")
	}

	return startDate, endDate, nil
}

func intQueryParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}

	return v
}

func int64QueryParam(r *http.Request, name string) (int64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, false
	}

	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}

	return v, true
}
