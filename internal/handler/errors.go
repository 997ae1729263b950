package handler

import (
	"time"

	"cryptodash/internal/domain"
)

// ErrorFormatter builds error bodies. Raw error text is only exposed when
// ExposeDetails is set, which the server does for development builds.
type ErrorFormatter struct {
	ExposeDetails bool
}

func (f ErrorFormatter) Format(message string, err error, now time.Time) domain.ErrorResponse {
	resp := domain.ErrorResponse{
		Error:     message,
		Timestamp: now.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}
	if f.ExposeDetails && err != nil {
		resp.Details = err.Error()
	}
	return resp
}
