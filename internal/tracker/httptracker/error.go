package httptracker

import (
	"fmt"
	"net/http"
)

// StatusError is returned from announces when the tracker responds with a status other than 200 OK.
type StatusError struct {
	Code   int
	Header http.Header
	Body   string
}

func (e *StatusError) Error() string {
	const maxBody = 64
	body := e.Body
	if len(body) > maxBody {
		body = body[:maxBody] + "..."
	}
	if body == "" {
		return fmt.Sprintf("http status %d", e.Code)
	}
	return fmt.Sprintf("http status %d: %q", e.Code, body)
}
