package hub

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrInvalidRepoID = errors.New("invalid repo id")
)

// HTTPError is returned for any non-2xx response from the hub.
type HTTPError struct {
	StatusCode int
	Message    string
	RequestID  string
	Body       []byte
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("[http %d] request returned non-2xx status", e.StatusCode)
	}
	return fmt.Sprintf("[http %d] %s", e.StatusCode, e.Message)
}

// Is lets callers match on the status class with errors.Is.
func (e *HTTPError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	}
	return false
}

func (e *HTTPError) Suggestion() string {
	switch {
	case e.StatusCode == http.StatusUnauthorized, e.StatusCode == http.StatusForbidden:
		return "Check that the API token is valid and has write access to the space."
	case e.StatusCode == http.StatusNotFound:
		return "Check the space id; it must look like namespace/name."
	case e.StatusCode >= 500:
		return "The hub returned a server error, try again later."
	}
	return ""
}

// ErrorSuggestion is implemented by errors carrying a next step for the user.
type ErrorSuggestion interface {
	error
	Suggestion() string
}

func GetErrorSuggestion(err error) string {
	var serr ErrorSuggestion
	if errors.As(err, &serr) {
		return serr.Suggestion()
	}
	return ""
}

func handleAPIError(resp *http.Response) *HTTPError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	apiErr := &HTTPError{
		StatusCode: resp.StatusCode,
		RequestID:  resp.Header.Get("X-Request-Id"),
		Body:       body,
	}

	if msg := resp.Header.Get("X-Error-Message"); msg != "" {
		apiErr.Message = msg
		return apiErr
	}

	payload := struct {
		Error   string `json:"error"`
		Message string `json:"message,omitempty"`
	}{}
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case payload.Message != "":
			apiErr.Message = payload.Message
		case payload.Error != "":
			apiErr.Message = payload.Error
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.ToLower(http.StatusText(resp.StatusCode))
	}
	return apiErr
}
