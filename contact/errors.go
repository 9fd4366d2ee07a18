package contact

import (
	"net/http"
	"time"
)

// Error é o desfecho terminal de um passo do pipeline.
//
// Message e Details vão para o cliente; Err é a causa interna e só vai para o log.
// Outcome é o rótulo usado nas estatísticas.
type Error struct {
	Status     int
	Message    string
	Details    *string
	Outcome    string
	RetryAfter time.Duration
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is compara pelo Outcome, para que errors.Is(err, ErrSpam) funcione com cópias.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Outcome == e.Outcome
}

// withCause devolve uma cópia com a causa interna preenchida.
func (e *Error) withCause(err error) *Error {
	c := *e
	c.Err = err
	return &c
}

func (e *Error) withRetryAfter(d time.Duration) *Error {
	c := *e
	c.RetryAfter = d
	return &c
}

func (e *Error) withDetails(details string) *Error {
	c := *e
	c.Details = &details
	return &c
}

func newError(status int, outcome, message string) *Error {
	return &Error{Status: status, Outcome: outcome, Message: message}
}

// Mensagens fixas: clientes e testes de integração dependem do texto exato.
var (
	ErrMethodNotAllowed = newError(http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
	ErrOriginNotAllowed = newError(http.StatusForbidden, "origin_blocked", "Origin not allowed")
	ErrMissingSecrets   = newError(http.StatusInternalServerError, "misconfigured", "Missing worker secrets")
	ErrRateLimited      = newError(http.StatusTooManyRequests, "rate_limited", "Too many requests. Try again later.")
	ErrInvalidJSON      = newError(http.StatusBadRequest, "invalid_json", "Invalid JSON")
	ErrSpam             = newError(http.StatusBadRequest, "spam", "Spam detected")
	ErrTooFast          = newError(http.StatusBadRequest, "too_fast", "Form submitted too quickly")
	ErrMissingFields    = newError(http.StatusBadRequest, "missing_fields", "Missing required fields")
	ErrCaptchaMissing   = newError(http.StatusBadRequest, "captcha_missing", "Captcha token missing")
	ErrCaptchaFailed    = newError(http.StatusUnauthorized, "captcha_failed", "Captcha verification failed")
	ErrUpstream         = newError(http.StatusBadGateway, "upstream_error", "Telegram API error")
	ErrServerBusy       = newError(http.StatusServiceUnavailable, "busy", "Server busy")
	ErrInternal         = newError(http.StatusInternalServerError, "internal", "Internal error")
)
