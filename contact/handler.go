package contact

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"contact-relay/middleware/ratelimit"
	"contact-relay/middleware/ratelimit/domain"
	"contact-relay/upstream/telegram"
	"contact-relay/upstream/turnstile"

	"github.com/rs/zerolog"
)

// Verifier confere o token anti-bot do formulário.
type Verifier interface {
	Verify(ctx context.Context, token, remoteIP string) (turnstile.Result, error)
}

// Notifier entrega a mensagem no chat de destino.
type Notifier interface {
	SendMessage(ctx context.Context, chatID, text string) error
}

// RateDecider decide se o IP ainda tem cota na janela corrente.
// application.Service implementa.
type RateDecider interface {
	Decide(ctx context.Context, key domain.Key) domain.Decision
}

// Secrets são as três credenciais exigidas por request. Ausentes não impedem o
// boot: a request responde 500 "Missing worker secrets".
type Secrets struct {
	TurnstileSecret  string
	TelegramBotToken string
	TelegramChatID   string
}

func (s Secrets) complete() bool {
	return s.TurnstileSecret != "" && s.TelegramBotToken != "" && s.TelegramChatID != ""
}

type Options struct {
	Origins  Origins
	Secrets  Secrets
	Limiter  RateDecider
	ClientIP ratelimit.KeyFunc
	Verifier Verifier
	Notifier Notifier
	Stats    domain.StatsStore

	MinDwellMs    float64
	MaxBodyBytes  int64
	DefaultSource string
	Now           func() time.Time
}

// Handler é o endpoint de contato: valida, limita, verifica e encaminha.
// Toda resposta, inclusive de erro, passa por respond e leva os headers CORS.
type Handler struct {
	opts  Options
	steps []step
}

type submissionState struct {
	r   *http.Request
	ip  string
	raw map[string]any
	sub Submission
}

// step devolve nil para seguir ou um *Error terminal.
type step func(ctx context.Context, st *submissionState) *Error

func NewHandler(opts Options) *Handler {
	if opts.ClientIP == nil {
		opts.ClientIP = ratelimit.ClientIPKeyFunc("", false)
	}
	if opts.MinDwellMs <= 0 {
		opts.MinDwellMs = 3000
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 64 << 10
	}
	if opts.DefaultSource == "" {
		opts.DefaultSource = DefaultSource
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	h := &Handler{opts: opts}
	// A ordem é observável pelo cliente (qual mensagem de erro ele recebe).
	h.steps = []step{
		h.checkMethod,
		h.checkOrigin,
		h.checkSecrets,
		h.checkRate,
		h.parseBody,
		h.shapeFields,
		h.checkHoneypot,
		h.checkDwell,
		h.checkRequired,
		h.checkToken,
		h.verifyCaptcha,
		h.forward,
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		h.opts.Origins.setHeaders(w.Header(), r.Header.Get("Origin"))
		w.WriteHeader(http.StatusOK)
		return
	}

	ctx := r.Context()
	st := &submissionState{r: r}
	for _, run := range h.steps {
		if e := run(ctx, st); e != nil {
			h.fail(w, r, e)
			return
		}
	}

	zerolog.Ctx(ctx).Info().Str("ip", st.ip).Str("source", st.sub.Source).Msg("contact message relayed")
	h.record(ctx, "sent", http.StatusOK)
	h.respond(w, r, http.StatusOK, responseBody{OK: true})
}

func (h *Handler) checkMethod(_ context.Context, st *submissionState) *Error {
	if st.r.Method != http.MethodPost {
		return ErrMethodNotAllowed
	}
	return nil
}

func (h *Handler) checkOrigin(_ context.Context, st *submissionState) *Error {
	if !h.opts.Origins.Allows(st.r.Header.Get("Origin")) {
		return ErrOriginNotAllowed
	}
	return nil
}

func (h *Handler) checkSecrets(_ context.Context, _ *submissionState) *Error {
	if !h.opts.Secrets.complete() {
		return ErrMissingSecrets
	}
	return nil
}

func (h *Handler) checkRate(ctx context.Context, st *submissionState) *Error {
	st.ip = h.opts.ClientIP(st.r)
	if h.opts.Limiter == nil {
		return nil
	}
	dec := h.opts.Limiter.Decide(ctx, domain.Key(st.ip))
	if !dec.Allowed {
		return ErrRateLimited.withRetryAfter(dec.RetryAfter)
	}
	return nil
}

func (h *Handler) parseBody(_ context.Context, st *submissionState) *Error {
	body, err := io.ReadAll(io.LimitReader(st.r.Body, h.opts.MaxBodyBytes+1))
	if err != nil {
		return ErrInvalidJSON.withCause(err)
	}
	if int64(len(body)) > h.opts.MaxBodyBytes {
		return ErrInvalidJSON.withCause(errors.New("body exceeds size limit"))
	}
	raw, err := decodePayload(body)
	if err != nil {
		return ErrInvalidJSON.withCause(err)
	}
	st.raw = raw
	return nil
}

func (h *Handler) shapeFields(_ context.Context, st *submissionState) *Error {
	st.sub = shapeSubmission(st.raw, h.opts.DefaultSource)
	return nil
}

// Campo invisível para humanos: só bot preenche.
func (h *Handler) checkHoneypot(_ context.Context, st *submissionState) *Error {
	if st.sub.Website != "" {
		return ErrSpam
	}
	return nil
}

func (h *Handler) checkDwell(_ context.Context, st *submissionState) *Error {
	d := st.sub.DwellMs
	if math.IsNaN(d) || math.IsInf(d, 0) || d < h.opts.MinDwellMs {
		return ErrTooFast
	}
	return nil
}

func (h *Handler) checkRequired(_ context.Context, st *submissionState) *Error {
	if st.sub.Name == "" || st.sub.Email == "" || st.sub.Message == "" {
		return ErrMissingFields
	}
	return nil
}

func (h *Handler) checkToken(_ context.Context, st *submissionState) *Error {
	if st.sub.TurnstileToken == "" {
		return ErrCaptchaMissing
	}
	return nil
}

func (h *Handler) verifyCaptcha(ctx context.Context, st *submissionState) *Error {
	if h.opts.Verifier == nil {
		return ErrCaptchaFailed.withCause(errors.New("no verifier configured"))
	}
	res, err := h.opts.Verifier.Verify(ctx, st.sub.TurnstileToken, st.ip)
	if err != nil {
		return ErrCaptchaFailed.withCause(err)
	}
	if !res.Success {
		return ErrCaptchaFailed.withCause(errors.New("siteverify rejected token: " + strconv.Quote(strings.Join(res.ErrorCodes, ","))))
	}
	return nil
}

func (h *Handler) forward(ctx context.Context, st *submissionState) *Error {
	if h.opts.Notifier == nil {
		return ErrUpstream.withDetails("no notifier configured")
	}
	err := h.opts.Notifier.SendMessage(ctx, h.opts.Secrets.TelegramChatID, notificationText(st.sub))
	if err == nil {
		return nil
	}
	var apiErr *telegram.APIError
	if errors.As(err, &apiErr) {
		return ErrUpstream.withDetails(apiErr.Body).withCause(err)
	}
	return ErrUpstream.withDetails(err.Error()).withCause(err)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, e *Error) {
	ctx := r.Context()
	l := zerolog.Ctx(ctx)
	switch {
	case e.Status >= 500:
		l.Error().Err(e.Err).Str("outcome", e.Outcome).Int("status", e.Status).Msg(e.Message)
	case e.Err != nil:
		l.Warn().Err(e.Err).Str("outcome", e.Outcome).Int("status", e.Status).Msg(e.Message)
	default:
		l.Debug().Str("outcome", e.Outcome).Int("status", e.Status).Msg(e.Message)
	}

	if e.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(e.RetryAfter.Seconds()))))
	}
	h.record(ctx, e.Outcome, e.Status)
	h.respond(w, r, e.Status, responseBody{OK: false, Error: e.Message, Details: e.Details})
}

// Reject adapta o formato de resposta do endpoint para os middlewares de borda
// (guard global, concorrência, panic), mantendo corpo JSON e CORS.
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request, status int, retryAfter time.Duration) {
	var e *Error
	switch status {
	case http.StatusTooManyRequests:
		e = ErrRateLimited
	case http.StatusServiceUnavailable:
		e = ErrServerBusy
	default:
		e = newError(status, ErrInternal.Outcome, ErrInternal.Message)
	}
	h.fail(w, r, e.withRetryAfter(retryAfter))
}

func (h *Handler) record(ctx context.Context, outcome string, status int) {
	if h.opts.Stats == nil {
		return
	}
	err := h.opts.Stats.Record(ctx, domain.StatsEvent{Outcome: outcome, Status: status, At: h.opts.Now()})
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("stats record failed")
	}
}

type responseBody struct {
	OK      bool    `json:"ok"`
	Error   string  `json:"error,omitempty"`
	Details *string `json:"details,omitempty"`
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, status int, body responseBody) {
	h.opts.Origins.setHeaders(w.Header(), r.Header.Get("Origin"))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
