// stub-upstreams sobe versões falsas do siteverify do Turnstile e da Bot API do
// Telegram para rodar o relay de ponta a ponta localmente:
//
//	TURNSTILE_VERIFY_URL=http://localhost:8081/turnstile/v0/siteverify
//	TELEGRAM_API_BASE=http://localhost:8081
//
// Token "fail" é recusado pelo captcha; chat_id "fail" faz o sendMessage
// responder 500 "boom".
package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"contact-relay/internal/logger"
	"contact-relay/middleware/ratelimit"

	"github.com/rs/zerolog"
)

func main() {
	log, err := logger.New(os.Getenv("LOG_LEVEL"), true, os.Stderr)
	if err != nil {
		log = zerolog.New(os.Stderr)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	addr := ":8081"
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		addr = v
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           ratelimit.AccessLog(log, nil)(newMux()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("stub upstreams listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server error")
	}
}

func newMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /turnstile/v0/siteverify", siteverify)
	mux.HandleFunc("POST /{bot}/sendMessage", sendMessage)
	return mux
}

func siteverify(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res := map[string]any{"success": true, "error-codes": []string{}, "hostname": "localhost"}
	if r.PostForm.Get("secret") == "" {
		res = map[string]any{"success": false, "error-codes": []string{"missing-input-secret"}}
	} else if tok := r.PostForm.Get("response"); tok == "" || tok == "fail" {
		res = map[string]any{"success": false, "error-codes": []string{"invalid-input-response"}}
	}
	zerolog.Ctx(r.Context()).Info().
		Str("remoteip", r.PostForm.Get("remoteip")).
		Interface("success", res["success"]).
		Msg("siteverify")
	writeJSON(w, http.StatusOK, res)
}

func sendMessage(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.PathValue("bot"), "bot") {
		http.NotFound(w, r)
		return
	}
	var msg struct {
		ChatID string `json:"chat_id"`
		Text   string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "description": "Bad Request: " + err.Error()})
		return
	}
	if msg.ChatID == "fail" {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "boom")
		return
	}
	zerolog.Ctx(r.Context()).Info().Str("chat_id", msg.ChatID).Msg("sendMessage\n" + msg.Text)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "result": map[string]any{"message_id": time.Now().Unix()}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
