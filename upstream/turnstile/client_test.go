package turnstile

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerify_SendsFormAndParsesSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "s3cret", r.PostForm.Get("secret"))
		assert.Equal(t, "tok", r.PostForm.Get("response"))
		assert.Equal(t, "203.0.113.7", r.PostForm.Get("remoteip"))
		_, _ = io.WriteString(w, `{"success":true,"hostname":"example.com"}`)
	}))
	defer srv.Close()

	c := New("s3cret", WithVerifyURL(srv.URL))
	res, err := c.Verify(context.Background(), "tok", "203.0.113.7")

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "example.com", res.Hostname)
}

func TestVerify_OmitsRemoteIPWhenUnknown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		_, present := r.PostForm["remoteip"]
		assert.False(t, present)
		_, _ = io.WriteString(w, `{"success":true}`)
	}))
	defer srv.Close()

	c := New("s3cret", WithVerifyURL(srv.URL))
	for _, ip := range []string{"", "unknown"} {
		_, err := c.Verify(context.Background(), "tok", ip)
		require.NoError(t, err)
	}
}

func TestVerify_FailureBodyIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":false,"error-codes":["invalid-input-response"]}`)
	}))
	defer srv.Close()

	res, err := New("s", WithVerifyURL(srv.URL)).Verify(context.Background(), "tok", "")

	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, []string{"invalid-input-response"}, res.ErrorCodes)
}

func TestVerify_Non2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New("s", WithVerifyURL(srv.URL)).Verify(context.Background(), "tok", "")

	assert.True(t, errors.Is(err, ErrUnexpectedStatus))
}

func TestVerify_GarbageBodyIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html>`)
	}))
	defer srv.Close()

	_, err := New("s", WithVerifyURL(srv.URL)).Verify(context.Background(), "tok", "")

	assert.Error(t, err)
}
