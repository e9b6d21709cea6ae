package antispam

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifyChallengeToken_EmptyTokenSkipsNetwork(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	v := NewTurnstileVerifier("secret", server.URL, nil)

	assert.False(t, v.VerifyChallengeToken(context.Background(), "", "1.1.1.1"))
	assert.False(t, v.VerifyChallengeToken(context.Background(), "   ", "1.1.1.1"))
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestVerifyChallengeToken_EmptySecretFailsWithoutNetwork(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	v := NewTurnstileVerifier("", server.URL, nil)

	assert.False(t, v.VerifyChallengeToken(context.Background(), "tok", "1.1.1.1"))
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestVerifyChallengeToken_SendsFormAndReadsSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "secret", r.PostForm.Get("secret"))
		assert.Equal(t, "tok", r.PostForm.Get("response"))
		assert.Equal(t, "1.1.1.1", r.PostForm.Get("remoteip"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	v := NewTurnstileVerifier("secret", server.URL, nil)
	assert.True(t, v.VerifyChallengeToken(context.Background(), "tok", "1.1.1.1"))
}

func TestVerifyChallengeToken_FailsClosed(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"rejected", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"success":false,"error-codes":["invalid-input-response"]}`))
		}},
		{"non-2xx", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"success":true}`))
		}},
		{"malformed json", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		}},
		{"missing field", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			v := NewTurnstileVerifier("secret", server.URL, nil)
			assert.False(t, v.VerifyChallengeToken(context.Background(), "tok", "1.1.1.1"))
		})
	}
}

func TestVerifyChallengeToken_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	v := NewTurnstileVerifier("secret", url, nil)
	assert.False(t, v.VerifyChallengeToken(context.Background(), "tok", ""))
}
