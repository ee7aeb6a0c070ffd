package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalTranscriptionProviderIsDeterministic(t *testing.T) {
	p := LocalTranscriptionProvider{}

	first, err := p.Transcribe(context.Background(), "call-1", "en-US")
	require.NoError(t, err)
	second, err := p.Transcribe(context.Background(), "call-1", "en-US")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Contains(t, first, "call-1")
}

func TestHTTPTranscriptionProvider(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`{"transcript": "hello from the engine"}`))
	}))
	defer server.Close()

	p := &HTTPTranscriptionProvider{URL: server.URL, Client: server.Client()}
	transcript, err := p.Transcribe(context.Background(), "call-1", "en-US")
	require.NoError(t, err)
	assert.Equal(t, "hello from the engine", transcript)
}

func TestHTTPTranscriptionProviderErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	p := &HTTPTranscriptionProvider{URL: server.URL, Client: server.Client()}
	_, err := p.Transcribe(context.Background(), "call-1", "en-US")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}
