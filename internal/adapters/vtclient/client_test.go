package vtclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Lookup_MaliciousVerdict(t *testing.T) {
	var gotBody lookupRequest
	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Api-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"malicious": true}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, WithAPIKey("secret"))

	malicious, err := client.Lookup(context.Background(), "http://evil.test")
	require.NoError(t, err)
	assert.True(t, malicious)
	assert.Equal(t, "http://evil.test", gotBody.URL)
	assert.Equal(t, "secret", gotKey)
}

func TestClient_Lookup_CleanVerdict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"malicious": false}`))
	}))
	defer server.Close()

	malicious, err := NewClient(server.URL).Lookup(context.Background(), "http://fine.test")
	require.NoError(t, err)
	assert.False(t, malicious)
}

func TestClient_Lookup_Non2xxIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := NewClient(server.URL).Lookup(context.Background(), "http://x.test")
	assert.Error(t, err)
}

func TestClient_Lookup_MalformedPayloadIsError(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"Not JSON", "oops"},
		{"Missing verdict field", `{"status": "ok"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewClient(server.URL).Lookup(context.Background(), "http://x.test")
			assert.Error(t, err)
		})
	}
}

func TestClient_Lookup_TimeoutIsError(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer func() {
		close(release)
		server.Close()
	}()

	client := NewClient(server.URL, WithTimeout(20*time.Millisecond))

	_, err := client.Lookup(context.Background(), "http://slow.test")
	assert.Error(t, err)
}

func TestClient_Lookup_ContextCancellation(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer func() {
		close(release)
		server.Close()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(server.URL).Lookup(ctx, "http://x.test")
	assert.Error(t, err)
}
