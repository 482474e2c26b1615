package resolver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveReturnsSignedURL(t *testing.T) {
	expires := time.Now().Add(10 * time.Minute).UTC().Truncate(time.Second)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/playback-url", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.Equal(t, "1", r.URL.Query().Get("course_id"))
		require.Equal(t, "2", r.URL.Query().Get("module_id"))
		require.Equal(t, "3", r.URL.Query().Get("content_id"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"url":        "https://cdn.example.com/v.m3u8?sig=abc",
			"expires_at": expires,
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", time.Second)
	src, err := client.Resolve(context.Background(), 1, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/v.m3u8?sig=abc", src.URL)
	assert.True(t, src.ExpiresAt.Equal(expires))
}

func TestResolveNotApplicableSkipsRequest(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", time.Second)
	for _, ids := range [][3]uint{{0, 2, 3}, {1, 0, 3}, {1, 2, 0}} {
		_, err := client.Resolve(context.Background(), ids[0], ids[1], ids[2])
		assert.ErrorIs(t, err, ErrNotApplicable)
	}
	assert.Equal(t, int32(0), requests.Load(), "no request may be issued for non-playable content")
}

func TestResolveUpstreamErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", time.Second)
	_, err := client.Resolve(context.Background(), 1, 2, 3)
	require.Error(t, err)
	var re *ResolutionError
	assert.ErrorAs(t, err, &re)
}

func TestResolveIncompleteBodyRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Missing expires_at
		json.NewEncoder(w).Encode(map[string]interface{}{"url": "https://cdn.example.com/v"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", time.Second)
	_, err := client.Resolve(context.Background(), 1, 2, 3)
	var re *ResolutionError
	assert.ErrorAs(t, err, &re)
}

func TestResolveHonoursCancellation(t *testing.T) {
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", 5*time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := client.Resolve(ctx, 1, 2, 3)
		done <- err
	}()

	<-started
	cancel()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("resolve did not abort on cancellation")
	}
}
