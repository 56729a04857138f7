package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetch_URL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Write([]byte(`{"title":"t"}`))
	}))
	defer srv.Close()

	doc, err := New(Config{}, nil).Fetch(context.Background(), srv.URL+"/uploads/cave.yaml?sig=abc")

	require.NoError(t, err)
	assert.Equal(t, "cave.yaml", doc.Name)
	assert.Equal(t, `{"title":"t"}`, string(doc.Data))
}

func TestFetch_URLErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		cfg     Config
		wantErr error
	}{
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.NotFound(w, r)
			},
			wantErr: ErrStatus,
		},
		{
			name: "declared length over limit",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Length", "64")
				w.Write([]byte(strings.Repeat("x", 64)))
			},
			cfg:     Config{MaxBytes: 16},
			wantErr: ErrTooLarge,
		},
		{
			name: "streamed body over limit",
			handler: func(w http.ResponseWriter, r *http.Request) {
				for i := 0; i < 4; i++ {
					w.Write([]byte(strings.Repeat("x", 8)))
					w.(http.Flusher).Flush()
				}
			},
			cfg:     Config{MaxBytes: 16},
			wantErr: ErrTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := New(tt.cfg, nil).Fetch(context.Background(), srv.URL+"/story.json")

			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFetch_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := New(Config{Timeout: 50 * time.Millisecond}, nil).Fetch(context.Background(), srv.URL)

	assert.Error(t, err)
}

func TestFetch_LocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cave.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"title":"t"}`), 0o644))

	doc, err := New(Config{}, nil).Fetch(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, "cave.json", doc.Name)
	assert.Equal(t, `{"title":"t"}`, string(doc.Data))
}

func TestFetch_LocalFileErrors(t *testing.T) {
	dir := t.TempDir()
	big := filepath.Join(dir, "big.json")
	require.NoError(t, os.WriteFile(big, []byte(strings.Repeat("x", 32)), 0o644))

	_, err := New(Config{MaxBytes: 16}, nil).Fetch(context.Background(), big)
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = New(Config{}, nil).Fetch(context.Background(), filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestIsURL(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{"https://cdn.example.com/story.json", true},
		{"http://localhost:8080/s", true},
		{"stories/cave.json", false},
		{"/abs/cave.json", false},
		{"ftp://example.com/story.json", false},
		{"https://", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsURL(tt.src), tt.src)
	}
}
