package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"theneighbor/api/internal/config"
)

func TestSlug(t *testing.T) {
	cases := map[string][]string{
		"ada-lovelace":      {"Ada", "Lovelace"},
		"o-brien-mary-jo":   {"  O'Brien ", "Mary--Jo!"},
		"grace-hopper-1906": {"Grace Hopper (1906)"},
		"member":            {"!!!", "   "},
		"jos":               {"José"},
	}
	for want, parts := range cases {
		assert.Equal(t, want, Slug(parts...), "parts %q", parts)
	}

	long := Slug(strings.Repeat("ab ", 50))
	assert.LessOrEqual(t, len(long), maxSlugLen)
	assert.False(t, strings.HasSuffix(long, "-"))
}

func TestObjectPath_UniquePerCall(t *testing.T) {
	slug := Slug("Ada", "Lovelace")
	a := ObjectPath("community", slug, ".png")
	b := ObjectPath("community", slug, ".png")

	assert.NotEqual(t, a, b)
	for _, p := range []string{a, b} {
		assert.True(t, strings.HasPrefix(p, "community/ada-lovelace-"), p)
		assert.True(t, strings.HasSuffix(p, ".png"), p)
	}
}

func TestPublicURL(t *testing.T) {
	store := &ObjectStore{cfg: config.StorageConfig{Endpoint: "minio:9000", Bucket: "members"}}
	assert.Equal(t, "http://minio:9000/members/community/a.png", store.PublicURL("community/a.png"))

	store.cfg.UseSSL = true
	assert.Equal(t, "https://minio:9000/members/community/a.png", store.PublicURL("/community/a.png"))

	store.cfg.PublicBaseURL = "https://cdn.example.com/"
	got := store.PublicURL("community/a.png")
	assert.Equal(t, "https://cdn.example.com/members/community/a.png", got)
	_, err := url.ParseRequestURI(got)
	assert.NoError(t, err)
}

func TestPut(t *testing.T) {
	var (
		gotMethod      string
		gotPath        string
		gotContentType string
		gotBody        []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("ETag", `"abc123"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store, err := NewObjectStore(config.StorageConfig{
		Endpoint:  srv.URL,
		AccessKey: "key",
		SecretKey: "secret",
		Bucket:    "members",
		Region:    "us-east-1",
	})
	require.NoError(t, err)

	publicURL, err := store.Put(context.Background(), "community/ada.png", []byte("png-bytes"), "image/png")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/members/community/ada.png", gotPath)
	assert.Equal(t, "image/png", gotContentType)
	assert.Contains(t, string(gotBody), "png-bytes")
	assert.Equal(t, srv.URL+"/members/community/ada.png", publicURL)
}

func TestPut_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	store, err := NewObjectStore(config.StorageConfig{
		Endpoint:  srv.URL,
		AccessKey: "key",
		SecretKey: "secret",
		Bucket:    "members",
		Region:    "us-east-1",
	})
	require.NoError(t, err)

	publicURL, err := store.Put(context.Background(), "community/ada.png", []byte("png-bytes"), "image/png")
	assert.Error(t, err)
	assert.Empty(t, publicURL)
}
