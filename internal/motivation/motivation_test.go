package motivation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPersonalizedMotivation_NoKeyReturnsEmpty(t *testing.T) {
	c := NewClient("")
	assert.Empty(t, c.PersonalizedMotivation(context.Background(), "قراءة", 3))
}

func TestPersonalizedMotivation_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "generateContent")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"  استمر، أنت في اليوم الثالث!  "}]}}]}`))
	}))
	defer srv.Close()

	c := NewClient("test-key").WithBaseURL(srv.URL)
	got := c.PersonalizedMotivation(context.Background(), "قراءة", 3)
	assert.Equal(t, "استمر، أنت في اليوم الثالث!", got)
}

func TestPersonalizedMotivation_ServerErrorReturnsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient("test-key").WithBaseURL(srv.URL)
	assert.Empty(t, c.PersonalizedMotivation(context.Background(), "قراءة", 3))
}

func TestPersonalizedMotivation_MalformedResponseReturnsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	c := NewClient("test-key").WithBaseURL(srv.URL)
	assert.Empty(t, c.PersonalizedMotivation(context.Background(), "قراءة", 3))
}

func TestPersonalizedMotivation_UnreachableReturnsEmpty(t *testing.T) {
	c := NewClient("test-key").WithBaseURL("http://127.0.0.1:1")
	assert.Empty(t, c.PersonalizedMotivation(context.Background(), "قراءة", 3))
}
