package github

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatestStatus(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		assert.Equal(t, "/repos/octo/bulb/commits/master/statuses", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("per_page"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":42,"state":"failure","context":"ci"},{"id":41,"state":"success"}]`))
	}))
	defer srv.Close()

	c, err := NewClient("secret", srv.URL)
	require.NoError(t, err)

	st, err := c.LatestStatus(context.Background(), "octo", "bulb", "master")
	require.NoError(t, err)
	assert.Equal(t, int64(42), st.ID)
	assert.Equal(t, "failure", st.State)
	assert.Equal(t, "ci", st.Context)
	assert.Equal(t, "Bearer secret", auth)
}

func TestLatestStatusEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c, err := NewClient("", srv.URL+"/")
	require.NoError(t, err)

	_, err = c.LatestStatus(context.Background(), "octo", "bulb", "master")
	assert.True(t, errors.Is(err, ErrNoStatus))
}

func TestLatestStatusAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Not Found"}`))
	}))
	defer srv.Close()

	c, err := NewClient("", srv.URL)
	require.NoError(t, err)

	_, err = c.LatestStatus(context.Background(), "octo", "missing", "master")
	assert.Error(t, err)
}
