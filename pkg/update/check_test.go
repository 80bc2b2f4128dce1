package update

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckLatest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/CompassSecurity/patternsync/releases/latest", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"tag_name": "v1.2.0"}`))
	}))
	defer server.Close()

	result := checkLatestWithBase(server.URL, "v1.0.0", "CompassSecurity/patternsync")
	require.NotNil(t, result)
	assert.Equal(t, "v1.2.0", result.Latest)
	assert.True(t, result.NeedsUpdate())

	current := checkLatestWithBase(server.URL, "v1.2.0", "CompassSecurity/patternsync")
	require.NotNil(t, current)
	assert.False(t, current.NeedsUpdate())
}

func TestCheckLatestSkipsDevBuilds(t *testing.T) {
	assert.Nil(t, CheckLatest("dev", "CompassSecurity/patternsync"))
}

func TestCheckLatestToleratesErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	assert.Nil(t, checkLatestWithBase(server.URL, "v1.0.0", "CompassSecurity/patternsync"))
}
