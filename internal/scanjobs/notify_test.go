package scanjobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classgraph/classgraph/pkg/config"
	"github.com/classgraph/classgraph/pkg/model"
)

func TestNotifier_NotifyCompletion_Disabled_DoesNotCallServer(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	n := NewNotifier(config.NotifyConfig{URL: server.URL, Enabled: false}, nil)
	n.NotifyCompletion(context.Background(), model.NewScanResult("job-1"), nil)

	assert.False(t, called)
}

func TestNotifier_NotifyCompletion_PostsJobAndError(t *testing.T) {
	var payload completionPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewNotifier(config.NotifyConfig{URL: server.URL, Enabled: true}, nil)
	n.NotifyCompletion(context.Background(), model.NewScanResult("job-2"), errors.New("scan failed"))

	assert.Equal(t, "job-2", payload.JobUUID)
	assert.Equal(t, "scan failed", payload.Error)
}
