package hub

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, token string, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, token, WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return c
}

func TestNewDoesNotTouchNetwork(t *testing.T) {
	c, err := New(DefaultEndpoint+"/", "hf_token")
	require.NoError(t, err)
	assert.Equal(t, "https://huggingface.co", c.Endpoint())
	assert.Equal(t, "hf_token", c.token)
}

func TestNewRejectsBadEndpoint(t *testing.T) {
	_, err := New("ftp://huggingface.co", "")
	assert.Error(t, err)
}

func TestRestartSpace(t *testing.T) {
	var gotPath, gotQuery, gotAuth, gotMethod string
	c := newTestClient(t, "abc", func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"stage":"BUILDING","hardware":{"current":null,"requested":"cpu-basic"},"storage":null,"gcTimeout":172800,"replicas":{"requested":1}}`)
	})

	runtime, err := c.RestartSpace(context.Background(), "demo/space", true)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/api/spaces/demo/space/restart", gotPath)
	assert.Equal(t, "factory=true", gotQuery)
	assert.Equal(t, "Bearer abc", gotAuth)

	assert.Equal(t, StageBuilding, runtime.Stage)
	assert.Equal(t, "", runtime.Hardware)
	assert.Equal(t, "cpu-basic", runtime.RequestedHardware)
	require.NotNil(t, runtime.SleepTime)
	assert.Equal(t, 48*time.Hour, *runtime.SleepTime)
	assert.Contains(t, runtime.Raw, "replicas")
	assert.Equal(t,
		"SpaceRuntime(stage=BUILDING, hardware=none, requested_hardware=cpu-basic, sleep_time=48h0m0s, storage=none)",
		runtime.String())
}

func TestRestartSpaceSoft(t *testing.T) {
	var gotQuery string
	c := newTestClient(t, "abc", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, `{"stage":"RUNNING"}`)
	})

	_, err := c.RestartSpace(context.Background(), "demo", false)
	require.NoError(t, err)
	assert.Empty(t, gotQuery)
}

func TestRestartSpaceInvalidRepoIDSkipsRequest(t *testing.T) {
	called := false
	c := newTestClient(t, "abc", func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := c.RestartSpace(context.Background(), "a/b/c", true)
	assert.ErrorIs(t, err, ErrInvalidRepoID)
	assert.False(t, called)
}

func TestRestartSpaceErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		header     map[string]string
		body       string
		message    string
		is         error
		suggestion bool
	}{
		{
			name:       "unauthorized json error",
			status:     http.StatusUnauthorized,
			body:       `{"error":"Invalid username or password."}`,
			message:    "[http 401] Invalid username or password.",
			is:         ErrUnauthorized,
			suggestion: true,
		},
		{
			name:       "not found header message",
			status:     http.StatusNotFound,
			header:     map[string]string{"X-Error-Message": "Repository not found"},
			body:       `<html></html>`,
			message:    "[http 404] Repository not found",
			is:         ErrNotFound,
			suggestion: true,
		},
		{
			name:    "message field wins",
			status:  http.StatusBadRequest,
			body:    `{"error":"bad","message":"space is paused"}`,
			message: "[http 400] space is paused",
		},
		{
			name:       "plain body",
			status:     http.StatusBadGateway,
			body:       `upstream`,
			message:    "[http 502] bad gateway",
			suggestion: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, "abc", func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tt.header {
					w.Header().Set(k, v)
				}
				w.Header().Set("X-Request-Id", "req-1")
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			})

			_, err := c.RestartSpace(context.Background(), "demo/space", true)
			require.Error(t, err)
			assert.EqualError(t, err, tt.message)

			var httpErr *HTTPError
			require.True(t, errors.As(err, &httpErr))
			assert.Equal(t, tt.status, httpErr.StatusCode)
			assert.Equal(t, "req-1", httpErr.RequestID)
			assert.Equal(t, tt.body, string(httpErr.Body))

			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
			assert.Equal(t, tt.suggestion, GetErrorSuggestion(err) != "")
		})
	}
}

func TestGetSpaceRuntime(t *testing.T) {
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/spaces/demo/space/runtime", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"stage":"RUNNING","hardware":{"current":"t4-small","requested":"t4-small"},"storage":"small"}`)
	})

	runtime, err := c.GetSpaceRuntime(context.Background(), "demo/space")
	require.NoError(t, err)
	assert.Equal(t, StageRunning, runtime.Stage)
	assert.Equal(t, "t4-small", runtime.Hardware)
	assert.Equal(t, "small", runtime.Storage)
	assert.Nil(t, runtime.SleepTime)
}

func TestRequestHonoursContext(t *testing.T) {
	c := newTestClient(t, "abc", func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.RestartSpace(ctx, "demo/space", true)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSpaceStageIsError(t *testing.T) {
	assert.True(t, StageBuildError.IsError())
	assert.True(t, StageRuntimeError.IsError())
	assert.False(t, StageRunning.IsError())
	assert.False(t, StageSleeping.IsError())
}

func TestWithUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		fmt.Fprint(w, `{"stage":"RUNNING"}`)
	}))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, "abc", WithHTTPClient(srv.Client()), WithUserAgent("restart-space/1.2.3 (abcdef0)"))
	require.NoError(t, err)

	_, err = c.GetSpaceRuntime(context.Background(), "acme/demo")
	require.NoError(t, err)
	assert.Equal(t, "restart-space/1.2.3 (abcdef0)", gotUA)
}
