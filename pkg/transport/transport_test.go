package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/sma-portal-sync/pkg/errors"
	"github.com/noah-isme/sma-portal-sync/pkg/middleware/requestid"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := New(Config{BaseURL: srv.URL + "/api/v1"}, opts...)
	require.NoError(t, err)
	return client
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "teacher-1", "exp": exp.Unix()})
	raw, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)
	return raw
}

func TestClientGetDecodesAndSendsHeaders(t *testing.T) {
	var gotAuth, gotReqID, gotPath, gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotReqID = r.Header.Get(requestid.Header)
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"ok":true}}`))
	}, WithTokenSource(TokenFunc(func() string { return "opaque-token" })))

	var dest struct {
		Data struct {
			OK bool `json:"ok"`
		} `json:"data"`
	}
	ctx := requestid.WithValue(context.Background(), "req-42")
	err := client.Get(ctx, "/grades", url.Values{"section_id": {"3"}}, &dest)
	require.NoError(t, err)
	assert.True(t, dest.Data.OK)
	assert.Equal(t, "Bearer opaque-token", gotAuth)
	assert.Equal(t, "req-42", gotReqID)
	assert.Equal(t, "/api/v1/grades", gotPath)
	assert.Equal(t, "section_id=3", gotQuery)
}

func TestClientUnauthorizedStatuses(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, StatusSessionExpired} {
		var fired int32
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"message":"token revoked"}`))
		}, WithUnauthorizedHandler(func(got int, reason string) {
			atomic.AddInt32(&fired, 1)
			assert.Equal(t, status, got)
			assert.Equal(t, "token revoked", reason)
		}))

		err := client.Get(context.Background(), "grades", nil, nil)
		require.Error(t, err)
		assert.True(t, appErrors.Is(err, appErrors.CodeUnauthorized))
		assert.EqualValues(t, 1, atomic.LoadInt32(&fired))
	}
}

func TestClientForbiddenWithCompletionIsIncompleteData(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"grades incomplete","completion_percentage":62}`))
	})

	err := client.Get(context.Background(), "promotion/report", nil, nil)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.CodeIncompleteData))
	pct, ok := appErrors.CompletionOf(err)
	require.True(t, ok)
	assert.Equal(t, 62.0, pct)
}

func TestClientForbiddenWithoutCompletionIsServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"not your section"}`))
	})

	err := client.Get(context.Background(), "grades", nil, nil)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.CodeServer))
	assert.Contains(t, err.Error(), "not your section")
}

func TestClientServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	err := client.Send(context.Background(), http.MethodPost, "attendance", map[string]string{"a": "b"}, nil)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.CodeServer, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Details["status"])
}

func TestClientTimeoutIsNetworkError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	client, err := New(Config{BaseURL: srv.URL, ReadTimeout: 20 * time.Millisecond})
	require.NoError(t, err)

	err = client.Get(context.Background(), "grades", nil, nil)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.CodeNetwork))
}

func TestClientUnreachableIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	client, err := New(Config{BaseURL: base})
	require.NoError(t, err)
	err = client.Get(context.Background(), "grades", nil, nil)
	assert.True(t, appErrors.Is(err, appErrors.CodeNetwork))
}

func TestClientExpiredTokenShortCircuits(t *testing.T) {
	var hits, fired int32
	token := signedToken(t, time.Now().Add(-time.Minute))
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	},
		WithTokenSource(TokenFunc(func() string { return token })),
		WithUnauthorizedHandler(func(int, string) { atomic.AddInt32(&fired, 1) }),
	)

	err := client.Get(context.Background(), "grades", nil, nil)
	assert.True(t, appErrors.Is(err, appErrors.CodeUnauthorized))
	assert.Zero(t, atomic.LoadInt32(&hits))
	assert.EqualValues(t, 1, atomic.LoadInt32(&fired))
}

func TestClientLiveTokenPassesThrough(t *testing.T) {
	token := signedToken(t, time.Now().Add(time.Hour))
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}, WithTokenSource(TokenFunc(func() string { return token })))

	require.NoError(t, client.Get(context.Background(), "grades", nil, nil))
}

func TestClientExportReturnsBytes(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4"))
	})

	body, contentType, err := client.Export(context.Background(), "promotion/export", nil)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", contentType)
	assert.Equal(t, "%PDF-1.4", string(body))
}

func TestNewRejectsInvalidBaseURL(t *testing.T) {
	_, err := New(Config{BaseURL: "not a url"})
	assert.Error(t, err)
}
