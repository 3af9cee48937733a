package onenet

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalTokenMinter(t *testing.T) {
	m := NewLocalTokenMinter("", 0)
	m.now = func() time.Time { return time.UnixMilli(1700000000000) }

	tok, err := m.Mint(context.Background(), "292608", testSecret)
	require.NoError(t, err)
	assert.Equal(t, "version=2022-05-01&res=userid%2F292608&et=1700003600&method=md5&sign=5%2BPW4b86L9w5lwuMDaKZuA%3D%3D", tok)

	_, err = m.Mint(context.Background(), "", testSecret)
	assert.ErrorIs(t, err, ErrMissingCredential)
}

func TestHTTPTokenMinter_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req TokenRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, TokenRequest{UserID: "7", AccessKey: "c2VjcmV0"}, req)

		_ = json.NewEncoder(w).Encode(TokenResponse{Success: true, Token: "version=2022-05-01&res=userid%2F7"})
	}))
	defer srv.Close()

	tok, err := NewHTTPTokenMinter(srv.URL, srv.Client()).RequestBearerToken(context.Background(), "7", "c2VjcmV0")
	require.NoError(t, err)
	assert.Equal(t, "version=2022-05-01&res=userid%2F7", tok)
}

func TestHTTPTokenMinter_Failures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantMsg    string
	}{
		{"server error", http.StatusInternalServerError, `{"detail":"Incorrect padding"}`, 500, "Incorrect padding"},
		{"non-json error", http.StatusBadGateway, `upstream down`, 502, "Failed to generate token"},
		{"declined", http.StatusOK, `{"success":false,"error":"unknown user"}`, 200, "unknown user"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewHTTPTokenMinter(srv.URL, nil).RequestBearerToken(context.Background(), "7", "k")
			var ie *IntegrationError
			require.ErrorAs(t, err, &ie)
			assert.Equal(t, tt.wantStatus, ie.Status)
			assert.Equal(t, tt.wantMsg, ie.Message)
		})
	}
}

func TestHTTPTokenMinter_Transport(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, err := NewHTTPTokenMinter(srv.URL, nil).Mint(context.Background(), "7", "k")
	assert.ErrorIs(t, err, ErrTransport)
}

type countingMinter struct {
	calls atomic.Int32
	inner TokenMinter
}

func (c *countingMinter) Mint(ctx context.Context, userID, accessKey string) (string, error) {
	c.calls.Add(1)
	return c.inner.Mint(ctx, userID, accessKey)
}

func TestCachingMinter(t *testing.T) {
	now := time.Unix(1700000000, 0)
	local := NewLocalTokenMinter(SignSHA1, time.Hour)
	local.now = func() time.Time { return now }
	counter := &countingMinter{inner: local}

	c := NewCachingMinter(counter, 5*time.Minute)
	c.now = func() time.Time { return now }

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Mint(context.Background(), "1", testSecret)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	first := counter.calls.Load()
	assert.LessOrEqual(t, first, int32(10))

	// Still valid: served from cache.
	_, err := c.Mint(context.Background(), "1", testSecret)
	require.NoError(t, err)
	assert.Equal(t, first, counter.calls.Load())

	// Inside the refresh window: minted again.
	now = now.Add(56 * time.Minute)
	_, err = c.Mint(context.Background(), "1", testSecret)
	require.NoError(t, err)
	assert.Equal(t, first+1, counter.calls.Load())

	c.Forget()
	_, err = c.Mint(context.Background(), "1", testSecret)
	require.NoError(t, err)
	assert.Equal(t, first+2, counter.calls.Load())
}
