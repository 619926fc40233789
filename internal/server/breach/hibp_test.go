package breach

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophvault/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sha1Upper(s string) string {
	sum := sha1.Sum([]byte(s))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

func newRangeServer(t *testing.T, handler func(prefix string) (int, string)) (*httptest.Server, func() []string) {
	t.Helper()
	var (
		mu   sync.Mutex
		seen []string
	)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		prefix := strings.TrimPrefix(r.URL.Path, "/range/")
		mu.Lock()
		seen = append(seen, prefix)
		mu.Unlock()
		status, body := handler(prefix)
		w.WriteHeader(status)
		_, _ = fmt.Fprint(w, body)
	}))
	t.Cleanup(ts.Close)
	return ts, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), seen...)
	}
}

func TestQuery_Found(t *testing.T) {
	hash := sha1Upper("password")
	ts, seen := newRangeServer(t, func(prefix string) (int, string) {
		return http.StatusOK, "0018A45C4D1DEF81644B54AB7F969B88D65:1\r\n" +
			strings.ToLower(hash[5:]) + ":3861493\r\n"
	})

	c := NewHIBPClient(ts.URL+"/range/", time.Second, logging.Nop())
	r, err := c.Query(context.Background(), "password")
	require.NoError(t, err)
	assert.Equal(t, Result{Breached: true, Count: 3861493}, r)

	require.Len(t, seen(), 1)
	assert.Equal(t, hash[:5], seen()[0], "only the 5-char prefix is sent")
}

func TestQuery_NotFoundAndPadding(t *testing.T) {
	hash := sha1Upper("Correct-Horse-9!")
	ts, _ := newRangeServer(t, func(prefix string) (int, string) {
		return http.StatusOK, "0018A45C4D1DEF81644B54AB7F969B88D65:1\n" + hash[5:] + ":0\n"
	})

	r, err := NewHIBPClient(ts.URL+"/range/", time.Second, logging.Nop()).Query(context.Background(), "Correct-Horse-9!")
	require.NoError(t, err)
	assert.False(t, r.Breached)
}

func TestQuery_Errors(t *testing.T) {
	hash := sha1Upper("x")

	ts, _ := newRangeServer(t, func(string) (int, string) { return http.StatusServiceUnavailable, "" })
	_, err := NewHIBPClient(ts.URL+"/range/", time.Second, logging.Nop()).Query(context.Background(), "x")
	require.ErrorContains(t, err, "unexpected status")

	bad, _ := newRangeServer(t, func(string) (int, string) { return http.StatusOK, hash[5:] + ":lots\n" })
	_, err = NewHIBPClient(bad.URL+"/range/", time.Second, logging.Nop()).Query(context.Background(), "x")
	require.ErrorContains(t, err, "hibp parse count")
}

func TestCheck_FailsOpen(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	c := NewHIBPClient(url+"/range/", 200*time.Millisecond, logging.Nop())
	r, err := c.Check(context.Background(), "password")
	require.NoError(t, err)
	assert.False(t, r.Breached)
}

func TestCheck_EmptyPasswordSkipsLookup(t *testing.T) {
	ts, seen := newRangeServer(t, func(string) (int, string) { return http.StatusOK, "" })

	r, err := NewHIBPClient(ts.URL+"/range/", time.Second, logging.Nop()).Check(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, r.Breached)
	assert.Empty(t, seen())
}
