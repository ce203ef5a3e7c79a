package nasa

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, key string, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, key, 2*time.Second, 6000, nil)
}

func TestFetchWindow_SendsWindowAndKey(t *testing.T) {
	var gotPath, gotStart, gotEnd, gotKey string
	c := newTestClient(t, "DEMO_KEY", func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotStart = r.URL.Query().Get("start_date")
		gotEnd = r.URL.Query().Get("end_date")
		gotKey = r.URL.Query().Get("api_key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"element_count":3,"near_earth_objects":{
			"2024-05-02":[{"id":"b"}],
			"2024-05-01":[{"id":"a1"},{"id":"a2"}]
		}}`))
	})

	start := time.Date(2024, 4, 24, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	buckets, err := c.FetchWindow(context.Background(), start, end)
	require.NoError(t, err)

	assert.Equal(t, "/feed", gotPath)
	assert.Equal(t, "2024-04-24", gotStart)
	assert.Equal(t, "2024-05-01", gotEnd)
	assert.Equal(t, "DEMO_KEY", gotKey)
	require.Len(t, buckets, 2)
	assert.Len(t, buckets["2024-05-01"], 2)
	assert.JSONEq(t, `{"id":"b"}`, string(buckets["2024-05-02"][0]))
}

func TestFetchWindow_MissingBucketsIsEmptyMap(t *testing.T) {
	c := newTestClient(t, "k", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"element_count":0}`))
	})

	buckets, err := c.FetchWindow(context.Background(), time.Now(), time.Now())
	require.NoError(t, err)
	assert.NotNil(t, buckets)
	assert.Empty(t, buckets)
}

func TestFetchWindow_SkipsMalformedDays(t *testing.T) {
	c := newTestClient(t, "k", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"near_earth_objects":{
			"2024-05-01":[{"id":"a"}],
			"2024-05-02":{"oops":1},
			"2024-05-03":"n/a",
			"2024-05-04":null
		}}`))
	})

	buckets, err := c.FetchWindow(context.Background(), time.Now(), time.Now())
	require.NoError(t, err)
	require.Len(t, buckets, 1)
	require.Len(t, buckets["2024-05-01"], 1)
	assert.JSONEq(t, `{"id":"a"}`, string(buckets["2024-05-01"][0]))
}

func TestGet_MissingKeyMakesNoRequest(t *testing.T) {
	called := false
	c := newTestClient(t, "  ", func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := c.FetchWindow(context.Background(), time.Now(), time.Now())
	require.ErrorIs(t, err, ErrMissingKey)
	_, err = c.FetchByID(context.Background(), "1")
	require.ErrorIs(t, err, ErrMissingKey)
	assert.False(t, called)
}

func TestGet_UpstreamErrorMessages(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"error_message", 400, `{"error_message":"Date Format Exception","message":"ignored"}`, "Date Format Exception"},
		{"message", 500, `{"message":"Internal failure"}`, "Internal failure"},
		{"error string", 403, `{"error":"forbidden"}`, "forbidden"},
		{"error object", 403, `{"error":{"code":"API_KEY_INVALID","message":"An invalid api_key was supplied."}}`, "An invalid api_key was supplied."},
		{"no body", 502, ``, "HTTP 502"},
		{"html", 503, `<html>down</html>`, "HTTP 503"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, "k", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})

			_, err := c.FetchWindow(context.Background(), time.Now(), time.Now())
			var upErr *UpstreamError
			require.True(t, errors.As(err, &upErr))
			assert.Equal(t, tc.status, upErr.Status)
			assert.Equal(t, tc.want, upErr.Message)
			assert.Equal(t, "NASA API: "+tc.want, upErr.Error())
		})
	}
}

func TestFetchByID(t *testing.T) {
	c := newTestClient(t, "k", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/neo/3542519" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"code":404,"error_message":"Asteroid not found"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"3542519","name":"(2010 PK9)"}`))
	})

	raw, err := c.FetchByID(context.Background(), "3542519")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"3542519","name":"(2010 PK9)"}`, string(raw))

	_, err = c.FetchByID(context.Background(), "404404")
	var upErr *UpstreamError
	require.ErrorAs(t, err, &upErr)
	assert.True(t, upErr.NotFound())
	assert.Equal(t, "Asteroid not found", upErr.Message)
}

func TestGet_TimeoutIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL, "k", 20*time.Millisecond, 6000, nil)

	_, err := c.FetchByID(context.Background(), "1")
	require.Error(t, err)
	var upErr *UpstreamError
	assert.False(t, errors.As(err, &upErr))
}
