package efergy

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler, opts *Options) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	if opts == nil {
		opts = &Options{}
	}
	opts.BaseURL = ts.URL
	c, err := New(testToken, opts)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestRequestSendsTokenAndOffset(t *testing.T) {
	var got url.Values
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		w.Write([]byte(`{"reading":1580}`))
	}), &Options{UTCOffset: "-120"})

	_, err := c.requestObject(context.Background(), "getInstant", nil)
	require.NoError(t, err)
	assert.Equal(t, testToken, got.Get("token"))
	assert.Equal(t, "-120", got.Get("offset"))
}

func TestClassify(t *testing.T) {
	body, err := classify(http.StatusOK, []byte(""))
	assert.NoError(t, err)
	assert.Nil(t, body)

	_, err = classify(http.StatusRequestTimeout, []byte(""))
	var de *DataError
	assert.True(t, errors.As(err, &de))

	_, err = classify(http.StatusOK, []byte(`{"error":"Error","description":"bad token"}`))
	assert.True(t, errors.Is(err, ErrInvalidAuth))

	_, err = classify(http.StatusOK, []byte(`{"status":"error","desc":"Method call failed"}`))
	assert.True(t, errors.Is(err, ErrService))

	_, err = classify(http.StatusOK, []byte(`{"error":{"id":400,"more":"a valid period is required"}}`))
	assert.True(t, errors.Is(err, ErrInvalidPeriod))

	_, err = classify(http.StatusOK, []byte(`{"error":{"id":400,"more":"bad request"}}`))
	assert.True(t, errors.As(err, &de))
	assert.Contains(t, de.Error(), "bad request")

	_, err = classify(http.StatusOK, []byte(`{"error":{"id":404,"more":"daily limit reached"}}`))
	assert.True(t, errors.Is(err, ErrAPICallLimit))

	_, err = classify(http.StatusOK, []byte(`{"error":{"id":500,"more":"internal"}}`))
	assert.True(t, errors.Is(err, ErrService))

	body, err = classify(http.StatusOK, []byte(`[{"sid":"728386"}]`))
	assert.NoError(t, err)
	assert.NotNil(t, body)

	_, err = classify(http.StatusOK, []byte(`<html>garbage</html>`))
	assert.True(t, errors.As(err, &de))
}

func TestRequestIgnoresContentType(t *testing.T) {
	// the api serves json with a text/html content type
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`{"reading":1580}`))
	}), nil)

	data, err := c.requestObject(context.Background(), "getInstant", nil)
	require.NoError(t, err)
	assert.Equal(t, 1580.0, data["reading"])
}

func TestRequestFailureInsideValidStatus(t *testing.T) {
	// failures arrive in a 200 body, the status code carries no signal
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusRequestTimeout)
		w.Write([]byte(`{"reading":1580}`))
	}), nil)

	data, err := c.requestObject(context.Background(), "getInstant", nil)
	require.NoError(t, err)
	assert.Equal(t, 1580.0, data["reading"])
}

func TestRequestEmptyBody(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), nil)

	data, err := c.requestObject(context.Background(), "getInstant", nil)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestRequestConnectError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	addr := ts.URL
	ts.Close()

	c, err := New(testToken, &Options{BaseURL: addr})
	require.NoError(t, err)
	defer c.Close()

	_, err = c.requestObject(context.Background(), "getInstant", nil)
	assert.True(t, errors.Is(err, ErrConnect))
}

func TestRequestTimeout(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"reading":1580}`))
	}), &Options{HTTPClient: &http.Client{Timeout: 20 * time.Millisecond}})

	_, err := c.requestObject(context.Background(), "getInstant", nil)
	assert.True(t, errors.Is(err, ErrConnect))
}
