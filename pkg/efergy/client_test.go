package efergy

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "ur1234567-0abc12de3f456gh7ij89k012"

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New("", nil)
	assert.Error(t, err)

	c, err := New(testToken, nil)
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, defaultURL, c.baseURL)
	assert.Equal(t, defaultCacheTTL, c.cacheTTL)
}

func TestCurrencyValidation(t *testing.T) {
	c, err := New(testToken, &Options{Currency: "USD"})
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, "USD", c.Info().Currency)

	_, err = New(testToken, &Options{Currency: "US"})
	assert.True(t, errors.Is(err, ErrInvalidCurrency))
}

func TestResolveOffset(t *testing.T) {
	minutes, err := resolveOffset("120", time.Now())
	require.NoError(t, err)
	assert.Equal(t, 120, minutes)

	minutes, err = resolveOffset("-90", time.Now())
	require.NoError(t, err)
	assert.Equal(t, -90, minutes)

	winter := time.Date(2022, 1, 3, 12, 0, 0, 0, time.UTC)
	minutes, err = resolveOffset("America/New_York", winter)
	require.NoError(t, err)
	assert.Equal(t, 300, minutes)

	summer := time.Date(2022, 7, 1, 12, 0, 0, 0, time.UTC)
	minutes, err = resolveOffset("America/New_York", summer)
	require.NoError(t, err)
	assert.Equal(t, 240, minutes)

	_, err = resolveOffset("abc", time.Now())
	assert.True(t, errors.Is(err, ErrInvalidOffset))
}

func TestUpdateOptionsMerges(t *testing.T) {
	c, err := New(testToken, &Options{UTCOffset: "60", Currency: "EUR"})
	require.NoError(t, err)
	defer c.Close()

	// options left out keep their previous value
	require.NoError(t, c.UpdateOptions(&Options{Currency: "SEK"}))
	assert.Equal(t, 60, c.UTCOffset())
	assert.Equal(t, "SEK", c.Info().Currency)

	alt := true
	require.NoError(t, c.UpdateOptions(&Options{Alternate: &alt}))
	assert.Equal(t, alternateURL, c.baseURL)
	assert.Equal(t, 60, c.UTCOffset())

	alt = false
	require.NoError(t, c.UpdateOptions(&Options{Alternate: &alt}))
	assert.Equal(t, defaultURL, c.baseURL)

	ttl := 300
	require.NoError(t, c.UpdateOptions(&Options{CacheTTL: &ttl}))
	assert.Equal(t, 300, c.cacheTTL)

	err = c.UpdateOptions(&Options{UTCOffset: "not/a/zone"})
	assert.True(t, errors.Is(err, ErrInvalidOffset))
	assert.Equal(t, 60, c.UTCOffset())
}

func TestCloseIsIdempotent(t *testing.T) {
	c, err := New(testToken, nil)
	require.NoError(t, err)
	c.Close()
	c.Close()
	assert.True(t, c.closed)
}

func TestDoReleasesClient(t *testing.T) {
	var captured *Client
	err := Do(testToken, nil, func(c *Client) error {
		captured = c
		return errors.New("boom")
	})
	assert.EqualError(t, err, "boom")
	require.NotNil(t, captured)
	assert.True(t, captured.closed)
}
