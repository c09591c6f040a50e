package efergy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/currency"
)

const (
	defaultURL   = "https://engage.efergy.com/mobile_proxy"
	alternateURL = "https://www.energyhive.com/mobile_proxy"

	requestTimeout  = 10 * time.Second
	defaultCacheTTL = 60
)

// Options enumerates every recognized client option. When passed to
// UpdateOptions, nil or empty fields leave the current value unchanged.
type Options struct {
	// CacheTTL is the cache hint in seconds forwarded on timeseries calls.
	CacheTTL *int
	// Alternate selects the energyhive mirror instead of the engage host.
	Alternate *bool
	// UTCOffset is either signed minutes ("120") or an IANA zone name
	// ("America/New_York"). Zone names resolve to their current offset.
	UTCOffset string
	// Currency is a 3 letter ISO 4217 code used to cross check cost readings.
	Currency string
	// BaseURL overrides both fixed hosts. Used by tests and proxies.
	BaseURL string
	// HTTPClient injects the session to use. An injected session is never
	// closed by the client.
	HTTPClient *http.Client
}

// Client talks to the efergy engage api. All methods issue a single GET and
// surface one of the package error kinds on failure.
type Client struct {
	httpClient *http.Client
	ownSession bool
	now        func() time.Time

	mu       sync.RWMutex
	apiKey   string
	baseURL  string
	offset   int
	cacheTTL int
	info     Info
	sids     []int
	closed   bool
}

func New(apiKey string, opts *Options) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("api key is required")
	}
	c := &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		ownSession: true,
		now:        time.Now,
		apiKey:     apiKey,
		baseURL:    defaultURL,
		cacheTTL:   defaultCacheTTL,
	}
	if opts != nil && opts.HTTPClient != nil {
		c.httpClient = opts.HTTPClient
		c.ownSession = false
	}
	if err := c.UpdateOptions(opts); err != nil {
		return nil, err
	}
	return c, nil
}

// Do runs fn with a ready client and releases the underlying session on
// every exit path.
func Do(apiKey string, opts *Options, fn func(*Client) error) error {
	c, err := New(apiKey, opts)
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(c)
}

// UpdateOptions merges opts into the current configuration. Options left at
// their zero value keep their previous setting.
func (c *Client) UpdateOptions(opts *Options) error {
	if opts == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if opts.CacheTTL != nil {
		c.cacheTTL = *opts.CacheTTL
	}
	if opts.Alternate != nil {
		c.baseURL = defaultURL
		if *opts.Alternate {
			c.baseURL = alternateURL
		}
	}
	if opts.BaseURL != "" {
		c.baseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	if opts.Currency != "" {
		unit, err := currency.ParseISO(opts.Currency)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidCurrency, opts.Currency)
		}
		c.info.Currency = unit.String()
	}
	if opts.UTCOffset != "" {
		minutes, err := resolveOffset(opts.UTCOffset, c.now())
		if err != nil {
			return err
		}
		c.offset = minutes
	}
	return nil
}

// resolveOffset converts a configured utc offset into signed minutes west of
// UTC. Numeric values are taken verbatim, zone names resolve to the zone's
// offset at the given instant so the result follows daylight saving.
func resolveOffset(value string, at time.Time) (int, error) {
	if minutes, err := strconv.Atoi(value); err == nil {
		return minutes, nil
	}
	loc, err := time.LoadLocation(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidOffset, value)
	}
	_, secs := at.In(loc).Zone()
	return -secs / 60, nil
}

// Close releases the http session. Injected sessions are left untouched and
// a second Close is a no-op.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.ownSession {
		c.httpClient.CloseIdleConnections()
	}
}

// Info returns the account metadata populated by Status.
func (c *Client) Info() Info {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.info
}

// Sids returns the ordered sensor id list populated by FetchSids.
func (c *Client) Sids() []int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]int(nil), c.sids...)
}

// UTCOffset returns the configured offset in signed minutes west of UTC.
func (c *Client) UTCOffset() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.offset
}

// request issues one GET for command and classifies the response body. A nil
// byte slice with a nil error means the api returned an empty 200 response.
func (c *Client) request(ctx context.Context, command string, params url.Values) ([]byte, error) {
	c.mu.RLock()
	base, token, offset := c.baseURL, c.apiKey, c.offset
	c.mu.RUnlock()

	query := url.Values{}
	query.Set("token", token)
	query.Set("offset", strconv.Itoa(offset))
	for key, values := range params {
		for _, value := range values {
			query.Add(key, value)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/"+command+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnect, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnect, err)
	}

	return classify(resp.StatusCode, body)
}

// classify maps the known efergy failure payloads onto error kinds. The body
// is always interpreted as JSON no matter what content type the server
// declared, and failures are reported inside otherwise successful responses.
func classify(status int, body []byte) ([]byte, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		if status == http.StatusOK {
			return nil, nil
		}
		return nil, &DataError{Payload: body}
	}

	// "error" is a string in some failure payloads and an object in others
	var probe struct {
		Description string          `json:"description"`
		Desc        string          `json:"desc"`
		Error       json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		// list responses are valid results, anything else is garbage
		var list []any
		if json.Unmarshal(body, &list) == nil {
			return body, nil
		}
		return nil, &DataError{Payload: body}
	}

	switch {
	case probe.Description == "bad token":
		return nil, ErrInvalidAuth
	case probe.Desc == "Method call failed":
		return nil, ErrService
	}

	var apiErr struct {
		ID   int    `json:"id"`
		More string `json:"more"`
	}
	if len(probe.Error) > 0 && json.Unmarshal(probe.Error, &apiErr) == nil {
		switch apiErr.ID {
		case 400:
			if strings.Contains(apiErr.More, "period") {
				return nil, ErrInvalidPeriod
			}
			return nil, &DataError{Payload: body}
		case 404:
			return nil, ErrAPICallLimit
		case 500:
			return nil, ErrService
		}
	}
	return body, nil
}

// requestObject decodes an object response. Empty bodies decode to an empty
// map so callers always get a usable result on success.
func (c *Client) requestObject(ctx context.Context, command string, params url.Values) (map[string]any, error) {
	body, err := c.request(ctx, command, params)
	if err != nil {
		return nil, err
	}
	if body == nil {
		return map[string]any{}, nil
	}
	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &DataError{Payload: body}
	}
	return out, nil
}

// requestInto decodes the response into dest, leaving dest untouched for
// empty bodies.
func (c *Client) requestInto(ctx context.Context, command string, params url.Values, dest any) error {
	body, err := c.request(ctx, command, params)
	if err != nil {
		return err
	}
	if body == nil {
		return nil
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return &DataError{Payload: body}
	}
	return nil
}

func (c *Client) cacheTTLParam() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return strconv.Itoa(c.cacheTTL)
}

func orDefault(period Period) Period {
	if period == "" {
		return DefaultPeriod
	}
	return period
}

func orDefaultType(dataType DataType) DataType {
	if dataType == "" {
		return DefaultDataType
	}
	return dataType
}
