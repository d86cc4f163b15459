// Package client provides a Go client for a modelcast server.
//
// Models pulls the current catalog once. Watch keeps a push connection
// open and reconnects after a fixed delay whenever it drops; every
// reconnect is a fresh subscription, so the first message after a
// reconnect is always the full current catalog.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/agentstation/modelcast/pkg/constants"
	"github.com/agentstation/modelcast/pkg/errors"
)

// Source identifies how an Update was obtained.
type Source string

const (
	// SourcePull marks an update fetched with GET /model.
	SourcePull Source = "pull"
	// SourcePush marks an update received on the push stream.
	SourcePush Source = "push"
)

// Update is one catalog as received from the server. Models holds the
// array elements verbatim.
type Update struct {
	Models     []json.RawMessage
	Revision   uint64 // zero for push updates
	Source     Source
	ReceivedAt time.Time
}

// Client talks to a single modelcast server.
type Client struct {
	baseURL        *url.URL
	http           *http.Client
	dialer         *websocket.Dialer
	reconnectDelay time.Duration
	pullInterval   time.Duration
	logger         *zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the client used for pull requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithDialer sets the websocket dialer used for the push stream.
func WithDialer(d *websocket.Dialer) Option {
	return func(c *Client) {
		c.dialer = d
	}
}

// WithReconnectDelay sets the fixed wait between push reconnects.
func WithReconnectDelay(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.reconnectDelay = d
		}
	}
}

// WithPullInterval makes Watch also pull the catalog on a fixed interval
// while the push stream is connected. Zero disables pulling.
func WithPullInterval(d time.Duration) Option {
	return func(c *Client) {
		c.pullInterval = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a client for the server at baseURL, which may include a
// path prefix (for example http://localhost:8080/api).
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, errors.NewValidationError("url", baseURL, err.Error())
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.NewValidationError("url", baseURL, "scheme must be http or https")
	}
	if u.Host == "" {
		return nil, errors.NewValidationError("url", baseURL, "host is required")
	}

	nop := zerolog.Nop()
	c := &Client{
		baseURL:        u,
		http:           &http.Client{Timeout: constants.DefaultHTTPTimeout},
		dialer:         websocket.DefaultDialer,
		reconnectDelay: constants.DefaultReconnectDelay,
		logger:         &nop,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// With returns a copy of c with opts applied.
func (c *Client) With(opts ...Option) *Client {
	clone := *c
	for _, opt := range opts {
		opt(&clone)
	}
	return &clone
}

// ModelsURL returns the pull endpoint.
func (c *Client) ModelsURL() string {
	return c.baseURL.String() + "/model"
}

// StreamURL returns the websocket push endpoint.
func (c *Client) StreamURL() string {
	u := *c.baseURL
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	return u.String() + "/model/ws"
}

// Models pulls the current catalog.
func (c *Client) Models(ctx context.Context) (*Update, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ModelsURL(), nil)
	if err != nil {
		return nil, errors.WrapResource("create", "request", "GET "+c.ModelsURL(), err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.WrapIO("read", c.ModelsURL(), err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.WrapIO("read", c.ModelsURL(), err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewIOError("read", c.ModelsURL(), fmt.Errorf("unexpected status %s", resp.Status))
	}

	models, err := decodeModels(body)
	if err != nil {
		return nil, err
	}

	update := &Update{Models: models, Source: SourcePull, ReceivedAt: time.Now()}
	if rev := resp.Header.Get("X-Catalog-Revision"); rev != "" {
		update.Revision, _ = strconv.ParseUint(rev, 10, 64)
	}
	return update, nil
}

// Watch delivers every catalog the server pushes to fn until ctx is done.
// When the connection fails or closes it waits the reconnect delay and
// subscribes again. fn is never called concurrently. Watch returns the
// context error once ctx is done.
func (c *Client) Watch(ctx context.Context, fn func(*Update)) error {
	for attempt := 1; ; attempt++ {
		err := c.stream(ctx, fn)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		c.logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Dur("delay", c.reconnectDelay).
			Msg("Catalog stream lost, reconnecting")

		timer := time.NewTimer(c.reconnectDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// stream runs one subscription and returns when it ends.
func (c *Client) stream(ctx context.Context, fn func(*Update)) error {
	conn, resp, err := c.dialer.DialContext(ctx, c.StreamURL(), nil)
	if err != nil {
		if resp != nil {
			return errors.WrapIO("dial", c.StreamURL(), fmt.Errorf("%w (status %s)", err, resp.Status))
		}
		return errors.WrapIO("dial", c.StreamURL(), err)
	}
	defer func() { _ = conn.Close() }()

	c.logger.Info().Str("url", c.StreamURL()).Msg("Catalog stream connected")

	frames := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			select {
			case frames <- data:
			case <-ctx.Done():
				return
			}
		}
	}()

	var tick <-chan time.Time
	if c.pullInterval > 0 {
		ticker := time.NewTicker(c.pullInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return ctx.Err()

		case err := <-readErr:
			return err

		case data := <-frames:
			models, err := decodeModels(data)
			if err != nil {
				c.logger.Warn().Err(err).Msg("Ignoring malformed catalog frame")
				continue
			}
			fn(&Update{Models: models, Source: SourcePush, ReceivedAt: time.Now()})

		case <-tick:
			update, err := c.Models(ctx)
			if err != nil {
				c.logger.Warn().Err(err).Msg("Catalog pull failed")
				continue
			}
			fn(update)
		}
	}
}

func decodeModels(data []byte) ([]json.RawMessage, error) {
	var models []json.RawMessage
	if err := json.Unmarshal(data, &models); err != nil {
		return nil, errors.WrapParse("json", "", err)
	}
	if models == nil {
		models = []json.RawMessage{}
	}
	return models, nil
}
