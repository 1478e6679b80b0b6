package thinqapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DEFAULT_TIMEOUT = 15 * time.Second
	SERVICE_PHASE   = "OP"
)

type Config struct {
	// BaseURL overrides the regional endpoint derived from Country.
	BaseURL     string
	Country     string
	ClientID    string
	APIKey      string
	AccessToken string
	Timeout     time.Duration
}

// DeviceSummary is one entry of the device list.
type DeviceSummary struct {
	DeviceID   string `json:"deviceId"`
	DeviceType string `json:"deviceType"`
	ModelName  string `json:"modelName"`
	Alias      string `json:"alias"`
	Reportable bool   `json:"reportable"`
}

// Route holds the per-account server endpoints.
type Route struct {
	APIServer       string `json:"apiServer"`
	MQTTServer      string `json:"mqttServer"`
	WebSocketServer string `json:"webSocketServer"`
}

// MQTTBroker splits MQTTServer ("mqtts://host:port") into host and port.
// The port defaults to 8883.
func (r *Route) MQTTBroker() (string, int, error) {
	u, err := url.Parse(r.MQTTServer)
	if err != nil {
		return "", 0, fmt.Errorf("%w: mqtt server %q: %v", ErrBadResponse, r.MQTTServer, err)
	}
	if u.Hostname() == "" {
		return "", 0, fmt.Errorf("%w: mqtt server %q has no host", ErrBadResponse, r.MQTTServer)
	}
	port := 8883
	if p := u.Port(); p != "" {
		if port, err = strconv.Atoi(p); err != nil {
			return "", 0, fmt.Errorf("%w: mqtt server port %q", ErrBadResponse, p)
		}
	}
	return u.Hostname(), port, nil
}

type envelope struct {
	MessageID string          `json:"messageId"`
	Response  json.RawMessage `json:"response"`
	Error     *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Client talks to the ThinQ Connect REST API. It is safe for concurrent use
// and performs no retries.
type Client struct {
	cfg        Config
	baseURL    *url.URL
	httpClient *http.Client
	messageID  func() string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if cfg.AccessToken == "" {
		return nil, ErrMissingToken
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DEFAULT_TIMEOUT
	}
	base := cfg.BaseURL
	if base == "" {
		region, err := RegionForCountry(cfg.Country)
		if err != nil {
			return nil, err
		}
		base = BaseURL(region)
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	c := &Client{
		cfg:        cfg,
		baseURL:    u,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		messageID:  NewMessageID,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewMessageID returns a url-safe, unpadded base64 rendering of a random
// UUID, the format the API expects in x-message-id.
func NewMessageID() string {
	id := uuid.New()
	return base64.RawURLEncoding.EncodeToString(id[:])
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	req.Header.Set("x-country", strings.ToUpper(c.cfg.Country))
	req.Header.Set("x-message-id", c.messageID())
	req.Header.Set("x-client-id", c.cfg.ClientID)
	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.Header.Set("x-service-phase", SERVICE_PHASE)
	req.Header.Set("Accept", "application/json")
}

func (c *Client) FetchDeviceList(ctx context.Context) ([]DeviceSummary, error) {
	raw, err := c.do(ctx, http.MethodGet, "devices", nil, nil)
	if err != nil {
		return nil, err
	}
	var entries []struct {
		DeviceID   string `json:"deviceId"`
		DeviceInfo struct {
			DeviceType string `json:"deviceType"`
			ModelName  string `json:"modelName"`
			Alias      string `json:"alias"`
			Reportable bool   `json:"reportable"`
		} `json:"deviceInfo"`
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, fmt.Errorf("%w: device list: %v", ErrBadResponse, err)
		}
	}
	devices := make([]DeviceSummary, 0, len(entries))
	for _, e := range entries {
		devices = append(devices, DeviceSummary{
			DeviceID:   e.DeviceID,
			DeviceType: e.DeviceInfo.DeviceType,
			ModelName:  e.DeviceInfo.ModelName,
			Alias:      e.DeviceInfo.Alias,
			Reportable: e.DeviceInfo.Reportable,
		})
	}
	return devices, nil
}

func (c *Client) FetchStatus(ctx context.Context, deviceID string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "devices/"+url.PathEscape(deviceID)+"/state", nil, nil)
}

func (c *Client) FetchProfile(ctx context.Context, deviceID string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "devices/"+url.PathEscape(deviceID)+"/profile", nil, nil)
}

func (c *Client) SendCommand(ctx context.Context, deviceID string, payload any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, "devices/"+url.PathEscape(deviceID)+"/control", payload, http.Header{
		"x-conditional-control": {"true"},
	})
}

func (c *Client) SubscribePush(ctx context.Context, deviceID string) error {
	_, err := c.do(ctx, http.MethodPost, "push/"+url.PathEscape(deviceID)+"/subscribe", nil, nil)
	return err
}

func (c *Client) UnsubscribePush(ctx context.Context, deviceID string) error {
	_, err := c.do(ctx, http.MethodDelete, "push/"+url.PathEscape(deviceID)+"/unsubscribe", nil, nil)
	return err
}

// SubscribeEvents subscribes to state reports for a device. The expiry
// matches the maximum the service grants.
func (c *Client) SubscribeEvents(ctx context.Context, deviceID string) error {
	body := map[string]any{"expire": map[string]any{"unit": "HOUR", "timer": 4464}}
	_, err := c.do(ctx, http.MethodPost, "event/"+url.PathEscape(deviceID)+"/subscribe", body, nil)
	return err
}

func (c *Client) UnsubscribeEvents(ctx context.Context, deviceID string) error {
	_, err := c.do(ctx, http.MethodDelete, "event/"+url.PathEscape(deviceID)+"/unsubscribe", nil, nil)
	return err
}

func (c *Client) FetchRoute(ctx context.Context) (*Route, error) {
	raw, err := c.do(ctx, http.MethodGet, "route", nil, nil)
	if err != nil {
		return nil, err
	}
	var route Route
	if err := json.Unmarshal(raw, &route); err != nil {
		return nil, fmt.Errorf("%w: route: %v", ErrBadResponse, err)
	}
	return &route, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, extra http.Header) (json.RawMessage, error) {
	ref, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.ResolveReference(ref).String(), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", endpoint, err)
	}
	c.setHeaders(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range extra {
		for _, v := range vs {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute %s request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", endpoint, err)
	}
	var env envelope
	decodeErr := json.Unmarshal(data, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if decodeErr == nil && env.Error != nil {
			return nil, newAPIError(resp.StatusCode, env.Error.Code, env.Error.Message)
		}
		return nil, newAPIError(resp.StatusCode, "0000", http.StatusText(resp.StatusCode))
	}
	if len(data) == 0 {
		return nil, nil
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBadResponse, endpoint, decodeErr)
	}
	return env.Response, nil
}
