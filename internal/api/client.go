package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// TokenSource supplies the session token for outbound requests. An empty
// token means the request goes out unauthenticated.
type TokenSource interface {
	Token() string
}

// Client is the gateway to the reservation backend. It owns the wire
// details (auth header, JSON codec, failure classification); callers only
// ever see typed results and *APIError.
type Client struct {
	hc     *http.Client
	base   *url.URL
	tokens TokenSource
	log    *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.hc = hc } }
func WithTimeout(d time.Duration) Option    { return func(c *Client) { c.hc.Timeout = d } }
func WithLogger(l *zap.Logger) Option       { return func(c *Client) { c.log = l } }

func New(baseURL string, tokens TokenSource, opts ...Option) (*Client, error) {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API base URL: %w", err)
	}
	c := &Client{
		hc:     &http.Client{Timeout: 10 * time.Second},
		base:   u,
		tokens: tokens,
		log:    zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// --- facilities and courts ---

func (c *Client) Facilities(ctx context.Context) ([]Facility, error) {
	var out []Facility
	if err := c.do(ctx, http.MethodGet, "facilities/", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Facility(ctx context.Context, id int64) (Facility, error) {
	var out Facility
	err := c.do(ctx, http.MethodGet, "facilities/"+itoa(id)+"/", nil, nil, &out)
	return out, err
}

func (c *Client) Courts(ctx context.Context, facilityID int64) ([]Court, error) {
	var out []Court
	err := c.do(ctx, http.MethodGet, "facilities/"+itoa(facilityID)+"/courts/", nil, nil, &out)
	return out, err
}

func (c *Client) Court(ctx context.Context, id int64) (Court, error) {
	var out Court
	err := c.do(ctx, http.MethodGet, "courts/"+itoa(id)+"/", nil, nil, &out)
	return out, err
}

// --- time slots ---

// TimeSlots fetches the slots for a scope on a YYYY-MM-DD date. The backend
// returns them unordered; ordering is the caller's concern.
func (c *Client) TimeSlots(ctx context.Context, scope Scope, date string) ([]TimeSlot, error) {
	if scope.IsZero() {
		return nil, &APIError{Kind: KindValidation, Detail: "time slot query requires a court or facility scope"}
	}
	q := url.Values{}
	q.Set("date", date)
	if scope.courtID != 0 {
		q.Set("court_id", itoa(scope.courtID))
	} else {
		q.Set("facility_id", itoa(scope.facilityID))
	}
	var out []TimeSlot
	if err := c.do(ctx, http.MethodGet, "timeslots/", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// --- reservations ---

func (c *Client) CreateReservation(ctx context.Context, timeSlotID int64) (Reservation, error) {
	body := struct {
		TimeSlot int64 `json:"time_slot"`
	}{TimeSlot: timeSlotID}
	var out Reservation
	err := c.do(ctx, http.MethodPost, "reservations/", nil, body, &out)
	return out, err
}

func (c *Client) Reservations(ctx context.Context) ([]Reservation, error) {
	var out []Reservation
	if err := c.do(ctx, http.MethodGet, "reservations/", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CancelReservation(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "reservations/"+itoa(id)+"/", nil, nil, nil)
}

// --- auth ---

type keyResponse struct {
	Key string `json:"key"`
}

func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	body := struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}{Username: username, Password: password}
	var out keyResponse
	if err := c.do(ctx, http.MethodPost, "auth/login/", nil, body, &out); err != nil {
		return "", err
	}
	if out.Key == "" {
		return "", &APIError{Kind: KindTransient, Detail: "login response missing token key"}
	}
	return out.Key, nil
}

func (c *Client) Register(ctx context.Context, form RegistrationForm) (string, error) {
	var out keyResponse
	if err := c.do(ctx, http.MethodPost, "auth/registration/", nil, form, &out); err != nil {
		return "", err
	}
	return out.Key, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "auth/logout/", nil, struct{}{}, nil)
}

// do runs one request against the backend. Every failure surfaces as an
// *APIError; raw transport errors never leave this method.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	u := c.base.JoinPath(path)
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if in != nil {
		jb, err := json.Marshal(in)
		if err != nil {
			return &APIError{Kind: KindValidation, Detail: err.Error()}
		}
		body = bytes.NewReader(jb)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return transportError(err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.tokens.Token(); tok != "" {
		req.Header.Set("Authorization", "Token "+tok)
	}

	c.log.Debug("api request", zap.String("method", method), zap.String("path", path))

	res, err := c.hc.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return transportError(err)
	}

	if res.StatusCode >= 400 {
		detail := decodeDetail(raw)
		kind := classify(res.StatusCode, detail)
		c.log.Debug("api error",
			zap.String("path", path),
			zap.Int("status", res.StatusCode),
			zap.Stringer("kind", kind))
		return &APIError{Kind: kind, Status: res.StatusCode, Detail: detail}
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &APIError{Kind: KindTransient, Status: res.StatusCode, Detail: "malformed response: " + err.Error()}
	}
	return nil
}

// decodeDetail pulls the backend's error text out of an error body. DRF
// uses {"detail": "..."} for single errors and field->messages maps for
// form validation.
func decodeDetail(raw []byte) string {
	var d struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &d); err == nil && d.Detail != "" {
		return d.Detail
	}
	var fields map[string][]string
	if err := json.Unmarshal(raw, &fields); err == nil && len(fields) > 0 {
		var parts []string
		for field, msgs := range fields {
			parts = append(parts, field+": "+strings.Join(msgs, " "))
		}
		return strings.Join(parts, "; ")
	}
	return strings.TrimSpace(string(raw))
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
