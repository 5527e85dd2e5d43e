// Package monobank is the bank.StatementSource adapter for the Monobank
// personal API.
package monobank

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/cleared-dev/splitfeed/internal/bank"
	"github.com/cleared-dev/splitfeed/internal/logging"
)

// DefaultBaseURL is the public Monobank API endpoint.
const DefaultBaseURL = "https://api.monobank.ua"

// APIError is a non-200, non-429 response from the API.
type APIError struct {
	Status      int
	Description string
}

func (e *APIError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("monobank: unexpected status %d", e.Status)
	}
	return fmt.Sprintf("monobank: %s (status %d)", e.Description, e.Status)
}

type tokenTransport struct {
	token string
	base  http.RoundTripper
}

func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("X-Token", t.token)
	req.Header.Set("Accept", "application/json")
	return t.base.RoundTrip(req)
}

// Options configures a Client.
type Options struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	// RequestInterval spaces consecutive calls client-side. Zero disables
	// pacing.
	RequestInterval time.Duration
	// Transport overrides the underlying round tripper (tests).
	Transport http.RoundTripper
	Logger    *slog.Logger
	// Location is used to turn calendar days into unix bounds. Defaults to
	// time.Local.
	Location *time.Location
}

// Client talks to the Monobank personal API.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
	loc     *time.Location
}

var (
	_ bank.StatementSource = (*Client)(nil)
	_ bank.AccountLister   = (*Client)(nil)
)

// New returns a client for the given options. The token is required.
func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.Token) == "" {
		return nil, errors.New("monobank: token is required")
	}
	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	c := &Client{
		baseURL: baseURL,
		http: &http.Client{
			Transport: &tokenTransport{token: opts.Token, base: base},
			Timeout:   timeout,
		},
		logger: logger,
		loc:    loc,
	}
	if opts.RequestInterval > 0 {
		c.limiter = rate.NewLimiter(rate.Every(opts.RequestInterval), 1)
	}
	return c, nil
}

type accountJSON struct {
	ID           string   `json:"id"`
	Balance      int64    `json:"balance"`
	Type         string   `json:"type"`
	CurrencyCode int      `json:"currencyCode"`
	MaskedPan    []string `json:"maskedPan"`
	IBAN         string   `json:"iban"`
}

type clientInfoJSON struct {
	ClientID string        `json:"clientId"`
	Name     string        `json:"name"`
	Accounts []accountJSON `json:"accounts"`
}

type statementJSON struct {
	ID           string `json:"id"`
	Time         int64  `json:"time"`
	Description  string `json:"description"`
	MCC          int    `json:"mcc"`
	Amount       int64  `json:"amount"`
	CurrencyCode int    `json:"currencyCode"`
	Balance      int64  `json:"balance"`
}

type errorJSON struct {
	ErrorDescription string `json:"errorDescription"`
}

// ClientInfo returns the token owner's profile and accounts.
func (c *Client) ClientInfo(ctx context.Context) (*bank.ClientInfo, error) {
	var raw clientInfoJSON
	if err := c.get(ctx, "/personal/client-info", &raw); err != nil {
		return nil, err
	}
	info := &bank.ClientInfo{
		ClientID: raw.ClientID,
		Name:     raw.Name,
		Accounts: make([]bank.Account, 0, len(raw.Accounts)),
	}
	for _, a := range raw.Accounts {
		info.Accounts = append(info.Accounts, bank.Account{
			ID:           a.ID,
			Type:         a.Type,
			CurrencyCode: a.CurrencyCode,
			Balance:      a.Balance,
			MaskedPan:    a.MaskedPan,
			IBAN:         a.IBAN,
		})
	}
	return info, nil
}

// Statements returns account entries from the start of day from until the
// last second of day to.
func (c *Client) Statements(ctx context.Context, accountID string, from, to time.Time) ([]bank.StatementItem, error) {
	fromUnix, toUnix := c.bounds(from, to)
	path := fmt.Sprintf("/personal/statement/%s/%d/%d", accountID, fromUnix, toUnix)

	var raw []statementJSON
	if err := c.get(ctx, path, &raw); err != nil {
		return nil, err
	}
	items := make([]bank.StatementItem, 0, len(raw))
	for _, s := range raw {
		items = append(items, bank.StatementItem{
			ID:           s.ID,
			Time:         s.Time,
			Description:  s.Description,
			MCC:          s.MCC,
			Amount:       s.Amount,
			CurrencyCode: s.CurrencyCode,
			Balance:      s.Balance,
		})
	}
	return items, nil
}

func (c *Client) bounds(from, to time.Time) (int64, int64) {
	f := from.In(c.loc)
	t := to.In(c.loc)
	start := time.Date(f.Year(), f.Month(), f.Day(), 0, 0, 0, 0, c.loc)
	end := time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, c.loc)
	return start.Unix(), end.Unix()
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("waiting for request slot: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("monobank request failed", "path", path, logging.FieldError, err)
		return fmt.Errorf("monobank request: %w", err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode monobank response: %w", err)
		}
		return nil
	case http.StatusTooManyRequests:
		c.logger.Warn("monobank rate limit hit", "path", path)
		return bank.ErrTooManyRequests
	default:
		var e errorJSON
		_ = json.Unmarshal(body, &e)
		c.logger.Error("monobank error response", "path", path, "status", resp.StatusCode, "description", e.ErrorDescription)
		return &APIError{Status: resp.StatusCode, Description: e.ErrorDescription}
	}
}
