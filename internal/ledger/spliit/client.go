// Package spliit is the ledger.Ledger adapter for a Spliit server's tRPC
// API.
package spliit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/cleared-dev/splitfeed/internal/id"
	"github.com/cleared-dev/splitfeed/internal/ledger"
	"github.com/cleared-dev/splitfeed/internal/logging"
	"github.com/cleared-dev/splitfeed/internal/model"
)

// dateLayout is how the tRPC superjson Date meta expects expenseDate.
const dateLayout = "2006-01-02T15:04:05.000Z"

// APIError is a non-2xx response or a tRPC error object.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("spliit: unexpected status %d", e.Status)
	}
	return fmt.Sprintf("spliit: %s (status %d)", e.Message, e.Status)
}

// Options configures a Client.
type Options struct {
	Timeout   time.Duration
	Transport http.RoundTripper
	Logger    *slog.Logger
}

// Client is bound to one group on one Spliit server.
type Client struct {
	server   string
	groupID  string
	groupURL string
	http     *http.Client
	logger   *slog.Logger
}

var _ ledger.Ledger = (*Client)(nil)

// New binds a client to the group behind groupURL.
func New(groupURL string, opts Options) (*Client, error) {
	server, groupID, err := ParseGroupURL(groupURL)
	if err != nil {
		return nil, err
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		server:   server,
		groupID:  groupID,
		groupURL: groupURL,
		http:     &http.Client{Transport: transport, Timeout: timeout},
		logger:   logger,
	}, nil
}

// GroupID returns the bound group id.
func (c *Client) GroupID() string { return c.groupID }

type trpcError struct {
	JSON struct {
		Message string `json:"message"`
		Data    struct {
			HTTPStatus int `json:"httpStatus"`
		} `json:"data"`
	} `json:"json"`
}

type trpcResult[T any] struct {
	Result *struct {
		Data struct {
			JSON T `json:"json"`
		} `json:"data"`
	} `json:"result"`
	Error *trpcError `json:"error"`
}

type groupJSON struct {
	Group *struct {
		ID           string `json:"id"`
		Name         string `json:"name"`
		Participants []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"participants"`
	} `json:"group"`
}

type expenseCreatedJSON struct {
	ExpenseID string `json:"expenseId"`
}

// Group loads the bound group with its participants.
func (c *Client) Group(ctx context.Context) (*model.Group, error) {
	input, err := json.Marshal(map[string]any{
		"0": map[string]any{"json": map[string]any{"groupId": c.groupID}},
	})
	if err != nil {
		return nil, fmt.Errorf("encode group input: %w", err)
	}
	q := url.Values{}
	q.Set("batch", "1")
	q.Set("input", string(input))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.server+"/api/trpc/groups.get?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	var out groupJSON
	if err := doBatch(c, req, &out); err != nil {
		return nil, fmt.Errorf("loading group %s: %w", c.groupID, err)
	}
	if out.Group == nil {
		return nil, fmt.Errorf("loading group %s: %w", c.groupID, ledger.ErrInvalidResponse)
	}

	g := &model.Group{
		ID:           out.Group.ID,
		Name:         out.Group.Name,
		URL:          c.groupURL,
		Participants: make([]model.Participant, 0, len(out.Group.Participants)),
	}
	for _, p := range out.Group.Participants {
		g.Participants = append(g.Participants, model.Participant{ID: p.ID, Name: p.Name})
	}
	return g, nil
}

type paidForJSON struct {
	Participant string `json:"participant"`
	Shares      int    `json:"shares"`
}

type expenseFormJSON struct {
	ExpenseDate                string        `json:"expenseDate"`
	Title                      string        `json:"title"`
	Category                   int           `json:"category"`
	Amount                     int64         `json:"amount"`
	PaidBy                     string        `json:"paidBy"`
	PaidFor                    []paidForJSON `json:"paidFor"`
	SplitMode                  string        `json:"splitMode"`
	SaveDefaultSplittingOption bool          `json:"saveDefaultSplittingOptions"`
	IsReimbursement            bool          `json:"isReimbursement"`
	Documents                  []any         `json:"documents"`
	Notes                      string        `json:"notes"`
}

type createInputJSON struct {
	JSON struct {
		GroupID           string          `json:"groupId"`
		ExpenseFormValues expenseFormJSON `json:"expenseFormValues"`
		ParticipantID     string          `json:"participantId"`
	} `json:"json"`
	Meta struct {
		Values map[string][]string `json:"values"`
	} `json:"meta"`
}

func encodeExpense(groupID string, r ledger.ExpenseRequest) ([]byte, error) {
	var in createInputJSON
	in.JSON.GroupID = groupID
	in.JSON.ParticipantID = "None"
	d := r.Date
	in.JSON.ExpenseFormValues = expenseFormJSON{
		ExpenseDate: time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC).Format(dateLayout),
		Title:       r.Title,
		Amount:      r.Amount,
		PaidBy:      r.PaidBy,
		PaidFor:     make([]paidForJSON, 0, len(r.PaidFor)),
		SplitMode:   string(r.SplitMode),
		Documents:   []any{},
		Notes:       r.Notes,
	}
	for _, p := range r.PaidFor {
		in.JSON.ExpenseFormValues.PaidFor = append(in.JSON.ExpenseFormValues.PaidFor,
			paidForJSON{Participant: p.ParticipantID, Shares: p.Shares})
	}
	in.Meta.Values = map[string][]string{"expenseFormValues.expenseDate": {"Date"}}
	return json.Marshal(map[string]createInputJSON{"0": in})
}

// AddExpense creates one expense in the bound group.
func (c *Client) AddExpense(ctx context.Context, r ledger.ExpenseRequest) (*ledger.CreatedExpense, error) {
	body, err := encodeExpense(c.groupID, r)
	if err != nil {
		return nil, fmt.Errorf("encode expense: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.server+"/api/trpc/groups.expenses.create?batch=1", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var out expenseCreatedJSON
	if err := doBatch(c, req, &out); err != nil {
		return nil, err
	}
	if out.ExpenseID == "" {
		return nil, fmt.Errorf("no expense id: %w", ledger.ErrInvalidResponse)
	}
	log := c.logger.With(logging.FieldGroup, c.groupID, logging.FieldExpenseID, out.ExpenseID)
	if ext, ok := id.ExternalIDFromTitle(r.Title); ok {
		log = log.With(logging.FieldExternalID, ext)
	}
	log.Debug("expense created", "title", r.Title)
	return &ledger.CreatedExpense{ID: out.ExpenseID}, nil
}

// doBatch executes a single-call tRPC batch request and decodes element 0.
func doBatch[T any](c *Client, req *http.Request, out *T) error {
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("spliit request failed", "url", req.URL.Path, logging.FieldError, err)
		return fmt.Errorf("spliit request: %w", err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	var batch []trpcResult[T]
	decodeErr := json.Unmarshal(body, &batch)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		if decodeErr == nil && len(batch) > 0 && batch[0].Error != nil {
			apiErr.Message = batch[0].Error.JSON.Message
		}
		c.logger.Error("spliit error response", "url", req.URL.Path, "status", resp.StatusCode, "message", apiErr.Message)
		return apiErr
	}
	if decodeErr != nil {
		return fmt.Errorf("%w: %v", ledger.ErrInvalidResponse, decodeErr)
	}
	if len(batch) == 0 {
		return fmt.Errorf("%w: empty batch", ledger.ErrInvalidResponse)
	}
	if e := batch[0].Error; e != nil {
		status := e.JSON.Data.HTTPStatus
		if status == 0 {
			status = resp.StatusCode
		}
		return &APIError{Status: status, Message: e.JSON.Message}
	}
	if batch[0].Result == nil {
		return fmt.Errorf("%w: no result", ledger.ErrInvalidResponse)
	}
	*out = batch[0].Result.Data.JSON
	return nil
}
