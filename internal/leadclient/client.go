// Package leadclient submits a completed lead form: it posts the lead to the
// intake endpoint and, independently, hands the operator a WhatsApp deep link.
package leadclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/parisxmas/leadsite/internal/models"
)

const (
	LeadsPath      = "/api/leads"
	DefaultTimeout = 10 * time.Second
)

// Opener presents a deep link to the visitor (browser tab, terminal, redirect).
type Opener interface {
	Open(ctx context.Context, link string) error
}

type OpenerFunc func(ctx context.Context, link string) error

func (f OpenerFunc) Open(ctx context.Context, link string) error { return f(ctx, link) }

// Outcome reports persistence and operator notification separately.
type Outcome struct {
	Persisted bool
	Notified  bool
	LeadID    string
	DeepLink  string
	Err       error

	attempted bool
}

// OK reports whether the UI should show the success screen: true once a
// submission was attempted, whatever happened to it.
func (o Outcome) OK() bool { return o.attempted }

type Client struct {
	baseURL string
	phone   string
	source  string
	http    *http.Client
	opener  Opener
	now     func() time.Time
}

type Option func(*Client)

func WithSource(source string) Option {
	return func(c *Client) { c.source = source }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(baseURL, destinationPhone string, opener Opener, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		phone:   destinationPhone,
		source:  "website",
		http:    &http.Client{Timeout: DefaultTimeout},
		opener:  opener,
		now:     time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type submitBody struct {
	models.LeadFields
	Source    string `json:"source"`
	Timestamp string `json:"timestamp"`
}

type intakeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	LeadID  string `json:"leadId"`
}

// Settle builds the outcome of one submission attempt from the intake
// result: the full-message deep link when the lead was recorded, the
// fallback one otherwise. Notified is left for the caller.
func Settle(destinationPhone string, fields models.LeadFields, leadID string, err error) Outcome {
	out := Outcome{attempted: true}
	msg := FallbackMessage(fields)
	if err != nil {
		out.Err = err
	} else {
		out.Persisted = true
		out.LeadID = leadID
		msg = FullMessage(fields)
	}
	out.DeepLink = DeepLink(destinationPhone, msg)
	return out
}

// Submit posts fields to the intake endpoint, then opens the deep link
// whether or not the post succeeded. It never retries.
func (c *Client) Submit(ctx context.Context, fields models.LeadFields) Outcome {
	leadID, err := c.post(ctx, fields)
	out := Settle(c.phone, fields, leadID, err)
	if c.opener != nil {
		if err := c.opener.Open(ctx, out.DeepLink); err != nil {
			out.Err = multierr.Append(out.Err, fmt.Errorf("open deep link: %w", err))
		} else {
			out.Notified = true
		}
	}
	return out
}

func (c *Client) post(ctx context.Context, fields models.LeadFields) (string, error) {
	body, err := json.Marshal(submitBody{
		LeadFields: fields,
		Source:     c.source,
		Timestamp:  c.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return "", fmt.Errorf("encode lead: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+LeadsPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("post lead: %w", err)
	}
	defer resp.Body.Close()

	var ir intakeResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &ir); err != nil {
		return "", fmt.Errorf("post lead: status %d: undecodable response", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK || !ir.Success {
		return "", fmt.Errorf("post lead: status %d: %s", resp.StatusCode, ir.Message)
	}
	return ir.LeadID, nil
}
