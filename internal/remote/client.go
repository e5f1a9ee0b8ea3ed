// Package remote is the HTTP client for the ticketboard API.
package remote

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

	"github.com/ALT-F4-LLC/ticketboard/internal/model"
)

// DefaultTimeout bounds every request made by a Client.
const DefaultTimeout = 10 * time.Second

// ActorHeader carries the name recorded in the server's activity log.
const ActorHeader = "X-Ticketboard-Actor"

// StatusError is returned for any non-2xx response.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
}

// Status returns the HTTP status code of the response.
func (e *StatusError) Status() int {
	return e.StatusCode
}

func (e *StatusError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("remote returned %d (%s): %s", e.StatusCode, e.Code, msg)
	}
	return fmt.Sprintf("remote returned %d: %s", e.StatusCode, msg)
}

// Client talks to a ticketboard server.
type Client struct {
	baseURL    string
	actor      string
	httpClient *http.Client
}

// New returns a client for the API rooted at baseURL
// (for example http://localhost:8080/api).
func New(baseURL, actor string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		actor:      actor,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
}

// WithTimeout sets the per-request timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.httpClient.Timeout = timeout
	return c
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListTickets returns every ticket.
func (c *Client) ListTickets(ctx context.Context) ([]model.Ticket, error) {
	var tickets []model.Ticket
	if err := c.do(ctx, http.MethodGet, "/tickets", nil, &tickets); err != nil {
		return nil, err
	}
	if tickets == nil {
		tickets = []model.Ticket{}
	}
	return tickets, nil
}

// GetTicket returns the ticket with the given ID.
func (c *Client) GetTicket(ctx context.Context, id string) (*model.Ticket, error) {
	var t model.Ticket
	if err := c.do(ctx, http.MethodGet, "/tickets/"+url.PathEscape(id), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTicket creates a ticket and returns it as stored by the server.
func (c *Client) CreateTicket(ctx context.Context, in model.CreateTicketInput) (*model.Ticket, error) {
	var t model.Ticket
	if err := c.do(ctx, http.MethodPost, "/tickets", in, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTicket applies a partial update. A non-nil in.Version makes the
// server reject the write with 409 when the ticket has moved on.
func (c *Client) UpdateTicket(ctx context.Context, id string, in model.UpdateTicketInput) (*model.Ticket, error) {
	var t model.Ticket
	if err := c.do(ctx, http.MethodPut, "/tickets/"+url.PathEscape(id), in, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteTicket removes a ticket.
func (c *Client) DeleteTicket(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/tickets/"+url.PathEscape(id), nil, nil)
}

// ListUsers returns every user.
func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := c.do(ctx, http.MethodGet, "/users", nil, &users); err != nil {
		return nil, err
	}
	if users == nil {
		users = []model.User{}
	}
	return users, nil
}

// CreateUser registers a user.
func (c *Client) CreateUser(ctx context.Context, in model.CreateUserInput) (*model.User, error) {
	var u model.User
	if err := c.do(ctx, http.MethodPost, "/users", in, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// AddAttachment records attachment metadata on a ticket.
func (c *Client) AddAttachment(ctx context.Context, ticketID string, in model.AttachmentInput) (*model.Attachment, error) {
	var a model.Attachment
	path := "/tickets/" + url.PathEscape(ticketID) + "/attachments"
	if err := c.do(ctx, http.MethodPost, path, in, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// RemoveAttachment deletes one attachment from a ticket.
func (c *Client) RemoveAttachment(ctx context.Context, ticketID, attachmentID string) error {
	path := "/tickets/" + url.PathEscape(ticketID) + "/attachments/" + url.PathEscape(attachmentID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// ListActivity returns the ticket's change log, newest first. A limit of
// zero returns everything.
func (c *Client) ListActivity(ctx context.Context, ticketID string, limit int) ([]model.Activity, error) {
	path := "/tickets/" + url.PathEscape(ticketID) + "/activity"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var acts []model.Activity
	if err := c.do(ctx, http.MethodGet, path, nil, &acts); err != nil {
		return nil, err
	}
	if acts == nil {
		acts = []model.Activity{}
	}
	return acts, nil
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// do sends a JSON request and decodes a JSON response into out when out is
// non-nil.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.actor != "" {
		req.Header.Set(ActorHeader, c.actor)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		se := &StatusError{StatusCode: resp.StatusCode}
		var eb errorBody
		if json.Unmarshal(raw, &eb) == nil && eb.Error != "" {
			se.Message = eb.Error
			se.Code = eb.Code
		} else {
			se.Message = strings.TrimSpace(string(raw))
		}
		return se
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}
