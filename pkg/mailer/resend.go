package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fotoclick/backend/pkg/config"
	"github.com/fotoclick/backend/pkg/logger"
)

const defaultBaseURL = "https://api.resend.com"

var errAPIKeyRequired = errors.New("resend api key is required")

// Message is one outbound email.
type Message struct {
	To      []string
	Subject string
	HTML    string
	Text    string
}

// Sender is the email dispatch surface consumed by services.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Client sends transactional email through Resend's REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	from       string
}

// NewClient validates the API key and builds the HTTP wrapper.
func NewClient(ctx context.Context, cfg config.ResendConfig, logg *logger.Logger) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}
	if strings.TrimSpace(cfg.EmailFrom) == "" {
		return nil, errors.New("sender address is required")
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	if logg != nil {
		logg.Info(ctx, "resend client initialized")
	}

	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
		from:       cfg.EmailFrom,
	}, nil
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

// Send delivers one email. Callers treat failures as best-effort.
func (c *Client) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return errors.New("recipient is required")
	}
	if msg.Subject == "" {
		return errors.New("subject is required")
	}
	if msg.HTML == "" && msg.Text == "" {
		return errors.New("message body is required")
	}

	body, err := json.Marshal(sendRequest{
		From:    c.from,
		To:      msg.To,
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
	})
	if err != nil {
		return fmt.Errorf("encode email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<14))
		return fmt.Errorf("send email: status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}
	return nil
}
