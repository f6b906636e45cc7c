package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// EmailMessage is a plain-text email ready for delivery.
type EmailMessage struct {
	To        []string
	FromEmail string
	FromName  string
	Subject   string
	Text      string
}

// Mailer delivers one message. Implementations must be safe for concurrent use.
type Mailer interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// SendGridMailer posts messages to the SendGrid v3 mail API.
type SendGridMailer struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

func NewSendGridMailer(baseURL, apiKey string, client *http.Client) *SendGridMailer {
	if baseURL == "" {
		baseURL = "https://api.sendgrid.com"
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &SendGridMailer{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client:  client,
	}
}

type sendGridAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendGridPayload struct {
	Personalizations []struct {
		To []sendGridAddress `json:"to"`
	} `json:"personalizations"`
	From    sendGridAddress `json:"from"`
	Subject string          `json:"subject"`
	Content []struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	} `json:"content"`
}

// Send delivers msg through SendGrid. Any non-2xx answer is an error.
func (m *SendGridMailer) Send(ctx context.Context, msg EmailMessage) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("no recipients")
	}

	var payload sendGridPayload
	payload.Personalizations = make([]struct {
		To []sendGridAddress `json:"to"`
	}, 1)
	for _, to := range msg.To {
		payload.Personalizations[0].To = append(payload.Personalizations[0].To, sendGridAddress{Email: to})
	}
	payload.From = sendGridAddress{Email: msg.FromEmail, Name: msg.FromName}
	payload.Subject = msg.Subject
	payload.Content = []struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	}{{Type: "text/plain", Value: msg.Text}}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode sendgrid payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.BaseURL+"/v3/mail/send", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build sendgrid request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.Client.Do(req)
	if err != nil {
		return fmt.Errorf("sendgrid request failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("SendGrid error: %d %s", resp.StatusCode, strings.TrimSpace(string(text)))
	}
	return nil
}

// LogMailer writes messages to the log instead of sending them. Used for
// local development.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, msg EmailMessage) error {
	zap.L().Info("📧 [MAIL] (log provider) message not sent",
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("bytes", len(msg.Text)))
	return nil
}
