package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/consulting-site-backend/errs"
)

const resendBaseURL = "https://api.resend.com"

// ResendEmailRequest represents the request payload for Resend API
type ResendEmailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Html    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
	ReplyTo []string `json:"reply_to,omitempty"`
}

// ResendEmailResponse represents the response from Resend API
type ResendEmailResponse struct {
	ID string `json:"id"`
}

// ResendErrorResponse represents an error response from Resend API
type ResendErrorResponse struct {
	Message string `json:"message"`
}

type MailerConfig struct {
	APIKey     string
	From       string // e.g. "Studio <hello@example.com>"
	BaseURL    string // defaults to the public Resend API
	HTTPClient *http.Client
}

// Mailer sends email through the Resend API.
type Mailer struct {
	apiKey  string
	from    string
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

func NewMailer(cfg MailerConfig) *Mailer {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = resendBaseURL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Mailer{
		apiKey:  cfg.APIKey,
		from:    cfg.From,
		baseURL: baseURL,
		client:  client,
		logger:  log.With().Str("component", "mailer").Logger(),
	}
}

// Configured reports whether both the API key and the sender are set.
func (m *Mailer) Configured() bool {
	return m.apiKey != "" && m.from != ""
}

// SendEmail sends an HTML email and returns the id Resend assigned to it.
// replyTo may be empty.
func (m *Mailer) SendEmail(ctx context.Context, subject, body string, recipients []string, replyTo string) (string, error) {
	if len(recipients) == 0 {
		return "", fmt.Errorf("at least one recipient is required")
	}
	if m.apiKey == "" {
		return "", errs.NewConfigError("RESEND_API_KEY")
	}
	if m.from == "" {
		return "", errs.NewConfigError("RESEND_FROM_EMAIL")
	}

	payload := ResendEmailRequest{
		From:    m.from,
		To:      recipients,
		Subject: subject,
		Html:    body,
	}
	if replyTo != "" {
		payload.ReplyTo = []string{replyTo}
	}

	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/emails", bytes.NewReader(jsonPayload))
	if err != nil {
		return "", fmt.Errorf("failed to create Resend API request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return "", errs.NewServiceUnreachableError("resend", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errs.NewServiceUnreachableError("resend", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := strings.TrimSpace(string(bodyBytes))
		var errorResp ResendErrorResponse
		if err := json.Unmarshal(bodyBytes, &errorResp); err == nil && errorResp.Message != "" {
			message = errorResp.Message
		}
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return "", errs.NewRateLimitError("resend", retryAfter(resp.Header.Get("Retry-After")))
		case resp.StatusCode >= http.StatusInternalServerError:
			return "", errs.NewServiceUnreachableError("resend", fmt.Errorf("status %d: %s", resp.StatusCode, message))
		}
		return "", errs.NewUpstreamError("resend", resp.StatusCode, message)
	}

	var emailResponse ResendEmailResponse
	if err := json.Unmarshal(bodyBytes, &emailResponse); err != nil {
		m.logger.Warn().Err(err).Msg("Failed to parse Resend email response, but email was sent")
		return "", nil
	}
	m.logger.Info().Str("emailId", emailResponse.ID).Int("recipients", len(recipients)).Msg("Successfully sent email via Resend")
	return emailResponse.ID, nil
}

func retryAfter(header string) time.Duration {
	seconds, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// ContactMessage is what a visitor submits through the contact form.
type ContactMessage struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company,omitempty"`
	Message string `json:"message"`
}

const (
	maxContactName    = 100
	maxContactCompany = 100
	maxContactMessage = 5000
)

func (c ContactMessage) Validate() *errs.ValidationError {
	verr := &errs.ValidationError{}

	name := strings.TrimSpace(c.Name)
	switch {
	case name == "":
		verr.Add("name", "is required")
	case utf8.RuneCountInString(name) > maxContactName:
		verr.Addf("name", "must be at most %d characters", maxContactName)
	}

	email := strings.TrimSpace(c.Email)
	if email == "" {
		verr.Add("email", "is required")
	} else if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		verr.Add("email", "must be a valid email address")
	}

	if utf8.RuneCountInString(strings.TrimSpace(c.Company)) > maxContactCompany {
		verr.Addf("company", "must be at most %d characters", maxContactCompany)
	}

	message := strings.TrimSpace(c.Message)
	switch {
	case message == "":
		verr.Add("message", "is required")
	case utf8.RuneCountInString(message) > maxContactMessage:
		verr.Addf("message", "must be at most %d characters", maxContactMessage)
	}
	return verr
}

var contactTemplate = template.Must(template.New("contact").Parse(`<h2>New contact request</h2>
<p><strong>Name:</strong> {{.Name}}<br>
<strong>Email:</strong> {{.Email}}{{if .Company}}<br>
<strong>Company:</strong> {{.Company}}{{end}}</p>
<p>{{.Message}}</p>
`))

// SendContact validates msg and forwards it to recipients with the visitor as
// reply-to address.
func (m *Mailer) SendContact(ctx context.Context, msg ContactMessage, recipients []string) error {
	if err := msg.Validate().OrNil(); err != nil {
		return err
	}
	if len(recipients) == 0 {
		return errs.NewConfigError("CONTACT_RECIPIENTS")
	}

	msg.Name = strings.TrimSpace(msg.Name)
	msg.Email = strings.TrimSpace(msg.Email)
	msg.Company = strings.TrimSpace(msg.Company)
	msg.Message = strings.TrimSpace(msg.Message)

	var body bytes.Buffer
	if err := contactTemplate.Execute(&body, msg); err != nil {
		return fmt.Errorf("rendering contact email: %w", err)
	}

	subject := "Contact request from " + strings.Join(strings.Fields(msg.Name), " ")
	_, err := m.SendEmail(ctx, subject, body.String(), recipients, msg.Email)
	return err
}
