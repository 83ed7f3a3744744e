package emails

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const brevoAPI = "https://api.brevo.com/v3/smtp/email"

// BrevoSendRequest matches the Brevo API v3 transactional email body.
type BrevoSendRequest struct {
	Sender      BrevoSender   `json:"sender"`
	To          []BrevoTo     `json:"to"`
	Subject     string        `json:"subject"`
	HTMLContent string        `json:"htmlContent"`
	ReplyTo     *BrevoReplyTo `json:"replyTo,omitempty"`
}

type BrevoSender struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type BrevoTo struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type BrevoReplyTo struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Sender sends transactional emails. A nil Sender means email is disabled.
type Sender interface {
	SendWelcome(ctx context.Context, toEmail, displayName string) error
	SendPasswordReset(ctx context.Context, toEmail, resetLink string) error
}

// BrevoClient sends emails through the Brevo (Sendinblue) API.
type BrevoClient struct {
	APIKey   string
	MailFrom string
	Endpoint string // defaults to the public Brevo API
	Client   *http.Client
}

func (c *BrevoClient) from() string {
	if c.MailFrom != "" {
		return c.MailFrom
	}
	return "noreply@pettie.app"
}

func (c *BrevoClient) endpoint() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return brevoAPI
}

func (c *BrevoClient) send(ctx context.Context, toEmail, subject, html string) error {
	if c.APIKey == "" {
		return nil
	}
	body := BrevoSendRequest{
		Sender:      BrevoSender{Email: c.from(), Name: "Pettie"},
		To:          []BrevoTo{{Email: toEmail}},
		Subject:     subject,
		HTMLContent: html,
		ReplyTo:     &BrevoReplyTo{Email: "support@pettie.app", Name: "Pettie Support"},
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(bodyBytes))
	if err != nil {
		return err
	}
	req.Header.Set("api-key", c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("brevo send failed: status %d", resp.StatusCode)
	}
	return nil
}

// SendWelcome is sent once after registration.
func (c *BrevoClient) SendWelcome(ctx context.Context, toEmail, displayName string) error {
	if c.APIKey == "" {
		return nil
	}
	if displayName == "" {
		displayName = "there"
	}
	return c.send(ctx, toEmail, "Welcome to Pettie!", EmailLayout(welcomeContent(displayName)))
}

// SendPasswordReset carries the one-hour reset link.
func (c *BrevoClient) SendPasswordReset(ctx context.Context, toEmail, resetLink string) error {
	if c.APIKey == "" {
		return nil
	}
	return c.send(ctx, toEmail, "Reset your Pettie password", EmailLayout(passwordResetContent(resetLink)))
}

func welcomeContent(displayName string) string {
	return fmt.Sprintf(`
    <h1>Welcome to Pettie, %s!</h1>
    <p>Your account is ready. Browse pets looking for a new home or list your own in a couple of taps.</p>
    <p style="margin-top: 20px; font-size: 14px; color: #666;">
      If you did not sign up for this account, please contact our support team.
    </p>
    <p>The Pettie Team</p>
`, EscapeHTML(displayName))
}

func passwordResetContent(resetLink string) string {
	return fmt.Sprintf(`
    <h1>Reset your password</h1>
    <p>We received a request to reset the password for your Pettie account.</p>
    <center>
      <a href="%s" class="pettie-button">Choose a new password</a>
    </center>
    <p style="margin-top:20px;font-size:14px;color:#666;">
      This link expires in one hour. If you did not ask for a reset, you can ignore this email.
    </p>
    <p>The Pettie Team</p>
`, EscapeHTML(resetLink))
}
