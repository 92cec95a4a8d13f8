package smtp

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"strings"

	"tracker-service/internal/config"
	"tracker-service/internal/domain/entity"
	"tracker-service/internal/domain/service"

	"gopkg.in/gomail.v2"
)

type Client struct {
	cfg     *config.SMTPConfig
	banTmpl *template.Template
	send    func(m *gomail.Message) error
}

// NewClient creates a new SMTP client
func NewClient(cfg *config.SMTPConfig) (service.AlertMailer, error) {
	banTmpl, err := template.New("ban_alert").Parse(banAlertTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ban alert template: %w", err)
	}

	client := &Client{
		cfg:     cfg,
		banTmpl: banTmpl,
	}
	client.send = client.dialAndSend
	return client, nil
}

// SendBanAlert emails moderators that a participant was removed for missed check-ins
func (c *Client) SendBanAlert(ctx context.Context, recipients []string, event *entity.TrackerEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := c.renderBanAlert(event)
	if err != nil {
		return fmt.Errorf("failed to render ban alert: %w", err)
	}

	name := event.TrackerName
	if name == "" {
		name = event.TrackerID
	}

	m := gomail.NewMessage()
	m.SetHeader("From", fmt.Sprintf("%s <%s>", c.cfg.FromName, c.cfg.From))
	m.SetHeader("To", recipients...)
	m.SetHeader("Subject", fmt.Sprintf("Participant removed from %s", name))
	m.SetBody("text/html", body)

	return c.send(m)
}

func (c *Client) renderBanAlert(event *entity.TrackerEvent) (string, error) {
	data := map[string]interface{}{
		"TrackerID":   event.TrackerID,
		"TrackerName": event.TrackerName,
		"UserID":      event.UserID,
		"Emoji":       event.Emoji,
		"Reason":      strings.ReplaceAll(event.Reason, "_", " "),
		"OccurredAt":  event.OccurredAt.UTC().Format("Jan 2, 2006 15:04 MST"),
	}

	var buf bytes.Buffer
	if err := c.banTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

func (c *Client) dialAndSend(m *gomail.Message) error {
	d := gomail.NewDialer(c.cfg.Host, c.cfg.Port, c.cfg.Username, c.cfg.Password)
	// STARTTLS on 587 when UseTLS, implicit SSL on 465 otherwise
	d.SSL = !c.cfg.UseTLS
	d.TLSConfig = &tls.Config{
		ServerName: c.cfg.Host,
	}

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

const banAlertTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Participant Removed</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #ED4245;">🚫 Participant Removed</h2>
        <p>User <strong>{{.UserID}}</strong> ({{.Emoji}}) was removed from tracker <strong>{{if .TrackerName}}{{.TrackerName}}{{else}}{{.TrackerID}}{{end}}</strong>.</p>
        <p>Reason: {{.Reason}}</p>
        <p>They cannot rejoin until a moderator lifts the ban.</p>
        <hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">
        <p style="color: #999; font-size: 12px;">Sent {{.OccurredAt}}. This is an automated email, please do not reply.</p>
    </div>
</body>
</html>
`
