package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/smtp"
	"strings"
	"time"
)

var orderTmpl = template.Must(template.New("order").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
<h2 style="color: #c9a962;">New Order Received</h2>
<p><strong>Order:</strong> #{{.Order.OrderNumber}}</p>
<p><strong>Date:</strong> {{.Order.CreatedAt.Format "02 Jan 2006 15:04 MST"}}</p>
<p><strong>Status:</strong> {{.Order.Status}}</p>
<h3>Customer</h3>
<p>{{.Customer.Name}}<br>{{.Customer.Email}}<br>{{.Customer.Phone}}<br>{{.Customer.Address}}</p>
<h3>Items</h3>
<ul>
{{- range .Order.Items}}
<li>{{.PerfumeName}} ({{.Size}}) x {{.Quantity}} = {{.TotalPrice.StringFixed 2}}</li>
{{- end}}
</ul>
<p><strong>Total: {{.Order.TotalAmount.StringFixed 2}}</strong></p>
{{- if .AdminURL}}
<p><a href="{{.AdminURL}}/orders/{{.Order.ID}}">View order</a></p>
{{- end}}
</div>`))

var verifyTmpl = template.Must(template.New("verify").Parse(`<div style="font-family: Arial, sans-serif; max-width: 500px; margin: 0 auto; padding: 20px;">
<h2 style="color: #c9a962;">Welcome to Clefeel, {{.Name}}!</h2>
<p>Please verify your email address:</p>
<p><a href="{{.URL}}">Verify Email</a></p>
<p style="color: #999; font-size: 12px;">Or copy this link: {{.URL}}</p>
</div>`))

// SMTPConfig holds mail relay settings
type SMTPConfig struct {
	Host        string
	Port        string
	Username    string
	Password    string
	From        string
	AdminEmail  string
	AdminURL    string
	FrontendURL string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer sends HTML mail through an SMTP relay
type Mailer struct {
	cfg  SMTPConfig
	auth smtp.Auth
	send sendFunc
}

// NewMailer creates a Mailer. Authentication is skipped when no username is set.
func NewMailer(cfg SMTPConfig) *Mailer {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &Mailer{cfg: cfg, auth: auth, send: smtp.SendMail}
}

func (m *Mailer) OrderPlaced(ctx context.Context, ev OrderPlaced) error {
	var body bytes.Buffer
	data := struct {
		OrderPlaced
		AdminURL string
	}{ev, strings.TrimRight(m.cfg.AdminURL, "/")}
	if err := orderTmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to render order mail: %w", err)
	}
	subject := "New Order Received - #" + ev.Order.OrderNumber
	return m.deliver(ctx, m.cfg.AdminEmail, subject, body.Bytes())
}

func (m *Mailer) VerificationRequested(ctx context.Context, v Verification) error {
	var body bytes.Buffer
	data := struct {
		Name string
		URL  string
	}{v.Name, strings.TrimRight(m.cfg.FrontendURL, "/") + "/verify-email.html?token=" + v.Token}
	if err := verifyTmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to render verification mail: %w", err)
	}
	return m.deliver(ctx, v.Email, "Verify Your Email - Clefeel", body.Bytes())
}

func (m *Mailer) deliver(ctx context.Context, to, subject string, html []byte) error {
	if to == "" {
		return fmt.Errorf("no recipient for %q", subject)
	}
	msg := buildMessage(m.cfg.From, to, subject, html, time.Now())

	// smtp.SendMail has no context support; run it aside so a slow relay
	// can't outlive the caller's deadline
	done := make(chan error, 1)
	go func() {
		done <- m.send(net.JoinHostPort(m.cfg.Host, m.cfg.Port), m.auth, m.cfg.From, []string{to}, msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send mail to %s: %w", to, err)
		}
		slog.InfoContext(ctx, "mail sent", "to", to, "subject", subject)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to send mail to %s: %w", to, ctx.Err())
	}
}

func buildMessage(from, to, subject string, html []byte, date time.Time) []byte {
	var b bytes.Buffer
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("Date: " + date.Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.Write(html)
	b.WriteString("\r\n")
	return b.Bytes()
}
