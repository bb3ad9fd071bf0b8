package notify

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	gomail "gopkg.in/mail.v2"

	"github.com/hiresignal/scout-cli/internal/model"
)

// EmailConfig holds SMTP settings for the email sink.
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
	// SendInstant enables per-lead alert emails in addition to digests.
	SendInstant bool
}

// Email sends lead digests over SMTP.
type Email struct {
	cfg  EmailConfig
	send func(*gomail.Message) error
}

func NewEmail(cfg EmailConfig) *Email {
	e := &Email{cfg: cfg}
	e.send = func(m *gomail.Message) error {
		d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
		d.Timeout = 10 * time.Second
		return d.DialAndSend(m)
	}
	return e
}

func (e *Email) Name() string { return "email" }

func (e *Email) NotifyLead(ctx context.Context, lead model.Lead) error {
	if !e.cfg.SendInstant {
		return nil
	}
	subject := fmt.Sprintf("Job Alert: %s at %s", lead.Title, lead.Company)
	body := "<h2>New High Match</h2><ul>" + leadItemHTML(lead) + "</ul>"
	return e.sendHTML(subject, body)
}

func (e *Email) SendDigest(ctx context.Context, leads []model.Lead) error {
	if len(leads) == 0 {
		return nil
	}
	subject, body := digestEmail(leads)
	return e.sendHTML(subject, body)
}

func digestEmail(leads []model.Lead) (subject, body string) {
	subject = fmt.Sprintf("Job Digest: %d New Tech Roles", len(leads))

	var b strings.Builder
	b.WriteString("<h2>New Tech Jobs Found</h2><ul>")
	for i := range leads {
		b.WriteString(leadItemHTML(leads[i]))
	}
	b.WriteString("</ul>")
	return subject, b.String()
}

func leadItemHTML(lead model.Lead) string {
	return fmt.Sprintf(
		`<li><strong><a href="%s">%s</a></strong> at %s<br/>Match: %d%% | %s | %s</li>`,
		lead.Link,
		html.EscapeString(lead.Title),
		html.EscapeString(lead.Company),
		scorePercent(lead.Score),
		html.EscapeString(lead.Location),
		lead.Category,
	)
}

func (e *Email) sendHTML(subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", e.cfg.From)
	m.SetHeader("To", e.cfg.To...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)
	return eris.Wrap(e.send(m), "notify: send email")
}
