package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "gopkg.in/mail.v2"

	"github.com/hiresignal/scout-cli/internal/model"
)

func newCaptureEmail(cfg EmailConfig) (*Email, *[]*gomail.Message) {
	e := NewEmail(cfg)
	var sent []*gomail.Message
	e.send = func(m *gomail.Message) error {
		sent = append(sent, m)
		return nil
	}
	return e, &sent
}

func TestEmail_SendDigest(t *testing.T) {
	e, sent := newCaptureEmail(EmailConfig{
		From: "scout@example.com",
		To:   []string{"jobs@example.com"},
	})

	leads := []model.Lead{highLead(), highLead()}
	require.NoError(t, e.SendDigest(context.Background(), leads))

	require.Len(t, *sent, 1)
	m := (*sent)[0]
	assert.Equal(t, []string{"scout@example.com"}, m.GetHeader("From"))
	assert.Equal(t, []string{"jobs@example.com"}, m.GetHeader("To"))
	assert.Equal(t, []string{"Job Digest: 2 New Tech Roles"}, m.GetHeader("Subject"))
}

func TestEmail_SendDigest_Empty(t *testing.T) {
	e, sent := newCaptureEmail(EmailConfig{})
	require.NoError(t, e.SendDigest(context.Background(), nil))
	assert.Empty(t, *sent)
}

func TestEmail_NotifyLead_OffByDefault(t *testing.T) {
	e, sent := newCaptureEmail(EmailConfig{})
	require.NoError(t, e.NotifyLead(context.Background(), highLead()))
	assert.Empty(t, *sent)
}

func TestEmail_NotifyLead_Instant(t *testing.T) {
	e, sent := newCaptureEmail(EmailConfig{SendInstant: true})
	require.NoError(t, e.NotifyLead(context.Background(), highLead()))

	require.Len(t, *sent, 1)
	assert.Equal(t, []string{"Job Alert: Backend Engineer at Acme"}, (*sent)[0].GetHeader("Subject"))
}

func TestDigestEmail_Body(t *testing.T) {
	lead := highLead()
	lead.Category = model.CategoryBackend

	subject, body := digestEmail([]model.Lead{lead})
	assert.Equal(t, "Job Digest: 1 New Tech Roles", subject)
	assert.Contains(t, body, "<h2>New Tech Jobs Found</h2>")
	assert.Contains(t, body, `<a href="https://boards.example.com/acme/42">Backend Engineer</a>`)
	assert.Contains(t, body, "at Acme")
	assert.Contains(t, body, "Match: 92% | Remote, USA | backend")
}

func TestLeadItemHTML_EscapesFields(t *testing.T) {
	lead := highLead()
	lead.Title = "C++ & Go <Engineer>"
	lead.Company = "Dev & Co"

	item := leadItemHTML(lead)
	assert.Contains(t, item, "C++ &amp; Go &lt;Engineer&gt;")
	assert.Contains(t, item, "at Dev &amp; Co")
	assert.NotContains(t, item, "<Engineer>")
}

func TestEmail_Name(t *testing.T) {
	assert.Equal(t, "email", NewEmail(EmailConfig{}).Name())
}
