package email

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrsaas/internal/platform/config"
)

func TestBuildMessageStripsHeaderInjection(t *testing.T) {
	msg := string(buildMessage("hr@acme.test", "ann@acme.test", "Payslip\r\nBcc: evil@x.test", "line one\nline two"))

	assert.Contains(t, msg, "Subject: Payslip  Bcc: evil@x.test\r\n")
	assert.NotContains(t, msg, "\r\nBcc:")
	assert.True(t, strings.HasSuffix(msg, "\r\n\r\nline one\r\nline two"))
}

func TestNewFallsBackToNoop(t *testing.T) {
	mailer := New(config.MailConfig{Enabled: true})
	_, ok := mailer.(noopMailer)
	require.True(t, ok)
	assert.NoError(t, mailer.Send(context.Background(), "a@b.test", "c@d.test", "s", "b"))

	_, ok = New(config.MailConfig{Enabled: true, Host: "smtp.example.com", Port: 25}).(*smtpMailer)
	assert.True(t, ok)
}
