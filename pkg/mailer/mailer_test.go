package mailer

import (
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendViaSMTPBuildsMessage(t *testing.T) {
	m := New(Config{Host: "mailpit", Port: "1025", From: "noreply@homenest.local", FromName: "HomeNest"})
	assert.Equal(t, "smtp", m.Transport())

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	m.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		assert.Nil(t, a)
		return nil
	}

	require.NoError(t, m.Send("a@b.com", "Hello", "<p>hi</p>", true))
	assert.Equal(t, "mailpit:1025", gotAddr)
	assert.Equal(t, "noreply@homenest.local", gotFrom)
	assert.Equal(t, []string{"a@b.com"}, gotTo)

	msg := string(gotMsg)
	assert.True(t, strings.HasPrefix(msg, "From: HomeNest <noreply@homenest.local>\r\n"))
	assert.Contains(t, msg, "Subject: Hello\r\n")
	assert.Contains(t, msg, "Content-Type: text/html")
	assert.True(t, strings.HasSuffix(msg, "\r\n\r\n<p>hi</p>"))
}

func TestBuildMessageEncodesNonASCIIHeaders(t *testing.T) {
	m := New(Config{From: "noreply@homenest.local", FromName: "Nhà Mới"})

	msg := string(m.buildMessage("a@b.com", "Lịch xem nhà đã xác nhận", "body", false))

	assert.Contains(t, msg, "From: =?utf-8?q?Nh=C3=A0_M=E1=BB=9Bi?= <noreply@homenest.local>\r\n")
	assert.Contains(t, msg, "Subject: =?utf-8?q?")
	assert.NotContains(t, msg, "Lịch")
}

func TestSendWrapsTransportError(t *testing.T) {
	m := New(Config{Host: "mailpit", Port: "1025", Username: "u", Password: "p"})
	m.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("dial tcp: refused")
	}

	err := m.Send("a@b.com", "s", "plain", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refused")
}

func TestSendGridSelectedWithAPIKey(t *testing.T) {
	assert.Equal(t, "sendgrid", New(Config{SendGridAPIKey: "SG.test"}).Transport())
}

func TestRenderOTP(t *testing.T) {
	subject, body, err := RenderOTP(OTPKindVerification, "123456", 5)
	require.NoError(t, err)
	assert.Contains(t, subject, "verification")
	assert.Contains(t, body, "123456")
	assert.Contains(t, body, "5 minutes")

	subject, body, err = RenderOTP(OTPKindPasswordReset, "654321", 10)
	require.NoError(t, err)
	assert.Contains(t, subject, "Reset")
	assert.Contains(t, body, "Password Reset")
}

func TestRenderAppointmentEscapesInput(t *testing.T) {
	body, err := RenderAppointment(AppointmentEmail{
		Heading:       "Viewing booked",
		PropertyTitle: "<script>x</script>",
		ScheduledAt:   time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "Mon, 10 Mar 2025 09:00 UTC")
}
