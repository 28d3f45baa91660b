package services

import (
	"bytes"
	"context"
	"errors"
	"testing"

	log "github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type fakeDialer struct {
	sent []*gomail.Message
	err  error
}

func (d *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, m...)
	return nil
}

func TestSMTPMailer_Send(t *testing.T) {
	dialer := &fakeDialer{}
	m := &SMTPMailer{from: "shop@example.com", dialer: dialer}

	err := m.Send(context.Background(), Mail{To: "a@example.com", Subject: "Password Reset OTP", Text: "code 123456", HTML: "<b>123456</b>"})
	require.NoError(t, err)
	require.Len(t, dialer.sent, 1)

	msg := dialer.sent[0]
	assert.Equal(t, []string{"a@example.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"shop@example.com"}, msg.GetHeader("From"))

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "code 123456")
	assert.Contains(t, buf.String(), "text/html")
}

func TestSMTPMailer_SendError(t *testing.T) {
	m := &SMTPMailer{from: "shop@example.com", dialer: &fakeDialer{err: errors.New("dial tcp: refused")}}

	err := m.Send(context.Background(), Mail{To: "a@example.com"})

	assert.ErrorContains(t, err, "a@example.com")
}

func TestSMTPMailer_UnconfiguredWarns(t *testing.T) {
	hook := logtest.NewGlobal()
	defer hook.Reset()
	m := NewSMTPMailer(SMTPConfig{})

	assert.NoError(t, m.Send(context.Background(), Mail{To: "a@example.com", Subject: "Password Reset OTP"}))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, log.WarnLevel, entry.Level)
	assert.Equal(t, "a@example.com", entry.Data["to"])
}

func TestSMTPMailer_CancelledContext(t *testing.T) {
	dialer := &fakeDialer{}
	m := &SMTPMailer{dialer: dialer}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, m.Send(ctx, Mail{To: "a@example.com"}), context.Canceled)
	assert.Empty(t, dialer.sent)
}
