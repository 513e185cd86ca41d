package mailer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"

	"cardshop/internal/config"
)

func validSMTPConfig() *config.SMTPConfig {
	return &config.SMTPConfig{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "testuser",
		Password: "testpass",
		From:     "shop@example.com",
		FromName: "Card Shop",
		TLS:      true,
	}
}

func TestNewSMTPSender(t *testing.T) {
	sender, err := NewSMTPSender(validSMTPConfig())
	require.NoError(t, err)
	assert.NotNil(t, sender)
}

func TestNewSMTPSender_MissingHost(t *testing.T) {
	cfg := validSMTPConfig()
	cfg.Host = ""

	_, err := NewSMTPSender(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SMTP host is required")
}

func TestNewSMTPSender_MissingFrom(t *testing.T) {
	cfg := validSMTPConfig()
	cfg.From = ""

	_, err := NewSMTPSender(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SMTP from address is required")
}

func TestBuild_SetsReplyTo(t *testing.T) {
	sender, err := NewSMTPSender(validSMTPConfig())
	require.NoError(t, err)

	msg, err := sender.Build(Message{
		To:      "inbox@example.com",
		ReplyTo: "ash@example.com",
		Subject: "Question",
		Body:    "Do you buy Charizard?",
	})
	require.NoError(t, err)

	assert.Contains(t, strings.Join(msg.GetAddrHeaderString(mail.HeaderReplyTo), ","), "ash@example.com")
	to := msg.GetToString()
	require.Len(t, to, 1)
	assert.Contains(t, to[0], "inbox@example.com")
}

func TestBuild_InvalidRecipient(t *testing.T) {
	sender, err := NewSMTPSender(validSMTPConfig())
	require.NoError(t, err)

	_, err = sender.Build(Message{To: "not-an-address", Subject: "x", Body: "y"})
	assert.Error(t, err)
}
