package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	apperrors "cardshop/internal/errors"
	"cardshop/internal/mailer"
)

// ContactInput is a message from the public contact form.
type ContactInput struct {
	Name    string `validate:"required,max=255"`
	Email   string `validate:"required,email,max=255"`
	Subject string `validate:"required,max=255"`
	Message string `validate:"required,max=10000"`
}

// ContactService forwards contact-form messages to the shop inbox.
type ContactService interface {
	Send(ctx context.Context, in ContactInput) error
}

type contactService struct {
	sender mailer.Sender
	inbox  string
	logger *zap.Logger
}

// NewContactService creates a contact service delivering to inbox.
func NewContactService(sender mailer.Sender, inbox string, logger *zap.Logger) ContactService {
	return &contactService{sender: sender, inbox: inbox, logger: logger}
}

func (s *contactService) Send(ctx context.Context, in ContactInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Subject = strings.TrimSpace(in.Subject)
	in.Message = strings.TrimSpace(in.Message)
	// header injection
	if strings.ContainsAny(in.Subject+in.Name, "\r\n") {
		return invalid("subject and name must be a single line")
	}
	if err := validateStruct(in); err != nil {
		return err
	}

	err := s.sender.Send(ctx, mailer.Message{
		To:      s.inbox,
		ReplyTo: in.Email,
		Subject: "[Contact] " + in.Subject,
		Body:    fmt.Sprintf("From: %s <%s>\n\n%s\n", in.Name, in.Email, in.Message),
	})
	if err != nil {
		s.logger.Error("contact mail failed", zap.Error(err))
		return fmt.Errorf("%w: mail delivery failed", apperrors.ErrUpstream)
	}
	return nil
}
