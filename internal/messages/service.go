package messages

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/farmgatehq/farmgate-backend/internal/repo"
	"github.com/farmgatehq/farmgate-backend/pkg/auth"
	"github.com/farmgatehq/farmgate-backend/pkg/db"
	"github.com/farmgatehq/farmgate-backend/pkg/db/models"
	pkgerrors "github.com/farmgatehq/farmgate-backend/pkg/errors"
	"github.com/farmgatehq/farmgate-backend/pkg/logger"
)

const maxBodyLength = 4000

// Service exposes direct messaging between profiles.
type Service interface {
	Send(ctx context.Context, caller auth.Principal, input SendMessageInput) (*models.Message, error)
	Conversation(ctx context.Context, caller auth.Principal, otherID uuid.UUID, page repo.Page) ([]models.Message, error)
	MarkRead(ctx context.Context, caller auth.Principal, id uuid.UUID) (*models.Message, error)
	UnreadCount(ctx context.Context, caller auth.Principal) (int64, error)
}

// SendMessageInput holds the validated payload for a new message.
type SendMessageInput struct {
	RecipientID uuid.UUID
	OrderID     *uuid.UUID
	Body        string
}

type messageStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Message, error)
	FindConversation(ctx context.Context, a, b uuid.UUID, page repo.Page) ([]models.Message, error)
	CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error)
	Create(ctx context.Context, record *models.Message) (*models.Message, error)
	Update(ctx context.Context, id uuid.UUID, patch map[string]any) (*models.Message, error)
}

type service struct {
	repo messageStore
	logg *logger.Logger
	now  func() time.Time
}

// NewService constructs the messaging service.
func NewService(repo messageStore, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("message repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg, now: time.Now}, nil
}

func (s *service) Send(ctx context.Context, caller auth.Principal, input SendMessageInput) (*models.Message, error) {
	if input.RecipientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipient_id is required")
	}
	if input.RecipientID == caller.ProfileID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot message yourself")
	}
	body := strings.TrimSpace(input.Body)
	if body == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "body is required")
	}
	if len(body) > maxBodyLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "body too long").
			WithDetails(map[string]any{"max_length": maxBodyLength})
	}

	message := &models.Message{
		ID:          uuid.New(),
		SenderID:    caller.ProfileID,
		RecipientID: input.RecipientID,
		OrderID:     input.OrderID,
		Body:        body,
	}

	created, err := s.repo.Create(ctx, message)
	if err != nil {
		return nil, db.Wrap(err, "insert message")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"message_id": created.ID, "recipient_id": created.RecipientID})
	s.logg.Info(ctx, "message sent")
	return created, nil
}

// Conversation returns the thread between the caller and another profile.
// Only a participant may read it, which holds by construction here.
func (s *service) Conversation(ctx context.Context, caller auth.Principal, otherID uuid.UUID, page repo.Page) ([]models.Message, error) {
	if otherID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "profile_id is required")
	}
	rows, err := s.repo.FindConversation(ctx, caller.ProfileID, otherID, page)
	if err != nil {
		return nil, db.Wrap(err, "load conversation")
	}
	return rows, nil
}

// MarkRead stamps read_at. Only the recipient may mark, and marking twice is
// a no-op that keeps the original timestamp.
func (s *service) MarkRead(ctx context.Context, caller auth.Principal, id uuid.UUID) (*models.Message, error) {
	message, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, db.Wrap(err, "load message")
	}
	if err := auth.RequireOwner(caller, message.RecipientID); err != nil {
		return nil, err
	}
	if message.ReadAt != nil {
		return message, nil
	}

	now := s.now()
	updated, err := s.repo.Update(ctx, id, map[string]any{"read_at": &now})
	if err != nil {
		return nil, db.Wrap(err, "mark message read")
	}
	return updated, nil
}

func (s *service) UnreadCount(ctx context.Context, caller auth.Principal) (int64, error) {
	count, err := s.repo.CountUnread(ctx, caller.ProfileID)
	if err != nil {
		return 0, db.Wrap(err, "count unread messages")
	}
	return count, nil
}
