package messages

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farmgatehq/farmgate-backend/internal/repo"
	"github.com/farmgatehq/farmgate-backend/pkg/db/models"
)

// Repository persists profile-to-profile messages.
type Repository struct {
	*repo.Base[models.Message]
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase[models.Message](db)}
}

// FindConversation returns all messages exchanged between two profiles,
// oldest first, regardless of direction.
func (r *Repository) FindConversation(ctx context.Context, a, b uuid.UUID, page repo.Page) ([]models.Message, error) {
	var rows []models.Message
	q := r.DB(ctx).
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)", a, b, b, a).
		Order("created_at ASC")
	if page.Limit > 0 {
		q = q.Limit(page.Limit).Offset(page.Number * page.Limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CountUnread counts messages addressed to the profile that have no read
// timestamp yet.
func (r *Repository) CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	return r.Count(ctx,
		repo.Eq("recipient_id", recipientID),
		repo.IsNull("read_at"),
	)
}
