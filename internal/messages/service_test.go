package messages

import (
	"context"
	"io"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farmgatehq/farmgate-backend/internal/repo"
	"github.com/farmgatehq/farmgate-backend/pkg/auth"
	"github.com/farmgatehq/farmgate-backend/pkg/db/models"
	pkgerrors "github.com/farmgatehq/farmgate-backend/pkg/errors"
	"github.com/farmgatehq/farmgate-backend/pkg/logger"
)

type stubMessageStore struct {
	rows        map[uuid.UUID]*models.Message
	updateCalls int
}

func (s *stubMessageStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	row, ok := s.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return row, nil
}

func (s *stubMessageStore) FindConversation(ctx context.Context, a, b uuid.UUID, page repo.Page) ([]models.Message, error) {
	var out []models.Message
	for _, row := range s.rows {
		if (row.SenderID == a && row.RecipientID == b) || (row.SenderID == b && row.RecipientID == a) {
			out = append(out, *row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *stubMessageStore) CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	var count int64
	for _, row := range s.rows {
		if row.RecipientID == recipientID && row.ReadAt == nil {
			count++
		}
	}
	return count, nil
}

func (s *stubMessageStore) Create(ctx context.Context, record *models.Message) (*models.Message, error) {
	if s.rows == nil {
		s.rows = map[uuid.UUID]*models.Message{}
	}
	record.CreatedAt = time.Now()
	s.rows[record.ID] = record
	return record, nil
}

func (s *stubMessageStore) Update(ctx context.Context, id uuid.UUID, patch map[string]any) (*models.Message, error) {
	row, ok := s.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	s.updateCalls++
	if at, ok := patch["read_at"].(*time.Time); ok {
		row.ReadAt = at
	}
	return row, nil
}

func testService(t *testing.T) (Service, *stubMessageStore) {
	t.Helper()
	store := &stubMessageStore{rows: map[uuid.UUID]*models.Message{}}
	svc, err := NewService(store, logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, store
}

func TestSendRejectsSelfMessage(t *testing.T) {
	svc, store := testService(t)
	caller := auth.Principal{ProfileID: uuid.New()}

	_, err := svc.Send(context.Background(), caller, SendMessageInput{
		RecipientID: caller.ProfileID,
		Body:        "hello me",
	})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(store.rows) != 0 {
		t.Fatalf("nothing must be stored, got %d rows", len(store.rows))
	}
}

func TestConversationIncludesBothDirections(t *testing.T) {
	svc, _ := testService(t)

	farmer := auth.Principal{ProfileID: uuid.New()}
	buyer := auth.Principal{ProfileID: uuid.New()}

	if _, err := svc.Send(context.Background(), farmer, SendMessageInput{RecipientID: buyer.ProfileID, Body: "crates ready friday"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := svc.Send(context.Background(), buyer, SendMessageInput{RecipientID: farmer.ProfileID, Body: "friday works"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	// unrelated thread must not leak in
	if _, err := svc.Send(context.Background(), farmer, SendMessageInput{RecipientID: uuid.New(), Body: "other thread"}); err != nil {
		t.Fatalf("send: %v", err)
	}

	thread, err := svc.Conversation(context.Background(), farmer, buyer.ProfileID, repo.Page{})
	if err != nil {
		t.Fatalf("conversation: %v", err)
	}
	if len(thread) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(thread))
	}
	if thread[0].Body != "crates ready friday" {
		t.Fatalf("expected oldest first, got %q", thread[0].Body)
	}
}

func TestMarkReadOnlyByRecipient(t *testing.T) {
	svc, store := testService(t)

	sender := auth.Principal{ProfileID: uuid.New()}
	recipient := auth.Principal{ProfileID: uuid.New()}

	sent, err := svc.Send(context.Background(), sender, SendMessageInput{RecipientID: recipient.ProfileID, Body: "ping"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if _, err := svc.MarkRead(context.Background(), sender, sent.ID); pkgerrors.CodeOf(err) != pkgerrors.CodePermissionDenied {
		t.Fatalf("sender must not mark read, got %v", err)
	}
	if store.updateCalls != 0 {
		t.Fatalf("no update expected, got %d", store.updateCalls)
	}

	marked, err := svc.MarkRead(context.Background(), recipient, sent.ID)
	if err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if marked.ReadAt == nil {
		t.Fatal("expected read_at to be stamped")
	}

	// second mark keeps the original timestamp
	first := *marked.ReadAt
	again, err := svc.MarkRead(context.Background(), recipient, sent.ID)
	if err != nil {
		t.Fatalf("second mark: %v", err)
	}
	if !again.ReadAt.Equal(first) {
		t.Fatal("read_at must not move on repeat marks")
	}
	if store.updateCalls != 1 {
		t.Fatalf("expected exactly one update, got %d", store.updateCalls)
	}
}

func TestUnreadCount(t *testing.T) {
	svc, _ := testService(t)

	sender := auth.Principal{ProfileID: uuid.New()}
	recipient := auth.Principal{ProfileID: uuid.New()}

	var lastID uuid.UUID
	for i := 0; i < 3; i++ {
		sent, err := svc.Send(context.Background(), sender, SendMessageInput{RecipientID: recipient.ProfileID, Body: "msg"})
		if err != nil {
			t.Fatalf("send: %v", err)
		}
		lastID = sent.ID
	}

	count, err := svc.UnreadCount(context.Background(), recipient)
	if err != nil {
		t.Fatalf("unread: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 unread, got %d", count)
	}

	if _, err := svc.MarkRead(context.Background(), recipient, lastID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	count, err = svc.UnreadCount(context.Background(), recipient)
	if err != nil {
		t.Fatalf("unread: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 unread, got %d", count)
	}
}
