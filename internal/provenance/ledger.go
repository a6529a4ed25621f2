package provenance

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TraceEvent is one entry in a listing's provenance trail.
type TraceEvent struct {
	TxHash     string    `json:"tx_hash"`
	EventType  string    `json:"event_type"`
	Actor      string    `json:"actor"`
	Detail     string    `json:"detail"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Ledger is the external provenance chain. Implementations submit events and
// return the transaction hash that anchors them.
type Ledger interface {
	RegisterProduct(ctx context.Context, listingID uuid.UUID, actor, detail string) (txHash string, err error)
	RecordTransfer(ctx context.Context, listingID uuid.UUID, from, to string) (txHash string, err error)
	GetTrace(ctx context.Context, listingID uuid.UUID) ([]TraceEvent, error)
}

// DemoLedger is an in-memory stand-in for a real chain integration. Hashes
// are deterministic digests of the event content, not real transactions.
// Do not use outside development and tests.
type DemoLedger struct {
	mu     sync.Mutex
	events map[uuid.UUID][]TraceEvent
	now    func() time.Time
}

// NewDemoLedger builds an empty in-memory ledger.
func NewDemoLedger() *DemoLedger {
	return &DemoLedger{events: map[uuid.UUID][]TraceEvent{}, now: time.Now}
}

func (l *DemoLedger) RegisterProduct(ctx context.Context, listingID uuid.UUID, actor, detail string) (string, error) {
	return l.append(listingID, EventRegistered, actor, detail)
}

func (l *DemoLedger) RecordTransfer(ctx context.Context, listingID uuid.UUID, from, to string) (string, error) {
	return l.append(listingID, EventTransferred, from, fmt.Sprintf("to %s", to))
}

func (l *DemoLedger) GetTrace(ctx context.Context, listingID uuid.UUID) ([]TraceEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	trail := l.events[listingID]
	out := make([]TraceEvent, len(trail))
	copy(out, trail)
	sort.Slice(out, func(i, j int) bool { return out[i].RecordedAt.Before(out[j].RecordedAt) })
	return out, nil
}

func (l *DemoLedger) append(listingID uuid.UUID, eventType, actor, detail string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	at := l.now()
	seq := len(l.events[listingID])
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s|%s|%d", listingID, eventType, actor, detail, seq)))
	hash := hex.EncodeToString(sum[:])

	l.events[listingID] = append(l.events[listingID], TraceEvent{
		TxHash:     hash,
		EventType:  eventType,
		Actor:      actor,
		Detail:     detail,
		RecordedAt: at,
	})
	return hash, nil
}
