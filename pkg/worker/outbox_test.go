package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/medboard/bedside-api/internal/model"
	"github.com/medboard/bedside-api/pkg/messaging"
)

type outboxRepoStub struct {
	pending   []*model.OutboxEvent
	processed []uuid.UUID
	failed    map[uuid.UUID]string
}

func newOutboxRepoStub(events ...*model.OutboxEvent) *outboxRepoStub {
	return &outboxRepoStub{pending: events, failed: make(map[uuid.UUID]string)}
}

func (r *outboxRepoStub) Create(_ context.Context, _ *model.OutboxEvent) error { return nil }

func (r *outboxRepoStub) FetchPending(_ context.Context, limit int) ([]*model.OutboxEvent, error) {
	if len(r.pending) > limit {
		return r.pending[:limit], nil
	}
	return r.pending, nil
}

func (r *outboxRepoStub) MarkProcessed(_ context.Context, id uuid.UUID) error {
	r.processed = append(r.processed, id)
	return nil
}

func (r *outboxRepoStub) MarkFailed(_ context.Context, id uuid.UUID, errMsg string) error {
	r.failed[id] = errMsg
	return nil
}

type published struct {
	channel string
	message interface{}
}

type brokerStub struct {
	published []published
	err       error
}

func (b *brokerStub) Publish(_ context.Context, channel string, message interface{}) error {
	if b.err != nil {
		return b.err
	}
	b.published = append(b.published, published{channel, message})
	return nil
}

func (b *brokerStub) Subscribe(_ context.Context, _ string) (<-chan []byte, error) {
	return nil, nil
}

func (b *brokerStub) Close() error { return nil }

func pendingEvent(eventType string) *model.OutboxEvent {
	return &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   []byte(`{"id":"4"}`),
		Status:    string(model.OutboxStatusPending),
	}
}

func TestProcessBatch_RelaysAndMarksProcessed(t *testing.T) {
	updated := pendingEvent("bed.updated")
	cleared := pendingEvent("bed.cleared")
	repo := newOutboxRepoStub(updated, cleared)
	broker := &brokerStub{}
	p := NewOutboxProcessor(repo, broker, zap.NewNop(), 50, time.Second)

	require.NoError(t, p.processBatch(context.Background()))

	require.Len(t, broker.published, 2)
	assert.Equal(t, messaging.ChannelBedUpdated, broker.published[0].channel)
	assert.Equal(t, messaging.ChannelBedCleared, broker.published[1].channel)

	msg, ok := broker.published[0].message.(messaging.Message)
	require.True(t, ok)
	assert.Equal(t, "bed.updated", msg.Type)

	assert.Equal(t, []uuid.UUID{updated.ID, cleared.ID}, repo.processed)
	assert.Empty(t, repo.failed)
}

func TestProcessBatch_BrokerFailureMarksFailed(t *testing.T) {
	event := pendingEvent("bed.updated")
	repo := newOutboxRepoStub(event)
	p := NewOutboxProcessor(repo, &brokerStub{err: errors.New("redis down")}, zap.NewNop(), 50, time.Second)

	require.NoError(t, p.processBatch(context.Background()))

	assert.Empty(t, repo.processed)
	assert.Equal(t, "redis down", repo.failed[event.ID])
}

func TestProcessBatch_MalformedPayloadMarksFailed(t *testing.T) {
	event := pendingEvent("bed.updated")
	event.Payload = []byte(`{not json`)
	repo := newOutboxRepoStub(event)
	broker := &brokerStub{}
	p := NewOutboxProcessor(repo, broker, zap.NewNop(), 50, time.Second)

	require.NoError(t, p.processBatch(context.Background()))

	assert.Empty(t, broker.published)
	assert.Contains(t, repo.failed, event.ID)
}

func TestProcessBatch_RespectsBatchSize(t *testing.T) {
	repo := newOutboxRepoStub(pendingEvent("bed.updated"), pendingEvent("bed.updated"), pendingEvent("bed.updated"))
	broker := &brokerStub{}
	p := NewOutboxProcessor(repo, broker, zap.NewNop(), 2, time.Second)

	require.NoError(t, p.processBatch(context.Background()))
	assert.Len(t, broker.published, 2)
}

func TestNewOutboxProcessor_Defaults(t *testing.T) {
	p := NewOutboxProcessor(newOutboxRepoStub(), &brokerStub{}, zap.NewNop(), 0, 0)
	assert.Equal(t, 50, p.batchSize)
	assert.Equal(t, 2*time.Second, p.interval)
}
