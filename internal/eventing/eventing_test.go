package eventing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"condo-billing/internal/eventing"
	"condo-billing/internal/eventing/infrastructure/memory"
)

type noticePosted struct {
	NoticeID string
	Title    string
}

func (e noticePosted) Aggregate() (string, string) { return "notice", e.NoticeID }

type failingOutbox struct{}

func (failingOutbox) Insert(context.Context, eventing.Envelope) (string, error) {
	return "", errors.New("outbox down")
}

func TestPublisher_DeliversOnceThroughOutbox(t *testing.T) {
	bus := eventing.NewInMemoryBus()
	registry := eventing.NewRegistry()
	registry.Register(noticePosted{})
	outbox := memory.NewOutboxStore()
	dispatcher := eventing.NewDispatcher(bus, outbox, registry, nil)
	publisher := eventing.NewPublisher(outbox, dispatcher, "tenant-a", nil)

	var received []noticePosted
	eventing.Subscribe[noticePosted](bus, "notices", func(_ context.Context, event noticePosted) error {
		received = append(received, event)
		return nil
	}, memory.NewProcessedStore())

	ctx := eventing.WithCorrelationID(context.Background(), "req-1")
	ctx = eventing.WithBuildingID(ctx, "b-1")
	require.NoError(t, publisher.Publish(ctx, noticePosted{NoticeID: "n-1", Title: "water"}))
	require.NoError(t, dispatcher.Dispatch(ctx, 10))

	require.Len(t, received, 1)
	assert.Equal(t, "water", received[0].Title)

	envelopes := outbox.Envelopes()
	require.Len(t, envelopes, 1)
	assert.Equal(t, "tenant-a", envelopes[0].TenantID)
	assert.Equal(t, "b-1", envelopes[0].BuildingID)
	assert.Equal(t, "notice", envelopes[0].AggregateType)
	assert.Equal(t, "n-1", envelopes[0].AggregateID)
	assert.Equal(t, "req-1", envelopes[0].CorrelationID)
	assert.Equal(t, 1, envelopes[0].SchemaVersion)
}

func TestPublisher_StageUsesGivenWriterWithoutRelay(t *testing.T) {
	bus := eventing.NewInMemoryBus()
	outbox := memory.NewOutboxStore()
	staged := memory.NewOutboxStore()
	dispatcher := eventing.NewDispatcher(bus, outbox, eventing.NewRegistry(noticePosted{}), nil)
	publisher := eventing.NewPublisher(outbox, dispatcher, "tenant-a", nil)

	calls := 0
	eventing.Subscribe[noticePosted](bus, "notices", func(context.Context, noticePosted) error {
		calls++
		return nil
	}, nil)

	env, err := publisher.Stage(eventing.WithTenantID(context.Background(), "tenant-b"), staged, noticePosted{NoticeID: "n-2"})
	require.NoError(t, err)
	assert.Equal(t, "tenant-b", env.TenantID)
	assert.Len(t, staged.Envelopes(), 1)
	assert.Empty(t, outbox.Envelopes())
	assert.Zero(t, calls)

	_, err = publisher.Stage(context.Background(), failingOutbox{}, noticePosted{NoticeID: "n-3"})
	assert.EqualError(t, err, "outbox down")
}

func TestOnce_SkipsProcessedEvents(t *testing.T) {
	store := memory.NewProcessedStore()
	calls := 0
	handler := eventing.Once("consumer-a", func(context.Context, any) error {
		calls++
		return nil
	}, store)

	ctx := eventing.WithEnvelope(context.Background(), eventing.Envelope{EventID: "evt-1"})
	require.NoError(t, handler(ctx, noticePosted{}))
	require.NoError(t, handler(ctx, noticePosted{}))
	assert.Equal(t, 1, calls)
}

func TestOnce_RetriesAfterHandlerFailure(t *testing.T) {
	store := memory.NewProcessedStore()
	calls := 0
	handler := eventing.Once("consumer-a", func(context.Context, any) error {
		calls++
		if calls == 1 {
			return errors.New("busy")
		}
		return nil
	}, store)

	ctx := eventing.WithEnvelope(context.Background(), eventing.Envelope{EventID: "evt-2"})
	require.Error(t, handler(ctx, noticePosted{}))
	require.NoError(t, handler(ctx, noticePosted{}))
	require.NoError(t, handler(ctx, noticePosted{}))
	assert.Equal(t, 2, calls)
}

func TestSubscribe_AcceptsPointerPayloads(t *testing.T) {
	bus := eventing.NewInMemoryBus()
	var titles []string
	eventing.Subscribe[noticePosted](bus, "notices", func(_ context.Context, event noticePosted) error {
		titles = append(titles, event.Title)
		return nil
	}, nil)

	require.NoError(t, bus.Publish(context.Background(), &noticePosted{Title: "gas"}))
	require.NoError(t, bus.Publish(context.Background(), noticePosted{Title: "power"}))
	assert.Equal(t, []string{"gas", "power"}, titles)
}

func TestDispatcher_MarksFailedDeliveries(t *testing.T) {
	bus := eventing.NewInMemoryBus()
	registry := eventing.NewRegistry()
	registry.Register(noticePosted{})
	outbox := memory.NewOutboxStore()
	dispatcher := eventing.NewDispatcher(bus, outbox, registry, nil)
	bus.Subscribe(eventing.EventTypeOf[noticePosted](), func(context.Context, any) error {
		return errors.New("boom")
	})

	env, err := eventing.BuildEnvelope(noticePosted{NoticeID: "n-1"}, eventing.Meta{BuildingID: "b-1"})
	require.NoError(t, err)
	_, err = outbox.Insert(context.Background(), env)
	require.NoError(t, err)

	require.NoError(t, dispatcher.Dispatch(context.Background(), 0))
	pending, err := outbox.ListPending(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestBuildEnvelope_RequiresAggregate(t *testing.T) {
	_, err := eventing.BuildEnvelope(nil, eventing.Meta{})
	assert.ErrorIs(t, err, eventing.ErrNilEvent)

	_, err = eventing.BuildEnvelope(noticePosted{}, eventing.Meta{})
	assert.ErrorIs(t, err, eventing.ErrNoAggregate)
}

func TestRegistry_DecodesRegisteredTypes(t *testing.T) {
	registry := eventing.NewRegistry(noticePosted{}, &noticePosted{})
	assert.Equal(t, []string{"eventing_test.noticePosted"}, registry.Types())

	env, err := eventing.BuildEnvelope(noticePosted{NoticeID: "n-2", Title: "gas"}, eventing.Meta{})
	require.NoError(t, err)
	decoded, err := registry.DecodePayload(env)
	require.NoError(t, err)
	assert.Equal(t, "gas", decoded.(noticePosted).Title)

	env.EventType = "eventing_test.unknown"
	_, err = registry.DecodePayload(env)
	assert.ErrorIs(t, err, eventing.ErrUnknownEventType)
}
