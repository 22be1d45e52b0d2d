package app

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tesfalem/quotewidget/internal/ports"
)

func TestNewEvent(t *testing.T) {
	event := NewEvent(EventFilterChanged, FilterChanged{Category: "life"}, epoch)

	_, err := uuid.Parse(event.ID())
	require.NoError(t, err)

	assert.Equal(t, EventFilterChanged, event.EventType())
	assert.Equal(t, FilterChanged{Category: "life"}, event.Payload())
	assert.Equal(t, epoch, event.OccurredAt())
	assert.NotEqual(t, event.ID(), NewEvent(EventFilterChanged, nil, epoch).ID())
}

func TestEventBus_DeliversInOrder(t *testing.T) {
	bus := NewEventBus(discardLogger())

	var got []string

	bus.Subscribe(func(_ context.Context, e ports.Event) { got = append(got, "first:"+e.EventType()) })
	bus.Subscribe(func(_ context.Context, e ports.Event) { got = append(got, "second:"+e.EventType()) })

	require.NoError(t, bus.Publish(context.Background(), NewEvent(EventSyncCompleted, nil, epoch)))

	assert.Equal(t, []string{"first:sync.completed", "second:sync.completed"}, got)
}

func TestEventBus_Unsubscribe(t *testing.T) {
	bus := NewEventBus(nil)
	calls := 0

	unsubscribe := bus.Subscribe(func(context.Context, ports.Event) { calls++ })

	require.NoError(t, bus.Publish(context.Background(), NewEvent(EventFilterChanged, nil, epoch)))
	unsubscribe()
	unsubscribe()
	require.NoError(t, bus.Publish(context.Background(), NewEvent(EventFilterChanged, nil, epoch)))

	assert.Equal(t, 1, calls)
}

func TestEventBus_SubscriberPanicIsContained(t *testing.T) {
	bus := NewEventBus(discardLogger())
	delivered := false

	bus.Subscribe(func(context.Context, ports.Event) { panic("listener bug") })
	bus.Subscribe(func(context.Context, ports.Event) { delivered = true })

	err := bus.Publish(context.Background(), NewEvent(EventCollectionChanged, nil, epoch))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "listener bug")
	assert.True(t, delivered)
}

func TestEventBus_NilEvent(t *testing.T) {
	bus := NewEventBus(discardLogger())

	require.Error(t, bus.Publish(context.Background(), nil))
}

func TestPublish_NilPublisher(t *testing.T) {
	assert.NotPanics(t, func() {
		publish(context.Background(), nil, discardLogger(), NewEvent(EventSyncFailed, nil, epoch))
	})
}

func TestEventLog_KeepsMostRecentInOrder(t *testing.T) {
	log := NewEventLog(3)
	ctx := context.Background()

	assert.Empty(t, log.Recent())

	kinds := []string{"a", "b", "c", "d", "e"}
	for _, k := range kinds {
		log.Record(ctx, NewEvent(k, nil, epoch))
	}

	var got []string
	for _, e := range log.Recent() {
		got = append(got, e.EventType())
	}

	assert.Equal(t, []string{"c", "d", "e"}, got)
}

func TestEventLog_PartiallyFilled(t *testing.T) {
	log := NewEventLog(0)

	log.Record(context.Background(), NewEvent(EventFilterChanged, nil, epoch))

	require.Len(t, log.Recent(), 1)
	assert.Len(t, log.ring, DefaultEventLogSize)
}

func TestWidget_RecordsRecentEvents(t *testing.T) {
	f := newWidgetFixture(t, SyncSettings{})
	ctx := context.Background()

	require.NoError(t, f.widget.Start(ctx))

	_, err := f.widget.Filter.Select(ctx, "life")
	require.NoError(t, err)

	recent := f.widget.Recent.Recent()
	require.NotEmpty(t, recent)
	assert.Equal(t, EventFilterChanged, recent[len(recent)-1].EventType())
}
