package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBus_PublishInOrder(t *testing.T) {
	bus := NewBus()
	var got []string
	bus.Subscribe(func(_ context.Context, ev Event) { got = append(got, "a:"+ev.Name()) })
	bus.Subscribe(func(_ context.Context, ev Event) { got = append(got, "b:"+ev.Name()) })

	bus.Publish(context.Background(), TabActivated{TabID: 1})

	assert.Equal(t, []string{"a:tabActivated", "b:tabActivated"}, got)
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()
	count := 0
	unsubscribe := bus.Subscribe(func(context.Context, Event) { count++ })

	bus.Publish(context.Background(), CheckTab{})
	unsubscribe()
	unsubscribe()
	bus.Publish(context.Background(), CheckTab{})

	assert.Equal(t, 1, count)
}

func TestBus_PanicDoesNotStopDelivery(t *testing.T) {
	bus := NewBus()
	delivered := false
	bus.Subscribe(func(context.Context, Event) { panic("boom") })
	bus.Subscribe(func(context.Context, Event) { delivered = true })

	assert.NotPanics(t, func() {
		bus.Publish(context.Background(), InputChanged{Text: "go"})
	})
	assert.True(t, delivered)
}

func TestTabUpdated_Complete(t *testing.T) {
	assert.True(t, TabUpdated{TabID: 1, Status: "complete"}.Complete())
	assert.False(t, TabUpdated{TabID: 1, Status: "loading"}.Complete())
}
