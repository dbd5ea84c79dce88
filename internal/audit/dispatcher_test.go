package audit

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (r *recorder) Write(_ context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recorder) Publish(ctx context.Context, ev Event) error {
	return r.Write(ctx, ev)
}

func (r *recorder) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Action)
	}
	return out
}

func TestDispatcherWritesAndFansOut(t *testing.T) {
	writer := &recorder{}
	sink := &recorder{}

	d := NewDispatcher(writer, sink)
	d.Dispatch(Event{TenantID: 1, Action: "lock_acquired", Entity: "lock", EntityID: "abc"})
	d.Dispatch(Event{TenantID: 1, Action: "appointment_created", Entity: "appointment", EntityID: "7"})
	d.Close()

	assert.Equal(t, []string{"lock_acquired", "appointment_created"}, writer.actions())
	assert.Equal(t, []string{"lock_acquired", "appointment_created"}, sink.actions())
	require.False(t, writer.events[0].OccurredAt.IsZero())
}

func TestDispatcherSurvivesWriterErrors(t *testing.T) {
	writer := &recorder{err: errors.New("db down")}
	sink := &recorder{}

	d := NewDispatcher(writer, sink)
	d.Dispatch(Event{Action: "lock_released"})
	d.Close()

	assert.Equal(t, []string{"lock_released"}, sink.actions())
}

func TestNilDispatcherIsNoop(t *testing.T) {
	var d *Dispatcher
	assert.NotPanics(t, func() {
		d.Dispatch(Event{Action: "x"})
		d.Close()
	})
}
