package usersink_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-reactive/pkg/activity"
	"github.com/goliatone/go-reactive/pkg/activity/usersink"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	records []usertypes.ActivityRecord
	err     error
}

func (s *recordingSink) Log(_ context.Context, record usertypes.ActivityRecord) error {
	s.records = append(s.records, record)
	return s.err
}

func TestHookNotifyMapsStateEvent(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	actorID := uuid.New()
	tenantID := uuid.New()

	event := activity.BuildStateUpdatedEvent(activity.StateEventInput{
		ActorID:    actorID.String(),
		TenantID:   tenantID.String(),
		Channel:    "state",
		StateID:    12,
		Key:        "count",
		NewValue:   3,
		OccurredAt: now,
	})

	require.NoError(t, hook.Notify(context.Background(), event))
	require.Len(t, sink.records, 1)

	record := sink.records[0]
	assert.Equal(t, actorID, record.ActorID)
	assert.Equal(t, tenantID, record.TenantID)
	assert.Equal(t, actorID, record.UserID)
	assert.Equal(t, "state.updated", record.Verb)
	assert.Equal(t, activity.ObjectTypeState, record.ObjectType)
	assert.Equal(t, "12", record.ObjectID)
	assert.Equal(t, "state", record.Channel)
	assert.Equal(t, now, record.OccurredAt)
	assert.Equal(t, "count", record.Data["key"])
	assert.Equal(t, 3, record.Data["new_value"])
}

func TestHookNotifyAppliesDefaults(t *testing.T) {
	sink := &recordingSink{}
	actor := uuid.New()
	tenant := uuid.New()
	hook := usersink.Hook{Sink: sink, DefaultActor: actor, DefaultTenant: tenant}

	err := hook.Notify(context.Background(), activity.BuildPointerWrittenEvent(activity.PointerEventInput{
		PointerID: 4,
		NewValue:  "x",
	}))
	require.NoError(t, err)
	require.Len(t, sink.records, 1)
	assert.Equal(t, actor, sink.records[0].ActorID)
	assert.Equal(t, tenant, sink.records[0].TenantID)
	assert.False(t, sink.records[0].OccurredAt.IsZero())
}

func TestHookNotifyFiltersVerbs(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink, Verbs: []string{"pointer.written"}}

	require.NoError(t, hook.Notify(context.Background(), activity.BuildStateCreatedEvent(activity.StateEventInput{StateID: 1})))
	require.NoError(t, hook.Notify(context.Background(), activity.BuildPointerWrittenEvent(activity.PointerEventInput{PointerID: 2})))

	require.Len(t, sink.records, 1)
	assert.Equal(t, "pointer.written", sink.records[0].Verb)
}

func TestHookNotifySkipsIncompleteEvents(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	require.NoError(t, hook.Notify(context.Background(), activity.Event{}))
	assert.Empty(t, sink.records)
}
