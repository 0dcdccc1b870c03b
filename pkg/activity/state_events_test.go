package activity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildStateUpdatedEventIncludesKeyAndValues(t *testing.T) {
	meta := map[string]any{"custom": "value"}
	input := StateEventInput{
		ActorID:  " actor ",
		TenantID: " tenant ",
		StateID:  7,
		Key:      " count ",
		OldValue: 1,
		NewValue: 2,
		Metadata: meta,
	}

	event := BuildStateUpdatedEvent(input)

	assert.Equal(t, "state.updated", event.Verb)
	assert.Equal(t, ObjectTypeState, event.ObjectType)
	assert.Equal(t, "7", event.ObjectID)
	assert.Equal(t, "actor", event.ActorID)
	assert.Equal(t, "tenant", event.TenantID)
	assert.Equal(t, "count", event.Metadata["key"])
	assert.Equal(t, 1, event.Metadata["old_value"])
	assert.Equal(t, 2, event.Metadata["new_value"])
	assert.Equal(t, "value", event.Metadata["custom"])

	event.Metadata["custom"] = "changed"
	assert.Equal(t, "value", meta["custom"], "input metadata must not be shared")
}

func TestBuildStateCreatedEventOmitsEmptyMetadata(t *testing.T) {
	event := BuildStateCreatedEvent(StateEventInput{StateID: 3})

	assert.Equal(t, "state.created", event.Verb)
	assert.Equal(t, "3", event.ObjectID)
	assert.Nil(t, event.Metadata)
}

func TestBuildPointerWrittenEventFallsBackToObjectType(t *testing.T) {
	event := BuildPointerWrittenEvent(PointerEventInput{NewValue: "x"})

	assert.Equal(t, "pointer.written", event.Verb)
	assert.Equal(t, ObjectTypePointer, event.ObjectID)
	assert.Equal(t, "x", event.Metadata["new_value"])
	assert.NotContains(t, event.Metadata, "state_id")
}

func TestBuildStoreSavedEventUsesIdent(t *testing.T) {
	event := BuildStoreSavedEvent(StoreEventInput{Ident: "prefs", SnapshotID: "snap-1", Bytes: 42})

	assert.Equal(t, "store.saved", event.Verb)
	assert.Equal(t, "prefs", event.ObjectID)
	assert.Equal(t, "snap-1", event.Metadata["snapshot_id"])
	assert.Equal(t, 42, event.Metadata["bytes"])

	loaded := BuildStoreLoadedEvent(StoreEventInput{})
	assert.Equal(t, ObjectTypeStore, loaded.ObjectID)
}

func TestStateEventsWorkWithEmitter(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{capture}, Config{Enabled: true})

	err := emitter.Emit(context.Background(), BuildStateUpdatedEvent(StateEventInput{StateID: 1, Key: "a"}))
	require.NoError(t, err)
	require.Len(t, capture.Events, 1)
	assert.Equal(t, "state", capture.Events[0].Channel)
	assert.False(t, capture.Events[0].OccurredAt.IsZero())
}
