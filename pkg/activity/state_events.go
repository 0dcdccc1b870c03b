package activity

import (
	"strconv"
	"strings"
	"time"
)

// Object types used by the reactive engine.
const (
	ObjectTypeState   = "reactive.state"
	ObjectTypePointer = "reactive.pointer"
	ObjectTypeStore   = "reactive.store"
)

// StateEventInput describes a container lifecycle event.
type StateEventInput struct {
	ActorID    string
	TenantID   string
	Channel    string
	StateID    uint64
	Key        string
	OldValue   any
	NewValue   any
	Metadata   map[string]any
	OccurredAt time.Time
}

// PointerEventInput describes a write performed through a bound pointer.
type PointerEventInput struct {
	ActorID    string
	TenantID   string
	Channel    string
	PointerID  uint64
	StateID    uint64
	NewValue   any
	Metadata   map[string]any
	OccurredAt time.Time
}

// StoreEventInput describes a persisted store operation.
type StoreEventInput struct {
	ActorID    string
	TenantID   string
	Channel    string
	Ident      string
	SnapshotID string
	Bytes      int
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildStateCreatedEvent reports a newly wrapped container.
func BuildStateCreatedEvent(input StateEventInput) Event {
	return buildStateEvent("state.created", input)
}

// BuildStateUpdatedEvent reports a keyed write on a container.
func BuildStateUpdatedEvent(input StateEventInput) Event {
	return buildStateEvent("state.updated", input)
}

func buildStateEvent(verb string, input StateEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if key := strings.TrimSpace(input.Key); key != "" {
		metadata = ensureMetadata(metadata)
		metadata["key"] = key
	}
	if input.OldValue != nil {
		metadata = ensureMetadata(metadata)
		metadata["old_value"] = input.OldValue
	}
	if input.NewValue != nil {
		metadata = ensureMetadata(metadata)
		metadata["new_value"] = input.NewValue
	}
	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: ObjectTypeState,
		ObjectID:   formatID(input.StateID, ObjectTypeState),
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

// BuildPointerWrittenEvent reports a value written back through a pointer.
func BuildPointerWrittenEvent(input PointerEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if input.StateID != 0 {
		metadata = ensureMetadata(metadata)
		metadata["state_id"] = input.StateID
	}
	if input.NewValue != nil {
		metadata = ensureMetadata(metadata)
		metadata["new_value"] = input.NewValue
	}
	return Event{
		Verb:       "pointer.written",
		ActorID:    strings.TrimSpace(input.ActorID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: ObjectTypePointer,
		ObjectID:   formatID(input.PointerID, ObjectTypePointer),
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

// BuildStoreSavedEvent reports a store snapshot written to its backing.
func BuildStoreSavedEvent(input StoreEventInput) Event {
	return buildStoreEvent("store.saved", input)
}

// BuildStoreLoadedEvent reports a store restored from its backing.
func BuildStoreLoadedEvent(input StoreEventInput) Event {
	return buildStoreEvent("store.loaded", input)
}

func buildStoreEvent(verb string, input StoreEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if input.SnapshotID != "" {
		metadata = ensureMetadata(metadata)
		metadata["snapshot_id"] = input.SnapshotID
	}
	if input.Bytes > 0 {
		metadata = ensureMetadata(metadata)
		metadata["bytes"] = input.Bytes
	}
	objectID := strings.TrimSpace(input.Ident)
	if objectID == "" {
		objectID = ObjectTypeStore
	}
	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: ObjectTypeStore,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

func formatID(id uint64, fallback string) string {
	if id == 0 {
		return fallback
	}
	return strconv.FormatUint(id, 10)
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
