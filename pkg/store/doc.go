// Package store persists observable containers.
//
// A Store owns one root container whose object graph is written to a
// Backing under a fixed ident. The graph is flattened into a table of
// objects: every map (or container) is stored once and referenced by its
// index, so shared and cyclic objects survive a round trip and containers
// come back as containers. Lists are stored inline; pointers are skipped.
//
// Data flow:
//
//	*reactive.State -> encode -> Document -> Codec -> Backing
//	Backing -> Codec -> Document -> decode -> layering.Fill(defaults) -> *reactive.State
//
// With autosave "auto" every write to the root or to any container reachable
// from it saves the whole graph; "manual" stores save on Save or SaveAll.
package store
