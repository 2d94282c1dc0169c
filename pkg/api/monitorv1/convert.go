package monitorv1

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/HatiCode/pulsewatch/pkg/storage"
)

// FromSnapshot converts a snapshot into the Struct returned by GetState.
// Field names follow the snapshot's JSON tags.
func FromSnapshot(snap storage.Snapshot) (*structpb.Struct, error) {
	raw, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decode snapshot fields: %w", err)
	}

	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("build struct: %w", err)
	}
	return s, nil
}

// ToSnapshot converts a GetState response back into a snapshot.
func ToSnapshot(s *structpb.Struct) (storage.Snapshot, error) {
	var snap storage.Snapshot
	if s == nil {
		return snap, nil
	}

	raw, err := json.Marshal(s.AsMap())
	if err != nil {
		return snap, fmt.Errorf("encode struct: %w", err)
	}
	if err := json.Unmarshal(raw, &snap); err != nil {
		return snap, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}
