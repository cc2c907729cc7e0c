package store

import (
	"encoding/json"
	"fmt"

	"safework/internal/model"
	"safework/internal/safework"
)

// Snapshot is the persisted layout: one JSON object with one array per
// collection.
type Snapshot struct {
	Employees      []model.Employee      `json:"employees"`
	PPEs           []model.PPE           `json:"ppes"`
	Deliveries     []model.PPEDelivery   `json:"ppe_deliveries"`
	Accidents      []model.Accident      `json:"accidents"`
	Trainings      []model.Training      `json:"trainings"`
	Communications []model.Communication `json:"communications"`
	Documents      []model.Document      `json:"documents"`
	Inspections    []model.Inspection    `json:"inspections"`
}

// EncodeSnapshot serializes s.
func EncodeSnapshot(s Snapshot) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot parses a serialized snapshot. Missing arrays decode as
// empty collections.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("%w: decoding snapshot: %v", safework.ErrInvalidInput, err)
	}
	return s, nil
}
