package domain

import (
	"time"

	"github.com/google/uuid"
)

// RunState tracks the orchestrator's progress through one import.
type RunState string

const (
	RunIdle        RunState = "idle"
	RunReading     RunState = "reading"
	RunHeaderCheck RunState = "header_check"
	RunRowValidate RunState = "row_validate"
	RunReject      RunState = "reject"
	RunPersisting  RunState = "persisting"
	RunCompleted   RunState = "completed"
	RunRolledBack  RunState = "rolled_back"
)

// EntityType names the store an EntityRef belongs to.
type EntityType string

const (
	EntityContent EntityType = "content"
	EntityMedia   EntityType = "media"
	EntityTerm    EntityType = "term"
)

// EntityRef points at one entity created during a run.
type EntityRef struct {
	Type EntityType `json:"type"`
	ID   uuid.UUID  `json:"id"`
}

// ImportRun is the unit of rollback: the ordered list of entities created
// (content, media, newly created taxonomy terms) during one orchestrated
// execution. Creation order encodes the rollback order, which is its reverse.
type ImportRun struct {
	ID           uuid.UUID   `json:"id"`
	Kind         Kind        `json:"kind"`
	CollectionID uuid.UUID   `json:"collection_id"`
	FileName     string      `json:"file_name"`
	State        RunState    `json:"state"`
	Created      []EntityRef `json:"created"`
	StartedAt    time.Time   `json:"started_at"`
}

// NewImportRun starts a run for the given kind and owning collection. The
// collection is an explicit parameter; a run is never resolved from ambient
// state.
func NewImportRun(kind Kind, collectionID uuid.UUID, fileName string) *ImportRun {
	return &ImportRun{
		ID:           uuid.New(),
		Kind:         kind,
		CollectionID: collectionID,
		FileName:     fileName,
		State:        RunIdle,
		StartedAt:    time.Now(),
	}
}

// Record appends a created entity to the run's ledger.
func (r *ImportRun) Record(entityType EntityType, id uuid.UUID) {
	r.Created = append(r.Created, EntityRef{Type: entityType, ID: id})
}

// Reversed returns the created entities in rollback order.
func (r *ImportRun) Reversed() []EntityRef {
	out := make([]EntityRef, len(r.Created))
	for i, ref := range r.Created {
		out[len(r.Created)-1-i] = ref
	}
	return out
}
