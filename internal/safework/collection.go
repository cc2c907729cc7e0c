package safework

// Op names the kind of mutation a Change reports.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Change is delivered to collection listeners after a successful mutation.
type Change struct {
	Collection string
	Op         Op
	ID         int64
}

// Collection is an in-memory set of records of one entity type with
// store-assigned integer ids. Every method returns copies, so callers never
// alias stored records.
type Collection[T any] interface {
	// Name is the collection's snapshot key, e.g. "ppe_deliveries".
	Name() string

	// Create stores item with the next id (max existing id + 1, or 1 when
	// empty) and the current time as createdAt, and returns the stored record.
	Create(item T) (T, error)

	All() []T
	Get(id int64) (T, error)

	// Update shallow-merges patch into the record. Unknown or read-only keys
	// are rejected with ErrInvalidInput before anything is modified.
	Update(id int64, patch Patch) (T, error)

	// Modify applies fn to a copy of the record and stores the copy only if
	// fn succeeds. Identity fields cannot be changed through fn.
	Modify(id int64, fn func(*T) error) (T, error)

	Delete(id int64) error

	// Subscribe registers listener to run synchronously after every
	// successful mutation, in registration order.
	Subscribe(listener func(Change)) (unsubscribe func())
}
