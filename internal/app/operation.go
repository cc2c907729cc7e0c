package app

import (
	"fmt"
	"sync"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"safework/internal/safework"
)

const operationIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// Operation tracks one CLI command. Its ID tags every log line the command
// writes; mutations made while it runs are counted.
type Operation struct {
	ID         string
	Name       string
	Parameters string

	mu        sync.Mutex
	status    string // "success" or "error"
	mutations int
}

// NewOperation creates an operation with a fresh random ID.
func NewOperation(name, parameters string) (*Operation, error) {
	id, err := gonanoid.Generate(operationIDAlphabet, 12)
	if err != nil {
		return nil, fmt.Errorf("generating operation id: %w", err)
	}
	return &Operation{
		ID:         id,
		Name:       name,
		Parameters: parameters,
		status:     "success",
	}, nil
}

// Record counts a mutation. It is registered as a store listener.
func (op *Operation) Record(safework.Change) {
	op.mu.Lock()
	defer op.mu.Unlock()
	op.mutations++
}

// Fail marks the operation as failed.
func (op *Operation) Fail() {
	op.mu.Lock()
	defer op.mu.Unlock()
	op.status = "error"
}

func (op *Operation) Status() string {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.status
}

// Mutations returns the number of records created, updated or deleted.
func (op *Operation) Mutations() int {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.mutations
}
