package testutil

import (
	"testing"

	"safework/internal/model"
	"safework/internal/safework"
	"safework/internal/store"
)

// NewTestRegistry creates an empty registry stamped by clock.
func NewTestRegistry(t *testing.T, clock safework.Clock) *store.Registry {
	t.Helper()
	return store.NewRegistry(clock, safework.NewNopLogger())
}

// NewTestService creates a service over a fresh registry.
func NewTestService(t *testing.T, clock safework.Clock) (*safework.Service, *store.Registry) {
	t.Helper()
	reg := NewTestRegistry(t, clock)
	return safework.NewService(reg.Stores(), clock, safework.NewNopLogger()), reg
}

// MustCreatePPE stores a catalog item with the given validity.
func MustCreatePPE(t *testing.T, reg *store.Registry, name string, validityMonths int) model.PPE {
	t.Helper()
	ppe, err := reg.PPEs.Create(model.PPE{Name: name, ValidityMonths: validityMonths})
	if err != nil {
		t.Fatalf("creating ppe %q: %v", name, err)
	}
	return ppe
}

// MustCreateEmployee stores an active employee.
func MustCreateEmployee(t *testing.T, reg *store.Registry, name string) model.Employee {
	t.Helper()
	emp, err := reg.Employees.Create(model.Employee{Name: name, Active: true})
	if err != nil {
		t.Fatalf("creating employee %q: %v", name, err)
	}
	return emp
}
