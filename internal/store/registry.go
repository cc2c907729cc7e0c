package store

import (
	"fmt"

	"safework/internal/model"
	"safework/internal/safework"
)

// Registry owns one collection per entity. Hosts create one per application
// context and inject it; there is no package-level state.
type Registry struct {
	Employees      *Collection[model.Employee, *model.Employee]
	PPEs           *Collection[model.PPE, *model.PPE]
	Deliveries     *Collection[model.PPEDelivery, *model.PPEDelivery]
	Accidents      *Collection[model.Accident, *model.Accident]
	Trainings      *Collection[model.Training, *model.Training]
	Communications *Collection[model.Communication, *model.Communication]
	Documents      *Collection[model.Document, *model.Document]
	Inspections    *Collection[model.Inspection, *model.Inspection]
}

var (
	_ safework.Collection[model.Employee]    = (*Collection[model.Employee, *model.Employee])(nil)
	_ safework.Collection[model.PPEDelivery] = (*Collection[model.PPEDelivery, *model.PPEDelivery])(nil)
	_ safework.Collection[model.Training]    = (*Collection[model.Training, *model.Training])(nil)
)

// NewRegistry creates a Registry of empty collections.
func NewRegistry(clock safework.Clock, logger safework.Logger) *Registry {
	return &Registry{
		Employees:      NewCollection[model.Employee](model.CollectionEmployees, clock, logger),
		PPEs:           NewCollection[model.PPE](model.CollectionPPEs, clock, logger),
		Deliveries:     NewCollection[model.PPEDelivery](model.CollectionPPEDeliveries, clock, logger),
		Accidents:      NewCollection[model.Accident](model.CollectionAccidents, clock, logger),
		Trainings:      NewCollection[model.Training](model.CollectionTrainings, clock, logger),
		Communications: NewCollection[model.Communication](model.CollectionCommunications, clock, logger),
		Documents:      NewCollection[model.Document](model.CollectionDocuments, clock, logger),
		Inspections:    NewCollection[model.Inspection](model.CollectionInspections, clock, logger),
	}
}

// Stores exposes the registry's collections to the service layer.
func (r *Registry) Stores() safework.Stores {
	return safework.Stores{
		Employees:      r.Employees,
		PPEs:           r.PPEs,
		Deliveries:     r.Deliveries,
		Accidents:      r.Accidents,
		Trainings:      r.Trainings,
		Communications: r.Communications,
		Documents:      r.Documents,
		Inspections:    r.Inspections,
	}
}

// Snapshot copies every collection.
func (r *Registry) Snapshot() Snapshot {
	return Snapshot{
		Employees:      r.Employees.All(),
		PPEs:           r.PPEs.All(),
		Deliveries:     r.Deliveries.All(),
		Accidents:      r.Accidents.All(),
		Trainings:      r.Trainings.All(),
		Communications: r.Communications.All(),
		Documents:      r.Documents.All(),
		Inspections:    r.Inspections.All(),
	}
}

// Load replaces every collection with the contents of s. Collections are
// validated before any is replaced, so a bad snapshot leaves r untouched.
func (r *Registry) Load(s Snapshot) error {
	staged := NewRegistry(safework.RealClock{}, safework.NewNopLogger())
	loads := []func() error{
		func() error { return staged.Employees.Load(s.Employees) },
		func() error { return staged.PPEs.Load(s.PPEs) },
		func() error { return staged.Deliveries.Load(s.Deliveries) },
		func() error { return staged.Accidents.Load(s.Accidents) },
		func() error { return staged.Trainings.Load(s.Trainings) },
		func() error { return staged.Communications.Load(s.Communications) },
		func() error { return staged.Documents.Load(s.Documents) },
		func() error { return staged.Inspections.Load(s.Inspections) },
	}
	for _, load := range loads {
		if err := load(); err != nil {
			return fmt.Errorf("loading snapshot: %w", err)
		}
	}

	// Validated; the second pass cannot fail.
	r.Employees.Load(s.Employees)
	r.PPEs.Load(s.PPEs)
	r.Deliveries.Load(s.Deliveries)
	r.Accidents.Load(s.Accidents)
	r.Trainings.Load(s.Trainings)
	r.Communications.Load(s.Communications)
	r.Documents.Load(s.Documents)
	r.Inspections.Load(s.Inspections)
	return nil
}

// Subscribe registers listener on every collection and returns a function
// that removes all of those registrations.
func (r *Registry) Subscribe(listener func(safework.Change)) func() {
	unsubs := []func(){
		r.Employees.Subscribe(listener),
		r.PPEs.Subscribe(listener),
		r.Deliveries.Subscribe(listener),
		r.Accidents.Subscribe(listener),
		r.Trainings.Subscribe(listener),
		r.Communications.Subscribe(listener),
		r.Documents.Subscribe(listener),
		r.Inspections.Subscribe(listener),
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}

// Counts returns the number of records per collection name.
func (r *Registry) Counts() map[string]int {
	return map[string]int{
		model.CollectionEmployees:      r.Employees.Len(),
		model.CollectionPPEs:           r.PPEs.Len(),
		model.CollectionPPEDeliveries:  r.Deliveries.Len(),
		model.CollectionAccidents:      r.Accidents.Len(),
		model.CollectionTrainings:      r.Trainings.Len(),
		model.CollectionCommunications: r.Communications.Len(),
		model.CollectionDocuments:      r.Documents.Len(),
		model.CollectionInspections:    r.Inspections.Len(),
	}
}
