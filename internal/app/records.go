package app

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"safework/internal/forms"
	"safework/internal/model"
	"safework/internal/safework"
)

// Add creates a record in collection from key=value arguments. Deliveries,
// documents and trainings go through the service so their expiry is derived.
func (a *SafeWorkApp) Add(collection string, args []string) (any, error) {
	name, err := ResolveCollection(collection)
	if err != nil {
		return nil, err
	}
	values, err := forms.ValuesFromArgs(args)
	if err != nil {
		return nil, err
	}

	stores := a.service.Stores()
	switch name {
	case model.CollectionEmployees:
		var f forms.EmployeeForm
		if err := decode(&f, values); err != nil {
			return nil, err
		}
		return stores.Employees.Create(f.Employee())
	case model.CollectionPPEs:
		var f forms.PPEForm
		if err := decode(&f, values); err != nil {
			return nil, err
		}
		return stores.PPEs.Create(f.PPE())
	case model.CollectionPPEDeliveries:
		var f forms.DeliveryForm
		if err := decode(&f, values); err != nil {
			return nil, err
		}
		if _, err := stores.Employees.Get(f.EmployeeID); err != nil {
			return nil, fmt.Errorf("registering delivery: %w", err)
		}
		return a.service.RegisterDelivery(f.Input())
	case model.CollectionAccidents:
		var f forms.AccidentForm
		if err := decode(&f, values); err != nil {
			return nil, err
		}
		if _, err := stores.Employees.Get(f.EmployeeID); err != nil {
			return nil, fmt.Errorf("reporting accident: %w", err)
		}
		return stores.Accidents.Create(f.Accident())
	case model.CollectionTrainings:
		var f forms.TrainingForm
		if err := decode(&f, values); err != nil {
			return nil, err
		}
		for _, id := range f.EmployeeIDs {
			if _, err := stores.Employees.Get(id); err != nil {
				return nil, fmt.Errorf("registering training: %w", err)
			}
		}
		return a.service.RegisterTraining(f.Input())
	case model.CollectionCommunications:
		var f forms.CommunicationForm
		if err := decode(&f, values); err != nil {
			return nil, err
		}
		return stores.Communications.Create(f.Communication(a.service.Today()))
	case model.CollectionDocuments:
		var f forms.DocumentForm
		if err := decode(&f, values); err != nil {
			return nil, err
		}
		return a.service.RegisterDocument(f.Input())
	case model.CollectionInspections:
		var f forms.InspectionForm
		if err := decode(&f, values); err != nil {
			return nil, err
		}
		return stores.Inspections.Create(f.Inspection())
	}
	return nil, fmt.Errorf("%w: cannot add to %s", safework.ErrInvalidInput, name)
}

// decode fills and validates a form.
func decode(f interface{ Validate() error }, values url.Values) error {
	if err := forms.Decode(f, values); err != nil {
		return err
	}
	return f.Validate()
}

// ListOptions narrows List. Status applies to deliveries, documents and
// trainings only.
type ListOptions struct {
	Status     string
	EmployeeID int64
}

// List returns every record of collection. Time-bound records carry their
// current status, soonest expiry first.
func (a *SafeWorkApp) List(collection string, opts ListOptions) (any, error) {
	name, err := ResolveCollection(collection)
	if err != nil {
		return nil, err
	}

	var filter safework.Filter
	if opts.Status != "" {
		st, err := safework.ParseStatus(opts.Status)
		if err != nil {
			return nil, err
		}
		if !timeBound(name) {
			return nil, fmt.Errorf("%w: %s have no status", safework.ErrInvalidInput, name)
		}
		filter.Status = st
	}
	filter.EmployeeID = opts.EmployeeID

	stores := a.service.Stores()
	switch name {
	case model.CollectionEmployees:
		return stores.Employees.All(), nil
	case model.CollectionPPEs:
		return stores.PPEs.All(), nil
	case model.CollectionPPEDeliveries:
		return a.service.Deliveries(filter), nil
	case model.CollectionAccidents:
		all := stores.Accidents.All()
		if opts.EmployeeID != 0 {
			all = slices.DeleteFunc(all, func(acc model.Accident) bool { return acc.EmployeeID != opts.EmployeeID })
		}
		return all, nil
	case model.CollectionTrainings:
		return a.service.Trainings(filter), nil
	case model.CollectionCommunications:
		return stores.Communications.All(), nil
	case model.CollectionDocuments:
		return a.service.Documents(filter), nil
	case model.CollectionInspections:
		return stores.Inspections.All(), nil
	}
	return nil, fmt.Errorf("%w: cannot list %s", safework.ErrInvalidInput, name)
}

// Get returns record id of collection.
func (a *SafeWorkApp) Get(collection string, id int64) (any, error) {
	name, err := ResolveCollection(collection)
	if err != nil {
		return nil, err
	}

	stores := a.service.Stores()
	switch name {
	case model.CollectionEmployees:
		return stores.Employees.Get(id)
	case model.CollectionPPEs:
		return stores.PPEs.Get(id)
	case model.CollectionPPEDeliveries:
		return a.service.Delivery(id)
	case model.CollectionAccidents:
		return stores.Accidents.Get(id)
	case model.CollectionTrainings:
		return a.service.Training(id)
	case model.CollectionCommunications:
		return stores.Communications.Get(id)
	case model.CollectionDocuments:
		return a.service.Document(id)
	case model.CollectionInspections:
		return stores.Inspections.Get(id)
	}
	return nil, fmt.Errorf("%w: cannot get from %s", safework.ErrInvalidInput, name)
}

// Update patches record id of collection with key=value arguments. Values
// are typed after the field they target.
func (a *SafeWorkApp) Update(collection string, id int64, args []string) (any, error) {
	name, err := ResolveCollection(collection)
	if err != nil {
		return nil, err
	}
	values, err := patchValues(args)
	if err != nil {
		return nil, err
	}

	stores := a.service.Stores()
	switch name {
	case model.CollectionEmployees:
		return patchRecord(stores.Employees, id, values)
	case model.CollectionPPEs:
		return patchRecord(stores.PPEs, id, values)
	case model.CollectionPPEDeliveries:
		patch, err := patchFor(stores.Deliveries, id, values)
		if err != nil {
			return nil, err
		}
		return a.service.UpdateDelivery(id, patch)
	case model.CollectionAccidents:
		return patchRecord(stores.Accidents, id, values)
	case model.CollectionTrainings:
		patch, err := patchFor(stores.Trainings, id, values)
		if err != nil {
			return nil, err
		}
		return a.service.UpdateTraining(id, patch)
	case model.CollectionCommunications:
		return patchRecord(stores.Communications, id, values)
	case model.CollectionDocuments:
		patch, err := patchFor(stores.Documents, id, values)
		if err != nil {
			return nil, err
		}
		return a.service.UpdateDocument(id, patch)
	case model.CollectionInspections:
		return patchRecord(stores.Inspections, id, values)
	}
	return nil, fmt.Errorf("%w: cannot update %s", safework.ErrInvalidInput, name)
}

// Remove deletes record id of collection.
func (a *SafeWorkApp) Remove(collection string, id int64) error {
	name, err := ResolveCollection(collection)
	if err != nil {
		return err
	}

	stores := a.service.Stores()
	switch name {
	case model.CollectionEmployees:
		return stores.Employees.Delete(id)
	case model.CollectionPPEs:
		return stores.PPEs.Delete(id)
	case model.CollectionPPEDeliveries:
		return stores.Deliveries.Delete(id)
	case model.CollectionAccidents:
		return stores.Accidents.Delete(id)
	case model.CollectionTrainings:
		return stores.Trainings.Delete(id)
	case model.CollectionCommunications:
		return stores.Communications.Delete(id)
	case model.CollectionDocuments:
		return stores.Documents.Delete(id)
	case model.CollectionInspections:
		return stores.Inspections.Delete(id)
	}
	return fmt.Errorf("%w: cannot remove from %s", safework.ErrInvalidInput, name)
}

// Renew records a renewal of a time-bound record: a new issue date for a
// delivery, a new session date for a training, a new expiry date for a
// document.
func (a *SafeWorkApp) Renew(collection string, id int64, rawDate string) (any, error) {
	name, err := ResolveCollection(collection)
	if err != nil {
		return nil, err
	}
	date, err := forms.ParseDate(rawDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", safework.ErrInvalidInput, err)
	}
	if date.IsZero() {
		return nil, fmt.Errorf("%w: renewal date is required", safework.ErrInvalidInput)
	}

	switch name {
	case model.CollectionPPEDeliveries:
		return a.service.RenewDelivery(id, date)
	case model.CollectionTrainings:
		return a.service.RenewTraining(id, date)
	case model.CollectionDocuments:
		return a.service.RenewDocument(id, date)
	}
	return nil, fmt.Errorf("%w: %s do not expire", safework.ErrInvalidInput, name)
}

func timeBound(collection string) bool {
	switch collection {
	case model.CollectionPPEDeliveries, model.CollectionTrainings, model.CollectionDocuments:
		return true
	}
	return false
}

// patchValues parses key=value arguments, keeping the last value of a
// repeated key.
func patchValues(args []string) (map[string]string, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: nothing to update", safework.ErrInvalidInput)
	}
	values := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: argument %q is not key=value", safework.ErrInvalidInput, arg)
		}
		values[key] = value
	}
	return values, nil
}

func patchFor[T any](c safework.Collection[T], id int64, values map[string]string) (safework.Patch, error) {
	current, err := c.Get(id)
	if err != nil {
		return nil, err
	}
	return safework.PatchFromStrings(current, values)
}

// patchRecord merges values into record id and stores the result only if it
// still passes the checks the record's form applies on create.
func patchRecord[T any](c safework.Collection[T], id int64, values map[string]string) (T, error) {
	patch, err := patchFor(c, id, values)
	if err != nil {
		var zero T
		return zero, err
	}
	return c.Modify(id, func(rec *T) error {
		merged, err := safework.ApplyPatch(*rec, patch)
		if err != nil {
			return err
		}
		if err := forms.ValidateRecord(merged); err != nil {
			return fmt.Errorf("updating %s %d: %w", c.Name(), id, err)
		}
		*rec = merged
		return nil
	})
}
