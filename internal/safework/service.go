package safework

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"safework/internal/model"
)

// Stores groups the per-entity collections the service works on.
type Stores struct {
	Employees      Collection[model.Employee]
	PPEs           Collection[model.PPE]
	Deliveries     Collection[model.PPEDelivery]
	Accidents      Collection[model.Accident]
	Trainings      Collection[model.Training]
	Communications Collection[model.Communication]
	Documents      Collection[model.Document]
	Inspections    Collection[model.Inspection]
}

// Service is the orchestration layer between hosts (CLI, report export) and
// the stores. It derives expiry dates when time-bound records are registered
// or renewed, and recomputes every status from the clock at read time.
type Service struct {
	stores Stores
	clock  Clock
	logger Logger
}

// NewService creates a new Service with the provided dependencies.
func NewService(stores Stores, clock Clock, logger Logger) *Service {
	return &Service{
		stores: stores,
		clock:  clock,
		logger: logger,
	}
}

// Stores returns the collections for plain CRUD on entities without
// derived fields.
func (s *Service) Stores() Stores {
	return s.stores
}

// Today returns the current calendar day.
func (s *Service) Today() model.Date {
	return model.DateOf(s.clock.Now())
}

// Filter narrows a listing of time-bound records.
type Filter struct {
	// Status keeps only records with this freshly computed status. Empty
	// keeps all.
	Status Status
	// EmployeeID keeps only deliveries to, or trainings attended by, this
	// employee. Zero keeps all. Ignored for documents.
	EmployeeID int64
}

func (f Filter) matchStatus(st Status) bool {
	return f.Status == "" || f.Status == st
}

// DeliveryInput is the data needed to register a PPE delivery.
type DeliveryInput struct {
	EmployeeID int64
	PPEID      int64
	Quantity   int
	IssueDate  model.Date
	Notes      string
}

// DeliveryView is a delivery with its status computed for today.
type DeliveryView struct {
	model.PPEDelivery
	Status        Status `json:"status"`
	DaysRemaining int    `json:"daysRemaining"`
}

// RegisterDelivery records units of a catalog item handed to an employee.
// The delivery copies the catalog item's validity period and stores the
// derived expiry date. Nothing is created on error.
func (s *Service) RegisterDelivery(in DeliveryInput) (DeliveryView, error) {
	if in.EmployeeID <= 0 {
		return DeliveryView{}, fmt.Errorf("%w: employee is required", ErrInvalidInput)
	}
	if in.Quantity < 0 {
		return DeliveryView{}, fmt.Errorf("%w: quantity must not be negative, got %d", ErrInvalidInput, in.Quantity)
	}
	if in.Quantity == 0 {
		in.Quantity = 1
	}

	ppe, err := s.stores.PPEs.Get(in.PPEID)
	if err != nil {
		return DeliveryView{}, fmt.Errorf("registering delivery: %w", err)
	}

	now := s.clock.Now()
	cls, err := ClassifyDuration(in.IssueDate.Time, ppe.ValidityMonths, now)
	if err != nil {
		return DeliveryView{}, fmt.Errorf("registering delivery: %w", err)
	}

	d, err := s.stores.Deliveries.Create(model.PPEDelivery{
		EmployeeID:     in.EmployeeID,
		PPEID:          in.PPEID,
		Quantity:       in.Quantity,
		IssueDate:      in.IssueDate,
		ValidityMonths: ppe.ValidityMonths,
		ExpiryDate:     model.DateOf(cls.ExpiryDate),
		Notes:          in.Notes,
	})
	if err != nil {
		return DeliveryView{}, fmt.Errorf("registering delivery: %w", err)
	}

	s.logger.Info("ppe delivery registered",
		"id", d.ID, "employee_id", d.EmployeeID, "ppe_id", d.PPEID, "expiry", d.ExpiryDate.String())
	return s.deliveryView(d, now), nil
}

// RenewDelivery replaces the issue date of delivery id and derives a new
// expiry from the validity period stored on the delivery. The id is kept.
func (s *Service) RenewDelivery(id int64, issueDate model.Date) (DeliveryView, error) {
	now := s.clock.Now()
	d, err := s.stores.Deliveries.Modify(id, func(d *model.PPEDelivery) error {
		cls, err := ClassifyDuration(issueDate.Time, d.ValidityMonths, now)
		if err != nil {
			return err
		}
		d.IssueDate = issueDate
		d.ExpiryDate = model.DateOf(cls.ExpiryDate)
		return nil
	})
	if err != nil {
		return DeliveryView{}, fmt.Errorf("renewing delivery %d: %w", id, err)
	}

	s.logger.Info("ppe delivery renewed", "id", id, "expiry", d.ExpiryDate.String())
	return s.deliveryView(d, now), nil
}

// UpdateDelivery applies patch to delivery id and re-derives the expiry.
// The expiry date and the copied validity period cannot be patched.
func (s *Service) UpdateDelivery(id int64, patch Patch) (DeliveryView, error) {
	if err := rejectFields(patch, "expiryDate", "validityMonths"); err != nil {
		return DeliveryView{}, fmt.Errorf("updating delivery %d: %w", id, err)
	}

	now := s.clock.Now()
	d, err := s.stores.Deliveries.Modify(id, func(d *model.PPEDelivery) error {
		merged, err := ApplyPatch(*d, patch)
		if err != nil {
			return err
		}
		if merged.EmployeeID <= 0 {
			return fmt.Errorf("%w: employee is required", ErrInvalidInput)
		}
		if merged.Quantity <= 0 {
			return fmt.Errorf("%w: quantity must be positive, got %d", ErrInvalidInput, merged.Quantity)
		}
		cls, err := ClassifyDuration(merged.IssueDate.Time, merged.ValidityMonths, now)
		if err != nil {
			return err
		}
		merged.ExpiryDate = model.DateOf(cls.ExpiryDate)
		*d = merged
		return nil
	})
	if err != nil {
		return DeliveryView{}, fmt.Errorf("updating delivery %d: %w", id, err)
	}
	return s.deliveryView(d, now), nil
}

// Deliveries lists deliveries matching f, soonest expiry first.
func (s *Service) Deliveries(f Filter) []DeliveryView {
	now := s.clock.Now()

	var out []DeliveryView
	for _, d := range s.stores.Deliveries.All() {
		if f.EmployeeID != 0 && d.EmployeeID != f.EmployeeID {
			continue
		}
		v := s.deliveryView(d, now)
		if f.matchStatus(v.Status) {
			out = append(out, v)
		}
	}
	slices.SortFunc(out, func(a, b DeliveryView) int {
		return cmp.Or(a.ExpiryDate.Compare(b.ExpiryDate.Time), cmp.Compare(a.ID, b.ID))
	})
	return out
}

// Delivery returns delivery id with its current status.
func (s *Service) Delivery(id int64) (DeliveryView, error) {
	d, err := s.stores.Deliveries.Get(id)
	if err != nil {
		return DeliveryView{}, err
	}
	return s.deliveryView(d, s.clock.Now()), nil
}

func (s *Service) deliveryView(d model.PPEDelivery, now time.Time) DeliveryView {
	return DeliveryView{
		PPEDelivery:   d,
		Status:        StatusAt(d.ExpiryDate.Time, now),
		DaysRemaining: DaysUntil(d.ExpiryDate.Time, now),
	}
}

// DocumentInput is the data needed to register a document.
type DocumentInput struct {
	Title      string
	Kind       string
	FileName   string
	UploadDate model.Date // defaults to today
	ExpiryDate model.Date
	Notes      string
}

// DocumentView is a document with its status computed for today.
type DocumentView struct {
	model.Document
	Status        Status `json:"status"`
	DaysRemaining int    `json:"daysRemaining"`
}

// RegisterDocument stores a document with an explicit expiry date.
func (s *Service) RegisterDocument(in DocumentInput) (DocumentView, error) {
	if strings.TrimSpace(in.Title) == "" {
		return DocumentView{}, fmt.Errorf("%w: document title is required", ErrInvalidInput)
	}

	now := s.clock.Now()
	cls, err := ClassifyExpiry(in.ExpiryDate.Time, now)
	if err != nil {
		return DocumentView{}, fmt.Errorf("registering document: %w", err)
	}
	if in.UploadDate.IsZero() {
		in.UploadDate = model.DateOf(now)
	}

	doc, err := s.stores.Documents.Create(model.Document{
		Title:      strings.TrimSpace(in.Title),
		Kind:       in.Kind,
		FileName:   in.FileName,
		UploadDate: in.UploadDate,
		ExpiryDate: model.DateOf(cls.ExpiryDate),
		Notes:      in.Notes,
	})
	if err != nil {
		return DocumentView{}, fmt.Errorf("registering document: %w", err)
	}

	s.logger.Info("document registered", "id", doc.ID, "kind", doc.Kind, "expiry", doc.ExpiryDate.String())
	return s.documentView(doc, now), nil
}

// RenewDocument replaces the expiry date of document id.
func (s *Service) RenewDocument(id int64, expiry model.Date) (DocumentView, error) {
	now := s.clock.Now()
	doc, err := s.stores.Documents.Modify(id, func(d *model.Document) error {
		if _, err := ClassifyExpiry(expiry.Time, now); err != nil {
			return err
		}
		d.ExpiryDate = expiry
		d.UploadDate = model.DateOf(now)
		return nil
	})
	if err != nil {
		return DocumentView{}, fmt.Errorf("renewing document %d: %w", id, err)
	}

	s.logger.Info("document renewed", "id", id, "expiry", doc.ExpiryDate.String())
	return s.documentView(doc, now), nil
}

// UpdateDocument applies patch to document id. The result must keep a
// title and an expiry date.
func (s *Service) UpdateDocument(id int64, patch Patch) (DocumentView, error) {
	now := s.clock.Now()
	doc, err := s.stores.Documents.Modify(id, func(d *model.Document) error {
		merged, err := ApplyPatch(*d, patch)
		if err != nil {
			return err
		}
		if strings.TrimSpace(merged.Title) == "" {
			return fmt.Errorf("%w: document title is required", ErrInvalidInput)
		}
		if _, err := ClassifyExpiry(merged.ExpiryDate.Time, now); err != nil {
			return err
		}
		*d = merged
		return nil
	})
	if err != nil {
		return DocumentView{}, fmt.Errorf("updating document %d: %w", id, err)
	}
	return s.documentView(doc, now), nil
}

// Documents lists documents matching f, soonest expiry first.
func (s *Service) Documents(f Filter) []DocumentView {
	now := s.clock.Now()

	var out []DocumentView
	for _, d := range s.stores.Documents.All() {
		v := s.documentView(d, now)
		if f.matchStatus(v.Status) {
			out = append(out, v)
		}
	}
	slices.SortFunc(out, func(a, b DocumentView) int {
		return cmp.Or(a.ExpiryDate.Compare(b.ExpiryDate.Time), cmp.Compare(a.ID, b.ID))
	})
	return out
}

// Document returns document id with its current status.
func (s *Service) Document(id int64) (DocumentView, error) {
	d, err := s.stores.Documents.Get(id)
	if err != nil {
		return DocumentView{}, err
	}
	return s.documentView(d, s.clock.Now()), nil
}

func (s *Service) documentView(d model.Document, now time.Time) DocumentView {
	return DocumentView{
		Document:      d,
		Status:        StatusAt(d.ExpiryDate.Time, now),
		DaysRemaining: DaysUntil(d.ExpiryDate.Time, now),
	}
}

// TrainingInput is the data needed to register a training session.
type TrainingInput struct {
	Title          string
	Instructor     string
	Date           model.Date
	ValidityMonths int
	Hours          int
	EmployeeIDs    []int64
}

// TrainingView is a training with its status computed for today.
type TrainingView struct {
	model.Training
	Status        Status `json:"status"`
	DaysRemaining int    `json:"daysRemaining"`
}

// RegisterTraining stores a training session whose certificate expires
// ValidityMonths after its date.
func (s *Service) RegisterTraining(in TrainingInput) (TrainingView, error) {
	if strings.TrimSpace(in.Title) == "" {
		return TrainingView{}, fmt.Errorf("%w: training title is required", ErrInvalidInput)
	}
	if in.Hours < 0 {
		return TrainingView{}, fmt.Errorf("%w: hours must not be negative, got %d", ErrInvalidInput, in.Hours)
	}

	now := s.clock.Now()
	cls, err := ClassifyDuration(in.Date.Time, in.ValidityMonths, now)
	if err != nil {
		return TrainingView{}, fmt.Errorf("registering training: %w", err)
	}

	attendees := slices.Clone(in.EmployeeIDs)
	if attendees == nil {
		attendees = []int64{}
	}
	tr, err := s.stores.Trainings.Create(model.Training{
		Title:          strings.TrimSpace(in.Title),
		Instructor:     in.Instructor,
		Date:           in.Date,
		ValidityMonths: in.ValidityMonths,
		ExpiryDate:     model.DateOf(cls.ExpiryDate),
		Hours:          in.Hours,
		EmployeeIDs:    attendees,
	})
	if err != nil {
		return TrainingView{}, fmt.Errorf("registering training: %w", err)
	}

	s.logger.Info("training registered", "id", tr.ID, "attendees", len(tr.EmployeeIDs), "expiry", tr.ExpiryDate.String())
	return s.trainingView(tr, now), nil
}

// RenewTraining records a new session date for training id and derives its
// new expiry.
func (s *Service) RenewTraining(id int64, date model.Date) (TrainingView, error) {
	now := s.clock.Now()
	tr, err := s.stores.Trainings.Modify(id, func(t *model.Training) error {
		cls, err := ClassifyDuration(date.Time, t.ValidityMonths, now)
		if err != nil {
			return err
		}
		t.Date = date
		t.ExpiryDate = model.DateOf(cls.ExpiryDate)
		return nil
	})
	if err != nil {
		return TrainingView{}, fmt.Errorf("renewing training %d: %w", id, err)
	}

	s.logger.Info("training renewed", "id", id, "expiry", tr.ExpiryDate.String())
	return s.trainingView(tr, now), nil
}

// UpdateTraining applies patch to training id and re-derives the expiry.
// The expiry date itself cannot be patched.
func (s *Service) UpdateTraining(id int64, patch Patch) (TrainingView, error) {
	if err := rejectFields(patch, "expiryDate"); err != nil {
		return TrainingView{}, fmt.Errorf("updating training %d: %w", id, err)
	}

	now := s.clock.Now()
	tr, err := s.stores.Trainings.Modify(id, func(t *model.Training) error {
		merged, err := ApplyPatch(*t, patch)
		if err != nil {
			return err
		}
		if strings.TrimSpace(merged.Title) == "" {
			return fmt.Errorf("%w: training title is required", ErrInvalidInput)
		}
		if merged.Hours < 0 {
			return fmt.Errorf("%w: hours must not be negative, got %d", ErrInvalidInput, merged.Hours)
		}
		cls, err := ClassifyDuration(merged.Date.Time, merged.ValidityMonths, now)
		if err != nil {
			return err
		}
		merged.ExpiryDate = model.DateOf(cls.ExpiryDate)
		*t = merged
		return nil
	})
	if err != nil {
		return TrainingView{}, fmt.Errorf("updating training %d: %w", id, err)
	}
	return s.trainingView(tr, now), nil
}

// Trainings lists trainings matching f, soonest expiry first.
func (s *Service) Trainings(f Filter) []TrainingView {
	now := s.clock.Now()

	var out []TrainingView
	for _, t := range s.stores.Trainings.All() {
		if f.EmployeeID != 0 && !slices.Contains(t.EmployeeIDs, f.EmployeeID) {
			continue
		}
		v := s.trainingView(t, now)
		if f.matchStatus(v.Status) {
			out = append(out, v)
		}
	}
	slices.SortFunc(out, func(a, b TrainingView) int {
		return cmp.Or(a.ExpiryDate.Compare(b.ExpiryDate.Time), cmp.Compare(a.ID, b.ID))
	})
	return out
}

// Training returns training id with its current status.
func (s *Service) Training(id int64) (TrainingView, error) {
	t, err := s.stores.Trainings.Get(id)
	if err != nil {
		return TrainingView{}, err
	}
	return s.trainingView(t, s.clock.Now()), nil
}

func (s *Service) trainingView(t model.Training, now time.Time) TrainingView {
	return TrainingView{
		Training:      t,
		Status:        StatusAt(t.ExpiryDate.Time, now),
		DaysRemaining: DaysUntil(t.ExpiryDate.Time, now),
	}
}

func rejectFields(patch Patch, fields ...string) error {
	for _, f := range fields {
		if _, ok := patch[f]; ok {
			return fmt.Errorf("%w: field %q is derived and cannot be set", ErrInvalidInput, f)
		}
	}
	return nil
}
