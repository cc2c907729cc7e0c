package safework

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"

	"github.com/shopspring/decimal"

	"safework/internal/model"
)

// Kinds of time-bound records.
const (
	KindDelivery = "delivery"
	KindDocument = "document"
	KindTraining = "training"
)

// RecentAccidentDays is the look-back window of Summary.RecentAccidents.
const RecentAccidentDays = 30

// StatusCounts counts records per status.
type StatusCounts struct {
	Valid    int `json:"valid"`
	Expiring int `json:"expiring"`
	Expired  int `json:"expired"`
}

func (c *StatusCounts) add(s Status) {
	switch s {
	case StatusValid:
		c.Valid++
	case StatusExpiring:
		c.Expiring++
	case StatusExpired:
		c.Expired++
	}
}

// Total returns the number of counted records.
func (c StatusCounts) Total() int {
	return c.Valid + c.Expiring + c.Expired
}

// Summary is the dashboard view of the dataset on one day.
type Summary struct {
	Today model.Date `json:"today"`

	Deliveries StatusCounts `json:"deliveries"`
	Documents  StatusCounts `json:"documents"`
	Trainings  StatusCounts `json:"trainings"`

	Employees       int `json:"employees"`
	ActiveEmployees int `json:"activeEmployees"`
	CatalogItems    int `json:"catalogItems"`

	Accidents       int `json:"accidents"`
	RecentAccidents int `json:"recentAccidents"`
	LostWorkdays    int `json:"lostWorkdays"`

	OpenInspections    int `json:"openInspections"`
	OverdueInspections int `json:"overdueInspections"`

	Communications int `json:"communications"`

	// DeliveredPPECost is the catalog unit cost times quantity summed over
	// every delivery whose catalog item still exists.
	DeliveredPPECost decimal.Decimal `json:"deliveredPpeCost"`
}

// Summary computes dashboard counts. Statuses are derived from the clock at
// call time, never from stored values.
func (s *Service) Summary() Summary {
	now := s.clock.Now()
	today := model.DateOf(now)
	sum := Summary{Today: today, DeliveredPPECost: decimal.Zero}

	costs := map[int64]decimal.Decimal{}
	for _, p := range s.stores.PPEs.All() {
		costs[p.ID] = p.UnitCost
	}
	sum.CatalogItems = len(costs)

	for _, d := range s.stores.Deliveries.All() {
		sum.Deliveries.add(StatusAt(d.ExpiryDate.Time, now))
		if cost, ok := costs[d.PPEID]; ok {
			sum.DeliveredPPECost = sum.DeliveredPPECost.Add(cost.Mul(decimal.NewFromInt(int64(d.Quantity))))
		}
	}
	for _, d := range s.stores.Documents.All() {
		sum.Documents.add(StatusAt(d.ExpiryDate.Time, now))
	}
	for _, t := range s.stores.Trainings.All() {
		sum.Trainings.add(StatusAt(t.ExpiryDate.Time, now))
	}

	for _, e := range s.stores.Employees.All() {
		sum.Employees++
		if e.Active {
			sum.ActiveEmployees++
		}
	}

	since := today.AddDate(0, 0, -RecentAccidentDays)
	for _, a := range s.stores.Accidents.All() {
		sum.Accidents++
		sum.LostWorkdays += a.LostWorkdays
		if !a.Date.Before(since) && !a.Date.After(today.Time) {
			sum.RecentAccidents++
		}
	}

	for _, i := range s.stores.Inspections.All() {
		if !i.Open() {
			continue
		}
		sum.OpenInspections++
		if !i.ScheduledDate.IsZero() && i.ScheduledDate.Before(today.Time) {
			sum.OverdueInspections++
		}
	}

	sum.Communications = len(s.stores.Communications.All())
	return sum
}

// Renewal is one entry of the renewal worklist.
type Renewal struct {
	Kind          string     `json:"kind"`
	ID            int64      `json:"id"`
	Subject       string     `json:"subject"`
	ExpiryDate    model.Date `json:"expiryDate"`
	Status        Status     `json:"status"`
	DaysRemaining int        `json:"daysRemaining"`
}

// ExpiringSoon lists every time-bound record that expires within days of
// today, expired records included, soonest first.
func (s *Service) ExpiringSoon(days int) ([]Renewal, error) {
	if days < 0 {
		return nil, fmt.Errorf("%w: days must not be negative, got %d", ErrInvalidInput, days)
	}

	employees := map[int64]string{}
	for _, e := range s.stores.Employees.All() {
		employees[e.ID] = e.Name
	}
	catalog := map[int64]string{}
	for _, p := range s.stores.PPEs.All() {
		catalog[p.ID] = p.Name
	}

	var out []Renewal
	keep := func(r Renewal) {
		if r.DaysRemaining <= days {
			out = append(out, r)
		}
	}

	for _, d := range s.Deliveries(Filter{}) {
		keep(Renewal{
			Kind:          KindDelivery,
			ID:            d.ID,
			Subject:       deliverySubject(d.PPEDelivery, catalog, employees),
			ExpiryDate:    d.ExpiryDate,
			Status:        d.Status,
			DaysRemaining: d.DaysRemaining,
		})
	}
	for _, d := range s.Documents(Filter{}) {
		keep(Renewal{
			Kind:          KindDocument,
			ID:            d.ID,
			Subject:       d.Title,
			ExpiryDate:    d.ExpiryDate,
			Status:        d.Status,
			DaysRemaining: d.DaysRemaining,
		})
	}
	for _, t := range s.Trainings(Filter{}) {
		keep(Renewal{
			Kind:          KindTraining,
			ID:            t.ID,
			Subject:       t.Title,
			ExpiryDate:    t.ExpiryDate,
			Status:        t.Status,
			DaysRemaining: t.DaysRemaining,
		})
	}

	slices.SortStableFunc(out, func(a, b Renewal) int {
		return cmp.Compare(a.DaysRemaining, b.DaysRemaining)
	})
	return out, nil
}

// deliverySubject names a delivery as "<item> / <employee>", falling back to
// ids when either side has been deleted.
func deliverySubject(d model.PPEDelivery, catalog, employees map[int64]string) string {
	item, ok := catalog[d.PPEID]
	if !ok {
		item = "ppe #" + strconv.FormatInt(d.PPEID, 10)
	}
	who, ok := employees[d.EmployeeID]
	if !ok {
		who = "employee #" + strconv.FormatInt(d.EmployeeID, 10)
	}
	return item + " / " + who
}
