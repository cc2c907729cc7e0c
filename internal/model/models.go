package model

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Collection names. They double as the JSON keys of the persisted snapshot.
const (
	CollectionEmployees      = "employees"
	CollectionPPEs           = "ppes"
	CollectionPPEDeliveries  = "ppe_deliveries"
	CollectionAccidents      = "accidents"
	CollectionTrainings      = "trainings"
	CollectionCommunications = "communications"
	CollectionDocuments      = "documents"
	CollectionInspections    = "inspections"
)

// CollectionNames lists every collection in snapshot order.
var CollectionNames = []string{
	CollectionEmployees,
	CollectionPPEs,
	CollectionPPEDeliveries,
	CollectionAccidents,
	CollectionTrainings,
	CollectionCommunications,
	CollectionDocuments,
	CollectionInspections,
}

// Meta carries the identity every record gets from its collection on create.
// Both fields are read-only after creation.
type Meta struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}

func (m *Meta) Key() int64 { return m.ID }

func (m *Meta) Created() time.Time { return m.CreatedAt }

// Stamp assigns identity. Only collections call it.
func (m *Meta) Stamp(id int64, createdAt time.Time) {
	m.ID = id
	m.CreatedAt = createdAt
}

// Employee is a worker tracked by the dashboard.
type Employee struct {
	Meta
	Name         string `json:"name"`
	Registration string `json:"registration"` // Badge or payroll number
	Role         string `json:"role"`
	Department   string `json:"department"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	HireDate     Date   `json:"hireDate"`
	Active       bool   `json:"active"`
}

// PPE is a catalog item: a type of protective equipment and how long an
// issued unit stays valid.
type PPE struct {
	Meta
	Name              string          `json:"name"`
	Category          string          `json:"category"`          // e.g. "head", "hands", "respiratory"
	ProtectionClass   string          `json:"protectionClass"`
	CertificateNumber string          `json:"certificateNumber"` // Certificate of approval issued for the model
	Manufacturer      string          `json:"manufacturer"`
	ValidityMonths    int             `json:"validityMonths"`
	UnitCost          decimal.Decimal `json:"unitCost"`
}

// PPEDelivery records units of a catalog item handed to an employee.
// ValidityMonths is copied from the catalog item when the delivery is
// registered and does not follow later catalog edits.
type PPEDelivery struct {
	Meta
	EmployeeID     int64  `json:"employeeId"`
	PPEID          int64  `json:"ppeId"`
	Quantity       int    `json:"quantity"`
	IssueDate      Date   `json:"issueDate"`
	ValidityMonths int    `json:"validityMonths"`
	ExpiryDate     Date   `json:"expiryDate"` // IssueDate + ValidityMonths, clamped to month end
	Notes          string `json:"notes"`
}

// AccidentSeverity grades an accident report.
type AccidentSeverity string

const (
	SeverityMinor    AccidentSeverity = "minor"
	SeverityModerate AccidentSeverity = "moderate"
	SeveritySevere   AccidentSeverity = "severe"
	SeverityFatal    AccidentSeverity = "fatal"
)

// Accident is a workplace incident report.
type Accident struct {
	Meta
	EmployeeID   int64            `json:"employeeId"`
	Date         Date             `json:"date"`
	Location     string           `json:"location"`
	Severity     AccidentSeverity `json:"severity"`
	Description  string           `json:"description"`
	LostWorkdays int              `json:"lostWorkdays"`
}

// Training is a session attended by a group of employees. Its certificate
// expires ValidityMonths after the session date.
type Training struct {
	Meta
	Title          string  `json:"title"`
	Instructor     string  `json:"instructor"`
	Date           Date    `json:"date"`
	ValidityMonths int     `json:"validityMonths"`
	ExpiryDate     Date    `json:"expiryDate"`
	Hours          int     `json:"hours"`
	EmployeeIDs    []int64 `json:"employeeIds"`
}

// Clone returns a copy that shares no slices with t.
func (t Training) Clone() Training {
	t.EmployeeIDs = slices.Clone(t.EmployeeIDs)
	return t
}

// CommunicationPriority ranks a communication on the board.
type CommunicationPriority string

const (
	PriorityLow    CommunicationPriority = "low"
	PriorityNormal CommunicationPriority = "normal"
	PriorityHigh   CommunicationPriority = "high"
)

// Communication is a notice published to employees.
type Communication struct {
	Meta
	Title       string                `json:"title"`
	Message     string                `json:"message"`
	Audience    string                `json:"audience"`
	Priority    CommunicationPriority `json:"priority"`
	PublishedAt Date                  `json:"publishedAt"`
}

// Document is a legal or compliance document with an explicit expiry date.
type Document struct {
	Meta
	Title      string `json:"title"`
	Kind       string `json:"kind"` // e.g. "PGR", "PCMSO", "LTCAT", "AVCB"
	FileName   string `json:"fileName"`
	UploadDate Date   `json:"uploadDate"`
	ExpiryDate Date   `json:"expiryDate"`
	Notes      string `json:"notes"`
}

// InspectionResult is the outcome of a site inspection.
type InspectionResult string

const (
	ResultPending      InspectionResult = "pending"
	ResultCompliant    InspectionResult = "compliant"
	ResultNonCompliant InspectionResult = "non_compliant"
)

// Inspection is a scheduled or completed site inspection.
type Inspection struct {
	Meta
	Area          string           `json:"area"`
	Inspector     string           `json:"inspector"`
	ScheduledDate Date             `json:"scheduledDate"`
	CompletedDate Date             `json:"completedDate"`
	Result        InspectionResult `json:"result"`
	Findings      string           `json:"findings"`
}

// Open reports whether the inspection still awaits a result.
func (i Inspection) Open() bool {
	return i.Result == "" || i.Result == ResultPending
}
