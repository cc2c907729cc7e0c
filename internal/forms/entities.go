package forms

import (
	"net/mail"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"safework/internal/model"
	"safework/internal/safework"
)

// EmployeeForm is the input for a new employee. Active defaults to true.
type EmployeeForm struct {
	Name         string     `form:"name"`
	Registration string     `form:"registration"`
	Role         string     `form:"role"`
	Department   string     `form:"department"`
	Email        string     `form:"email"`
	Phone        string     `form:"phone"`
	HireDate     model.Date `form:"hireDate"`
	Active       *bool      `form:"active"`
}

func (f *EmployeeForm) Validate() error {
	errs := FieldErrors{}
	if strings.TrimSpace(f.Name) == "" {
		errs.add("name", "is required")
	}
	if f.Email != "" {
		if _, err := mail.ParseAddress(f.Email); err != nil {
			errs.add("email", "is not an email address")
		}
	}
	return errs.orNil()
}

func (f *EmployeeForm) Employee() model.Employee {
	active := true
	if f.Active != nil {
		active = *f.Active
	}
	return model.Employee{
		Name:         strings.TrimSpace(f.Name),
		Registration: f.Registration,
		Role:         f.Role,
		Department:   f.Department,
		Email:        f.Email,
		Phone:        f.Phone,
		HireDate:     f.HireDate,
		Active:       active,
	}
}

// PPEForm is the input for a new catalog item.
type PPEForm struct {
	Name              string          `form:"name"`
	Category          string          `form:"category"`
	ProtectionClass   string          `form:"protectionClass"`
	CertificateNumber string          `form:"certificateNumber"`
	Manufacturer      string          `form:"manufacturer"`
	ValidityMonths    int             `form:"validityMonths"`
	UnitCost          decimal.Decimal `form:"unitCost"`
}

func (f *PPEForm) Validate() error {
	errs := FieldErrors{}
	if strings.TrimSpace(f.Name) == "" {
		errs.add("name", "is required")
	}
	if f.ValidityMonths < 0 {
		errs.add("validityMonths", "must not be negative")
	}
	if f.UnitCost.IsNegative() {
		errs.add("unitCost", "must not be negative")
	}
	return errs.orNil()
}

func (f *PPEForm) PPE() model.PPE {
	return model.PPE{
		Name:              strings.TrimSpace(f.Name),
		Category:          f.Category,
		ProtectionClass:   f.ProtectionClass,
		CertificateNumber: f.CertificateNumber,
		Manufacturer:      f.Manufacturer,
		ValidityMonths:    f.ValidityMonths,
		UnitCost:          f.UnitCost,
	}
}

// DeliveryForm is the input for handing PPE to an employee. The validity
// period is not part of the form; it comes from the catalog item.
type DeliveryForm struct {
	EmployeeID int64      `form:"employeeId"`
	PPEID      int64      `form:"ppeId"`
	Quantity   int        `form:"quantity"`
	IssueDate  model.Date `form:"issueDate"`
	Notes      string     `form:"notes"`
}

func (f *DeliveryForm) Validate() error {
	errs := FieldErrors{}
	if f.EmployeeID <= 0 {
		errs.add("employeeId", "is required")
	}
	if f.PPEID <= 0 {
		errs.add("ppeId", "is required")
	}
	if f.Quantity < 0 {
		errs.add("quantity", "must not be negative")
	}
	if f.IssueDate.IsZero() {
		errs.add("issueDate", "is required")
	}
	return errs.orNil()
}

func (f *DeliveryForm) Input() safework.DeliveryInput {
	return safework.DeliveryInput{
		EmployeeID: f.EmployeeID,
		PPEID:      f.PPEID,
		Quantity:   f.Quantity,
		IssueDate:  f.IssueDate,
		Notes:      f.Notes,
	}
}

var severities = []model.AccidentSeverity{
	model.SeverityMinor, model.SeverityModerate, model.SeveritySevere, model.SeverityFatal,
}

// AccidentForm is the input for an accident report. Severity defaults to
// minor.
type AccidentForm struct {
	EmployeeID   int64                  `form:"employeeId"`
	Date         model.Date             `form:"date"`
	Location     string                 `form:"location"`
	Severity     model.AccidentSeverity `form:"severity"`
	Description  string                 `form:"description"`
	LostWorkdays int                    `form:"lostWorkdays"`
}

func (f *AccidentForm) Validate() error {
	errs := FieldErrors{}
	if f.EmployeeID <= 0 {
		errs.add("employeeId", "is required")
	}
	if f.Date.IsZero() {
		errs.add("date", "is required")
	}
	if f.Severity != "" && !slices.Contains(severities, f.Severity) {
		errs.add("severity", "must be one of minor, moderate, severe, fatal")
	}
	if f.LostWorkdays < 0 {
		errs.add("lostWorkdays", "must not be negative")
	}
	return errs.orNil()
}

func (f *AccidentForm) Accident() model.Accident {
	severity := f.Severity
	if severity == "" {
		severity = model.SeverityMinor
	}
	return model.Accident{
		EmployeeID:   f.EmployeeID,
		Date:         f.Date,
		Location:     f.Location,
		Severity:     severity,
		Description:  f.Description,
		LostWorkdays: f.LostWorkdays,
	}
}

// TrainingForm is the input for a training session. Attendees may be given
// as a comma separated list or by repeating employeeIds.
type TrainingForm struct {
	Title          string     `form:"title"`
	Instructor     string     `form:"instructor"`
	Date           model.Date `form:"date"`
	ValidityMonths int        `form:"validityMonths"`
	Hours          int        `form:"hours"`
	EmployeeIDs    []int64    `form:"employeeIds"`
}

func (f *TrainingForm) Validate() error {
	errs := FieldErrors{}
	if strings.TrimSpace(f.Title) == "" {
		errs.add("title", "is required")
	}
	if f.Date.IsZero() {
		errs.add("date", "is required")
	}
	if f.ValidityMonths < 0 {
		errs.add("validityMonths", "must not be negative")
	}
	if f.Hours < 0 {
		errs.add("hours", "must not be negative")
	}
	return errs.orNil()
}

func (f *TrainingForm) Input() safework.TrainingInput {
	return safework.TrainingInput{
		Title:          f.Title,
		Instructor:     f.Instructor,
		Date:           f.Date,
		ValidityMonths: f.ValidityMonths,
		Hours:          f.Hours,
		EmployeeIDs:    f.EmployeeIDs,
	}
}

var priorities = []model.CommunicationPriority{model.PriorityLow, model.PriorityNormal, model.PriorityHigh}

// CommunicationForm is the input for a notice. Priority defaults to normal
// and the publication date to today.
type CommunicationForm struct {
	Title       string                      `form:"title"`
	Message     string                      `form:"message"`
	Audience    string                      `form:"audience"`
	Priority    model.CommunicationPriority `form:"priority"`
	PublishedAt model.Date                  `form:"publishedAt"`
}

func (f *CommunicationForm) Validate() error {
	errs := FieldErrors{}
	if strings.TrimSpace(f.Title) == "" {
		errs.add("title", "is required")
	}
	if strings.TrimSpace(f.Message) == "" {
		errs.add("message", "is required")
	}
	if f.Priority != "" && !slices.Contains(priorities, f.Priority) {
		errs.add("priority", "must be one of low, normal, high")
	}
	return errs.orNil()
}

func (f *CommunicationForm) Communication(today model.Date) model.Communication {
	c := model.Communication{
		Title:       strings.TrimSpace(f.Title),
		Message:     f.Message,
		Audience:    f.Audience,
		Priority:    f.Priority,
		PublishedAt: f.PublishedAt,
	}
	if c.Priority == "" {
		c.Priority = model.PriorityNormal
	}
	if c.PublishedAt.IsZero() {
		c.PublishedAt = today
	}
	return c
}

// DocumentForm is the input for a compliance document.
type DocumentForm struct {
	Title      string     `form:"title"`
	Kind       string     `form:"kind"`
	FileName   string     `form:"fileName"`
	UploadDate model.Date `form:"uploadDate"`
	ExpiryDate model.Date `form:"expiryDate"`
	Notes      string     `form:"notes"`
}

func (f *DocumentForm) Validate() error {
	errs := FieldErrors{}
	if strings.TrimSpace(f.Title) == "" {
		errs.add("title", "is required")
	}
	if f.ExpiryDate.IsZero() {
		errs.add("expiryDate", "is required")
	}
	if !f.UploadDate.IsZero() && !f.ExpiryDate.IsZero() && f.ExpiryDate.Before(f.UploadDate.Time) {
		errs.add("expiryDate", "must not be before uploadDate")
	}
	return errs.orNil()
}

func (f *DocumentForm) Input() safework.DocumentInput {
	return safework.DocumentInput{
		Title:      f.Title,
		Kind:       f.Kind,
		FileName:   f.FileName,
		UploadDate: f.UploadDate,
		ExpiryDate: f.ExpiryDate,
		Notes:      f.Notes,
	}
}

var results = []model.InspectionResult{model.ResultPending, model.ResultCompliant, model.ResultNonCompliant}

// InspectionForm is the input for a site inspection. Result defaults to
// pending.
type InspectionForm struct {
	Area          string                 `form:"area"`
	Inspector     string                 `form:"inspector"`
	ScheduledDate model.Date             `form:"scheduledDate"`
	CompletedDate model.Date             `form:"completedDate"`
	Result        model.InspectionResult `form:"result"`
	Findings      string                 `form:"findings"`
}

func (f *InspectionForm) Validate() error {
	errs := FieldErrors{}
	if strings.TrimSpace(f.Area) == "" {
		errs.add("area", "is required")
	}
	if f.ScheduledDate.IsZero() {
		errs.add("scheduledDate", "is required")
	}
	if f.Result != "" && !slices.Contains(results, f.Result) {
		errs.add("result", "must be one of pending, compliant, non_compliant")
	}
	if f.Result != "" && f.Result != model.ResultPending && f.CompletedDate.IsZero() {
		errs.add("completedDate", "is required once a result is recorded")
	}
	return errs.orNil()
}

func (f *InspectionForm) Inspection() model.Inspection {
	result := f.Result
	if result == "" {
		result = model.ResultPending
	}
	return model.Inspection{
		Area:          strings.TrimSpace(f.Area),
		Inspector:     f.Inspector,
		ScheduledDate: f.ScheduledDate,
		CompletedDate: f.CompletedDate,
		Result:        result,
		Findings:      f.Findings,
	}
}
