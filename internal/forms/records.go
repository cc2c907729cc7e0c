package forms

import (
	"fmt"

	"safework/internal/model"
	"safework/internal/safework"
)

// ValidateRecord checks a stored record against the rules of the form that
// creates it. Updates run the merged record through it before storing.
func ValidateRecord(rec any) error {
	switch r := rec.(type) {
	case model.Employee:
		active := r.Active
		f := EmployeeForm{
			Name: r.Name, Registration: r.Registration, Role: r.Role, Department: r.Department,
			Email: r.Email, Phone: r.Phone, HireDate: r.HireDate, Active: &active,
		}
		return f.Validate()
	case model.PPE:
		f := PPEForm{
			Name: r.Name, Category: r.Category, ProtectionClass: r.ProtectionClass,
			CertificateNumber: r.CertificateNumber, Manufacturer: r.Manufacturer,
			ValidityMonths: r.ValidityMonths, UnitCost: r.UnitCost,
		}
		return f.Validate()
	case model.PPEDelivery:
		f := DeliveryForm{
			EmployeeID: r.EmployeeID, PPEID: r.PPEID, Quantity: r.Quantity,
			IssueDate: r.IssueDate, Notes: r.Notes,
		}
		err := f.Validate()
		if r.Quantity != 0 {
			return err
		}
		errs, ok := err.(FieldErrors)
		if !ok {
			errs = FieldErrors{}
		}
		// A stored delivery always has a quantity; only new ones default it.
		errs.add("quantity", "must be positive")
		return errs
	case model.Accident:
		f := AccidentForm{
			EmployeeID: r.EmployeeID, Date: r.Date, Location: r.Location, Severity: r.Severity,
			Description: r.Description, LostWorkdays: r.LostWorkdays,
		}
		return f.Validate()
	case model.Training:
		f := TrainingForm{
			Title: r.Title, Instructor: r.Instructor, Date: r.Date, ValidityMonths: r.ValidityMonths,
			Hours: r.Hours, EmployeeIDs: r.EmployeeIDs,
		}
		return f.Validate()
	case model.Communication:
		f := CommunicationForm{
			Title: r.Title, Message: r.Message, Audience: r.Audience, Priority: r.Priority,
			PublishedAt: r.PublishedAt,
		}
		return f.Validate()
	case model.Document:
		f := DocumentForm{
			Title: r.Title, Kind: r.Kind, FileName: r.FileName, UploadDate: r.UploadDate,
			ExpiryDate: r.ExpiryDate, Notes: r.Notes,
		}
		return f.Validate()
	case model.Inspection:
		f := InspectionForm{
			Area: r.Area, Inspector: r.Inspector, ScheduledDate: r.ScheduledDate,
			CompletedDate: r.CompletedDate, Result: r.Result, Findings: r.Findings,
		}
		return f.Validate()
	}
	return fmt.Errorf("%w: no validation rules for %T", safework.ErrInvalidInput, rec)
}
