package safework_test

import (
	"errors"
	"slices"
	"testing"

	"safework/internal/model"
	"safework/internal/safework"
)

func TestApplyPatch(t *testing.T) {
	current := model.Employee{
		Meta:       model.Meta{ID: 3},
		Name:       "Ana",
		Department: "Welding",
		HireDate:   model.NewDate(2020, 5, 1),
		Active:     true,
	}

	t.Run("replaces named fields only", func(t *testing.T) {
		got, err := safework.ApplyPatch(current, safework.Patch{
			"department": "Assembly",
			"active":     false,
			"hireDate":   "2021-02-03",
		})
		if err != nil {
			t.Fatalf("ApplyPatch() error = %v", err)
		}
		if got.Department != "Assembly" || got.Active {
			t.Errorf("got %+v", got)
		}
		if !got.HireDate.Equal(model.NewDate(2021, 2, 3).Time) {
			t.Errorf("HireDate = %s", got.HireDate)
		}
		if got.Name != "Ana" || got.ID != 3 {
			t.Errorf("untouched fields changed: %+v", got)
		}
		if current.Department != "Welding" {
			t.Error("ApplyPatch modified its input")
		}
	})

	t.Run("rejects read-only fields", func(t *testing.T) {
		for _, key := range []string{"id", "createdAt"} {
			_, err := safework.ApplyPatch(current, safework.Patch{key: 9})
			if !errors.Is(err, safework.ErrInvalidInput) {
				t.Errorf("patch %q: error = %v, want ErrInvalidInput", key, err)
			}
		}
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		_, err := safework.ApplyPatch(current, safework.Patch{"salary": 100})
		if !errors.Is(err, safework.ErrInvalidInput) {
			t.Errorf("error = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("rejects mistyped values", func(t *testing.T) {
		_, err := safework.ApplyPatch(current, safework.Patch{"active": "yes"})
		if !errors.Is(err, safework.ErrInvalidInput) {
			t.Errorf("error = %v, want ErrInvalidInput", err)
		}
		_, err = safework.ApplyPatch(current, safework.Patch{"hireDate": "01/02/2021"})
		if !errors.Is(err, safework.ErrInvalidInput) {
			t.Errorf("bad date: error = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("replaces slices wholesale", func(t *testing.T) {
		tr := model.Training{Title: "NR-35", EmployeeIDs: []int64{1, 2, 3}}
		got, err := safework.ApplyPatch(tr, safework.Patch{"employeeIds": []int64{7}})
		if err != nil {
			t.Fatalf("ApplyPatch() error = %v", err)
		}
		if !slices.Equal(got.EmployeeIDs, []int64{7}) {
			t.Errorf("EmployeeIDs = %v, want [7]", got.EmployeeIDs)
		}
	})
}

func TestPatchFromStrings(t *testing.T) {
	current := model.PPEDelivery{Quantity: 1, IssueDate: model.NewDate(2025, 1, 1)}

	t.Run("types values by field", func(t *testing.T) {
		patch, err := safework.PatchFromStrings(current, map[string]string{
			"quantity":  "3",
			"issueDate": "2025-02-01",
			"notes":     "12",
		})
		if err != nil {
			t.Fatalf("PatchFromStrings() error = %v", err)
		}
		got, err := safework.ApplyPatch(current, patch)
		if err != nil {
			t.Fatalf("ApplyPatch() error = %v", err)
		}
		if got.Quantity != 3 {
			t.Errorf("Quantity = %d, want 3", got.Quantity)
		}
		if got.Notes != "12" {
			t.Errorf("Notes = %q, want \"12\"", got.Notes)
		}
		if got.IssueDate.String() != "2025-02-01" {
			t.Errorf("IssueDate = %s", got.IssueDate)
		}
	})

	t.Run("fills null date fields", func(t *testing.T) {
		patch, err := safework.PatchFromStrings(model.Inspection{}, map[string]string{"completedDate": "2025-03-04"})
		if err != nil {
			t.Fatalf("PatchFromStrings() error = %v", err)
		}
		got, err := safework.ApplyPatch(model.Inspection{}, patch)
		if err != nil {
			t.Fatalf("ApplyPatch() error = %v", err)
		}
		if got.CompletedDate.String() != "2025-03-04" {
			t.Errorf("CompletedDate = %s", got.CompletedDate)
		}
	})

	t.Run("rejects non-numeric numbers", func(t *testing.T) {
		_, err := safework.PatchFromStrings(current, map[string]string{"quantity": "three"})
		if !errors.Is(err, safework.ErrInvalidInput) {
			t.Errorf("error = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		_, err := safework.PatchFromStrings(current, map[string]string{"colour": "red"})
		if !errors.Is(err, safework.ErrInvalidInput) {
			t.Errorf("error = %v, want ErrInvalidInput", err)
		}
	})
}
