package store_test

import (
	"errors"
	"slices"
	"testing"
	"time"

	"safework/internal/model"
	"safework/internal/safework"
	"safework/internal/store"
	"safework/internal/testutil"
)

func newEmployees(clock safework.Clock) *store.Collection[model.Employee, *model.Employee] {
	return store.NewCollection[model.Employee](model.CollectionEmployees, clock, safework.NewNopLogger())
}

func TestCollection_Create(t *testing.T) {
	t.Run("assigns sequential ids and creation time", func(t *testing.T) {
		t.Parallel()
		clock := testutil.FixedClock()
		c := newEmployees(clock)

		a, err := c.Create(model.Employee{Name: "Ana"})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		clock.Advance(time.Hour)
		b, err := c.Create(model.Employee{Name: "Bruno"})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		if a.ID != 1 || b.ID != 2 {
			t.Errorf("ids = %d, %d, want 1, 2", a.ID, b.ID)
		}
		if !a.CreatedAt.Equal(testutil.FixedClock().Now()) {
			t.Errorf("CreatedAt = %v", a.CreatedAt)
		}
		if !b.CreatedAt.Equal(a.CreatedAt.Add(time.Hour)) {
			t.Errorf("CreatedAt = %v, want an hour after %v", b.CreatedAt, a.CreatedAt)
		}
	})

	t.Run("ignores caller supplied identity", func(t *testing.T) {
		t.Parallel()
		c := newEmployees(testutil.FixedClock())

		got, err := c.Create(model.Employee{Meta: model.Meta{ID: 50}, Name: "Ana"})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if got.ID != 1 {
			t.Errorf("ID = %d, want 1", got.ID)
		}
	})

	t.Run("next id follows the highest id", func(t *testing.T) {
		t.Parallel()
		c := newEmployees(testutil.FixedClock())
		for _, name := range []string{"a", "b", "c"} {
			if _, err := c.Create(model.Employee{Name: name}); err != nil {
				t.Fatal(err)
			}
		}
		if err := c.Delete(2); err != nil {
			t.Fatal(err)
		}

		got, _ := c.Create(model.Employee{Name: "d"})
		if got.ID != 4 {
			t.Errorf("ID = %d, want 4", got.ID)
		}

		// Deleting the highest id frees it again.
		if err := c.Delete(4); err != nil {
			t.Fatal(err)
		}
		if err := c.Delete(3); err != nil {
			t.Fatal(err)
		}
		got, _ = c.Create(model.Employee{Name: "e"})
		if got.ID != 2 {
			t.Errorf("ID = %d, want 2", got.ID)
		}
	})

	t.Run("empty collection starts at one", func(t *testing.T) {
		t.Parallel()
		c := newEmployees(testutil.FixedClock())
		got, _ := c.Create(model.Employee{})
		if err := c.Delete(got.ID); err != nil {
			t.Fatal(err)
		}
		got, _ = c.Create(model.Employee{})
		if got.ID != 1 {
			t.Errorf("ID = %d, want 1", got.ID)
		}
	})
}

func TestCollection_DefensiveCopies(t *testing.T) {
	c := store.NewCollection[model.Training](model.CollectionTrainings, testutil.FixedClock(), safework.NewNopLogger())

	created, err := c.Create(model.Training{Title: "NR-10", EmployeeIDs: []int64{1, 2}})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	created.Title = "changed"
	created.EmployeeIDs[0] = 99

	all := c.All()
	all[0].EmployeeIDs[1] = 98

	got, err := c.Get(created.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Title != "NR-10" || !slices.Equal(got.EmployeeIDs, []int64{1, 2}) {
		t.Errorf("stored record was aliased: %+v", got)
	}
}

func TestCollection_Update(t *testing.T) {
	setup := func(t *testing.T) (*store.Collection[model.Employee, *model.Employee], model.Employee) {
		t.Helper()
		c := newEmployees(testutil.FixedClock())
		emp, err := c.Create(model.Employee{Name: "Ana", Role: "welder", Active: true})
		if err != nil {
			t.Fatal(err)
		}
		return c, emp
	}

	t.Run("merges fields and keeps identity", func(t *testing.T) {
		t.Parallel()
		c, emp := setup(t)

		got, err := c.Update(emp.ID, safework.Patch{"role": "supervisor"})
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if got.Role != "supervisor" || got.Name != "Ana" || !got.Active {
			t.Errorf("got %+v", got)
		}
		if got.ID != emp.ID || !got.CreatedAt.Equal(emp.CreatedAt) {
			t.Errorf("identity changed: %+v", got.Meta)
		}
	})

	t.Run("missing id leaves collection unchanged", func(t *testing.T) {
		t.Parallel()
		c, _ := setup(t)
		before := c.All()

		_, err := c.Update(7, safework.Patch{"role": "x"})
		if !errors.Is(err, safework.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
		if after := c.All(); !slices.Equal(before, after) {
			t.Errorf("collection changed: %+v", after)
		}
	})

	t.Run("rejects read-only and unknown fields", func(t *testing.T) {
		t.Parallel()
		c, emp := setup(t)

		patches := []safework.Patch{
			{"id": 5},
			{"createdAt": "2020-01-01T00:00:00Z"},
			{"role": "x", "nickname": "y"},
		}
		for _, p := range patches {
			if _, err := c.Update(emp.ID, p); !errors.Is(err, safework.ErrInvalidInput) {
				t.Errorf("patch %v: error = %v, want ErrInvalidInput", p, err)
			}
		}
		got, _ := c.Get(emp.ID)
		if got.Role != "welder" {
			t.Errorf("Role = %q, want welder", got.Role)
		}
	})
}

func TestCollection_Delete(t *testing.T) {
	c := newEmployees(testutil.FixedClock())
	emp, _ := c.Create(model.Employee{Name: "Ana"})

	if err := c.Delete(emp.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := c.Get(emp.ID); !errors.Is(err, safework.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
	if err := c.Delete(emp.ID); !errors.Is(err, safework.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestCollection_Subscribe(t *testing.T) {
	c := newEmployees(testutil.FixedClock())

	var changes []safework.Change
	unsubscribe := c.Subscribe(func(ch safework.Change) {
		// Listeners run outside the lock and may read the collection.
		_ = c.All()
		changes = append(changes, ch)
	})

	emp, _ := c.Create(model.Employee{Name: "Ana"})
	if _, err := c.Update(emp.ID, safework.Patch{"name": "Ana Paula"}); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Update(emp.ID, safework.Patch{"bogus": 1}); err == nil {
		t.Fatal("expected error")
	}
	if err := c.Delete(emp.ID); err != nil {
		t.Fatal(err)
	}

	want := []safework.Change{
		{Collection: model.CollectionEmployees, Op: safework.OpCreate, ID: 1},
		{Collection: model.CollectionEmployees, Op: safework.OpUpdate, ID: 1},
		{Collection: model.CollectionEmployees, Op: safework.OpDelete, ID: 1},
	}
	if !slices.Equal(changes, want) {
		t.Errorf("changes = %+v, want %+v", changes, want)
	}

	unsubscribe()
	unsubscribe()
	if _, err := c.Create(model.Employee{Name: "Bruno"}); err != nil {
		t.Fatal(err)
	}
	if len(changes) != len(want) {
		t.Errorf("listener called after unsubscribe: %d changes", len(changes))
	}
}

func TestCollection_Load(t *testing.T) {
	t.Run("keeps ids and continues numbering", func(t *testing.T) {
		t.Parallel()
		c := newEmployees(testutil.FixedClock())
		err := c.Load([]model.Employee{
			{Meta: model.Meta{ID: 3}, Name: "c"},
			{Meta: model.Meta{ID: 7}, Name: "g"},
		})
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		got, _ := c.Create(model.Employee{Name: "h"})
		if got.ID != 8 {
			t.Errorf("ID = %d, want 8", got.ID)
		}
	})

	t.Run("rejects bad ids", func(t *testing.T) {
		t.Parallel()
		c := newEmployees(testutil.FixedClock())
		bad := [][]model.Employee{
			{{Meta: model.Meta{ID: 0}}},
			{{Meta: model.Meta{ID: 2}}, {Meta: model.Meta{ID: 2}}},
		}
		for _, items := range bad {
			if err := c.Load(items); !errors.Is(err, safework.ErrInvalidInput) {
				t.Errorf("Load(%v) error = %v, want ErrInvalidInput", items, err)
			}
		}
		if c.Len() != 0 {
			t.Errorf("Len() = %d, want 0", c.Len())
		}
	})
}
