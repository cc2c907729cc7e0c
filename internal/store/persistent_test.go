package store_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"safework/internal/blob"
	"safework/internal/model"
	"safework/internal/safework"
	"safework/internal/store"
	"safework/internal/testutil"
)

func TestPersistent_RoundTrip(t *testing.T) {
	ctx := context.Background()
	clock := testutil.FixedClock()
	blobs := testutil.NewTestBlobStore()

	p, err := store.OpenPersistent(ctx, blobs, store.DefaultKey, clock, safework.NewNopLogger())
	if err != nil {
		t.Fatalf("OpenPersistent() error = %v", err)
	}
	if _, err := p.Employees.Create(model.Employee{Name: "Ana", HireDate: model.NewDate(2020, 2, 29), Active: true}); err != nil {
		t.Fatal(err)
	}
	if _, err := p.PPEs.Create(model.PPE{Name: "Helmet", ValidityMonths: 12, UnitCost: decimal.RequireFromString("45.90")}); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Trainings.Create(model.Training{Title: "NR-35", Date: model.NewDate(2025, 1, 1), EmployeeIDs: []int64{1}}); err != nil {
		t.Fatal(err)
	}
	if err := p.LastError(); err != nil {
		t.Fatalf("LastError() = %v", err)
	}

	stored, err := blobs.Get(ctx, store.DefaultKey)
	if err != nil {
		t.Fatalf("blob not written: %v", err)
	}

	reopened, err := store.OpenPersistent(ctx, blobs, store.DefaultKey, clock, safework.NewNopLogger())
	if err != nil {
		t.Fatalf("reopening: %v", err)
	}
	again, err := store.EncodeSnapshot(reopened.Snapshot())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(stored, again) {
		t.Errorf("reloaded snapshot differs:\n got %s\nwant %s", again, stored)
	}

	emp, err := reopened.Employees.Get(1)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if emp.Name != "Ana" || emp.HireDate.String() != "2020-02-29" || !emp.CreatedAt.Equal(clock.Now()) {
		t.Errorf("reloaded employee = %+v", emp)
	}
	ppe, _ := reopened.PPEs.Get(1)
	if !ppe.UnitCost.Equal(decimal.RequireFromString("45.90")) {
		t.Errorf("UnitCost = %s", ppe.UnitCost)
	}

	next, _ := reopened.Employees.Create(model.Employee{Name: "Bruno"})
	if next.ID != 2 {
		t.Errorf("ID after reload = %d, want 2", next.ID)
	}
}

func TestPersistent_SnapshotLayout(t *testing.T) {
	ctx := context.Background()
	blobs := testutil.NewTestBlobStore()
	p, err := store.OpenPersistent(ctx, blobs, store.DefaultKey, testutil.FixedClock(), safework.NewNopLogger())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Deliveries.Create(model.PPEDelivery{EmployeeID: 1, PPEID: 1, IssueDate: model.NewDate(2025, 1, 1)}); err != nil {
		t.Fatal(err)
	}

	data, _ := blobs.Get(ctx, store.DefaultKey)
	for _, name := range model.CollectionNames {
		if !strings.Contains(string(data), `"`+name+`":`) {
			t.Errorf("snapshot has no %q key: %s", name, data)
		}
	}
	if !strings.Contains(string(data), `"issueDate":"2025-01-01"`) {
		t.Errorf("dates not stored as calendar days: %s", data)
	}
}

func TestPersistent_WriteFailure(t *testing.T) {
	ctx := context.Background()
	blobs := testutil.NewFlakyBlobStore()
	logger := testutil.NewRecordingLogger()

	p, err := store.OpenPersistent(ctx, blobs, store.DefaultKey, testutil.FixedClock(), logger)
	if err != nil {
		t.Fatalf("OpenPersistent() error = %v", err)
	}

	blobs.SetFail(true)
	emp, err := p.Employees.Create(model.Employee{Name: "Ana"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := p.Employees.Get(emp.ID); err != nil {
		t.Errorf("mutation rolled back after failed write: %v", err)
	}
	if err := p.LastError(); !errors.Is(err, safework.ErrPersistenceWrite) {
		t.Errorf("LastError() = %v, want ErrPersistenceWrite", err)
	}
	errs := logger.Entries("ERROR")
	if len(errs) != 1 {
		t.Fatalf("got %d error entries, want 1", len(errs))
	}
	if line := errs[0].String(); !strings.Contains(line, "key="+store.DefaultKey) {
		t.Errorf("error log does not name the key: %s", line)
	}

	blobs.SetFail(false)
	if _, err := p.Employees.Update(emp.ID, safework.Patch{"role": "welder"}); err != nil {
		t.Fatal(err)
	}
	if err := p.LastError(); err != nil {
		t.Errorf("LastError() after recovery = %v", err)
	}
	if blobs.Puts() != 2 {
		t.Errorf("Puts() = %d, want 2", blobs.Puts())
	}

	data, err := blobs.Get(ctx, store.DefaultKey)
	if err != nil {
		t.Fatalf("blob missing after recovery: %v", err)
	}
	snap, err := store.DecodeSnapshot(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Employees) != 1 || snap.Employees[0].Role != "welder" {
		t.Errorf("persisted employees = %+v", snap.Employees)
	}
}

func TestPersistent_Close(t *testing.T) {
	ctx := context.Background()
	blobs := testutil.NewFlakyBlobStore()
	p, err := store.OpenPersistent(ctx, blobs, store.DefaultKey, testutil.FixedClock(), safework.NewNopLogger())
	if err != nil {
		t.Fatal(err)
	}
	p.Close()

	if _, err := p.Employees.Create(model.Employee{Name: "Ana"}); err != nil {
		t.Fatal(err)
	}
	if blobs.Puts() != 0 {
		t.Errorf("Puts() = %d after Close, want 0", blobs.Puts())
	}
}

func TestPersistent_Encrypted(t *testing.T) {
	ctx := context.Background()
	clock := testutil.FixedClock()
	inner := testutil.NewTestBlobStore()

	enc := testutil.NewTestEncryptor()
	dec, err := enc.Unlock("secret")
	if err != nil {
		t.Fatal(err)
	}
	blobs := blob.NewEncryptedBlobStore(inner, enc, dec)

	p, err := store.OpenPersistent(ctx, blobs, store.DefaultKey, clock, safework.NewNopLogger())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Employees.Create(model.Employee{Name: "Ana"}); err != nil {
		t.Fatal(err)
	}

	raw, err := inner.Get(ctx, store.DefaultKey)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.HasPrefix(raw, []byte("{")) {
		t.Errorf("stored blob is plain JSON: %q", raw)
	}

	clock.AdvanceDays(1)
	reopened, err := store.OpenPersistent(ctx, blobs, store.DefaultKey, clock, safework.NewNopLogger())
	if err != nil {
		t.Fatalf("reopening: %v", err)
	}
	first, _ := reopened.Employees.Get(1)
	second, _ := reopened.Employees.Create(model.Employee{Name: "Bruno"})
	if !second.CreatedAt.After(first.CreatedAt) {
		t.Errorf("CreatedAt = %v, want after %v", second.CreatedAt, first.CreatedAt)
	}

	if _, err := store.OpenPersistent(ctx, inner, store.DefaultKey, clock, safework.NewNopLogger()); err == nil {
		t.Error("opening the encrypted blob without decrypting should fail")
	}
}

func TestOpenPersistent_BadBlob(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		data string
	}{
		{"not json", "{employees"},
		{"duplicate ids", `{"employees":[{"id":1},{"id":1}]}`},
		{"bad date", `{"documents":[{"id":1,"expiryDate":"31/12/2025"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blobs := testutil.NewTestBlobStore()
			if err := blobs.Put(ctx, store.DefaultKey, []byte(tt.data)); err != nil {
				t.Fatal(err)
			}
			_, err := store.OpenPersistent(ctx, blobs, store.DefaultKey, testutil.FixedClock(), safework.NewNopLogger())
			if !errors.Is(err, safework.ErrInvalidInput) {
				t.Errorf("error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestRegistry_LoadIsAllOrNothing(t *testing.T) {
	reg := testutil.NewTestRegistry(t, testutil.FixedClock())
	if _, err := reg.Employees.Create(model.Employee{Name: "Ana"}); err != nil {
		t.Fatal(err)
	}

	err := reg.Load(store.Snapshot{
		Employees: []model.Employee{{Meta: model.Meta{ID: 5}, Name: "Zé"}},
		PPEs:      []model.PPE{{Meta: model.Meta{ID: -1}}},
	})
	if !errors.Is(err, safework.ErrInvalidInput) {
		t.Fatalf("Load() error = %v, want ErrInvalidInput", err)
	}
	got := reg.Employees.All()
	if len(got) != 1 || got[0].Name != "Ana" {
		t.Errorf("employees replaced by failed load: %+v", got)
	}

	counts := reg.Counts()
	if counts[model.CollectionEmployees] != 1 || counts[model.CollectionPPEs] != 0 {
		t.Errorf("Counts() = %v", counts)
	}
}
