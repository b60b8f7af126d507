package core_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JonMunkholm/vetimport/internal/core"
)

func TestRegistry_AllTablesRegistered(t *testing.T) {
	want := []core.TableType{
		core.TableEquineHealth,
		core.TableLab,
		core.TableMobileClinic,
		core.TableParasiteControl,
		core.TableVaccination,
	}
	if diff := cmp.Diff(want, core.Types()); diff != "" {
		t.Errorf("Types() mismatch (-want +got):\n%s", diff)
	}
	if core.TableCount() != len(want) {
		t.Errorf("TableCount() = %d, want %d", core.TableCount(), len(want))
	}
}

func TestRegistry_Definitions(t *testing.T) {
	tests := []struct {
		tableType     core.TableType
		requiredField string
		endpoint      string
	}{
		{core.TableLab, "sampleCode", "/api/import/lab-tests"},
		{core.TableVaccination, "vaccinationType", "/api/import/vaccinations"},
		{core.TableParasiteControl, "insecticideType", "/api/import/parasite-control"},
		{core.TableMobileClinic, "diagnosis", "/api/import/mobile-clinic-visits"},
		{core.TableEquineHealth, "surgeryType", "/api/import/equine-health"},
	}

	for _, tt := range tests {
		def, ok := core.Get(tt.tableType)
		if !ok {
			t.Fatalf("Get(%q) not found", tt.tableType)
		}
		if def.RequiredField != tt.requiredField || def.Endpoint != tt.endpoint {
			t.Errorf("Get(%q) = %+v", tt.tableType, def)
		}
	}
}

func TestRegister_DuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Register() of an existing type should panic")
		}
	}()
	core.Register(core.TableDefinition{
		Type:          core.TableLab,
		RequiredField: "sampleCode",
		Endpoint:      "/api/import/lab-tests",
	})
}

func TestDispatch(t *testing.T) {
	tests := []struct {
		name       string
		tableType  core.TableType
		rows       int
		maxRows    int
		wantReason core.ValidationReason
	}{
		{name: "ok", tableType: core.TableLab, rows: 1, maxRows: 10},
		{name: "at ceiling", tableType: core.TableLab, rows: 10, maxRows: 10},
		{name: "over ceiling", tableType: core.TableLab, rows: 11, maxRows: 10, wantReason: core.ReasonTooManyRows},
		{name: "default ceiling", tableType: core.TableLab, rows: core.DefaultMaxRows, maxRows: 0},
		{name: "over default ceiling", tableType: core.TableLab, rows: core.DefaultMaxRows + 1, maxRows: 0, wantReason: core.ReasonTooManyRows},
		{name: "no rows", tableType: core.TableLab, rows: 0, maxRows: 10, wantReason: core.ReasonNoRows},
		{name: "unknown", tableType: "poultry", rows: 1, maxRows: 10, wantReason: core.ReasonUnknownTable},
		{name: "case sensitive", tableType: "LAB", rows: 1, maxRows: 10, wantReason: core.ReasonUnknownTable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, err := core.Dispatch(tt.tableType, tt.rows, tt.maxRows)

			if tt.wantReason == "" {
				if err != nil {
					t.Fatalf("Dispatch() error = %v", err)
				}
				if def.Type != tt.tableType {
					t.Errorf("Dispatch() type = %q, want %q", def.Type, tt.tableType)
				}
				return
			}

			var ve *core.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Dispatch() error = %v, want ValidationError", err)
			}
			if ve.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", ve.Reason, tt.wantReason)
			}
		})
	}
}
