package probe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"swiftgo/pkg/model"
)

func TestRun(t *testing.T) {
	probes := []Probe{
		{
			Name:     "Success Probe",
			Check:    func(ctx context.Context) error { return nil },
			Critical: true,
		},
		{
			Name:     "Failure Probe (Non-Critical)",
			Check:    func(ctx context.Context) error { return errors.New("minor issue") },
			Critical: false,
		},
		{
			Name: "Deadline Probe",
			Check: func(ctx context.Context) error {
				if _, ok := ctx.Deadline(); !ok {
					return errors.New("no deadline")
				}
				return nil
			},
		},
	}

	results := Run(context.Background(), probes)

	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}
	if results[0].Error != nil {
		t.Errorf("Expected success probe to pass, got error: %v", results[0].Error)
	}
	if results[1].Error == nil {
		t.Error("Expected failure probe to fail, got nil")
	}
	if results[2].Error != nil {
		t.Errorf("Expected every check to run with a deadline: %v", results[2].Error)
	}
}

func TestAnalyzeResults(t *testing.T) {
	tests := []struct {
		name    string
		results []Result
		wantErr bool
	}{
		{
			name:    "All Pass",
			results: []Result{{Probe: Probe{Name: "P1", Critical: true}}},
			wantErr: false,
		},
		{
			name:    "Critical Failure",
			results: []Result{{Probe: Probe{Name: "P1", Critical: true}, Error: errors.New("fail")}},
			wantErr: true,
		},
		{
			name:    "Non-Critical Failure",
			results: []Result{{Probe: Probe{Name: "P1", Critical: false}, Error: errors.New("fail")}},
			wantErr: false,
		},
		{
			name: "Mixed Failure",
			results: []Result{
				{Probe: Probe{Name: "P1", Critical: false}, Error: errors.New("fail")},
				{Probe: Probe{Name: "P2", Critical: true}, Error: errors.New("fail")},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := AnalyzeResults(tt.results)
			if (err != nil) != tt.wantErr {
				t.Errorf("AnalyzeResults() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

type pinger struct{ err error }

func (p pinger) PingContext(context.Context) error { return p.err }

type lister []model.Model

func (l lister) ListModels(context.Context) ([]model.Model, error) { return l, nil }

func TestChecks(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "models.yaml")
	if err := os.WriteFile(file, []byte("models: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		check   CheckFunc
		wantErr bool
	}{
		{"DatabaseUp", Database(pinger{}), false},
		{"DatabaseDown", Database(pinger{errors.New("closed")}), true},
		{"ModelsImported", Models(lister{{Title: "FSLTL A320", ICAOType: "A320"}}, ""), false},
		{"DefaultModelOnly", Models(lister{}, "Airbus A320 Neo Asobo"), false},
		{"NoModels", Models(lister{}, ""), true},
		{"FileExists", File(file), false},
		{"FileEmptyPath", File(""), false},
		{"FileMissing", File(filepath.Join(dir, "missing.yaml")), true},
		{"FileIsDir", File(dir), true},
		{"SimConnect", SimBackend("simconnect", false), false},
		{"MockRequested", SimBackend("mock", true), false},
		{"FellBackToMock", SimBackend("simconnect", true), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := tt.check(ctx); (err != nil) != tt.wantErr {
				t.Errorf("check error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
