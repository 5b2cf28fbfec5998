package validation

import (
	"strings"
	"testing"
)

type nodeRecord struct {
	ID        string   `json:"id" validate:"required"`
	Identity  string   `json:"identity_type" validate:"omitempty,oneof=anonymous verified"`
	Credulity *float64 `json:"credulity" validate:"omitempty,probability"`
}

type document struct {
	Nodes []nodeRecord `json:"nodes" validate:"required,min=1,dive"`
	Steps int          `json:"num_timesteps" validate:"gte=0"`
}

func prob(v float64) *float64 { return &v }

func TestStruct(t *testing.T) {
	tests := []struct {
		name        string
		doc         document
		expectError bool
		errorField  string
	}{
		{
			name: "valid document",
			doc: document{
				Nodes: []nodeRecord{{ID: "0", Identity: "verified", Credulity: prob(0.4)}},
				Steps: 10,
			},
		},
		{
			name:        "no nodes",
			doc:         document{},
			expectError: true,
			errorField:  "nodes",
		},
		{
			name:        "missing id",
			doc:         document{Nodes: []nodeRecord{{}}},
			expectError: true,
			errorField:  "nodes[0].id",
		},
		{
			name:        "bad identity",
			doc:         document{Nodes: []nodeRecord{{ID: "1", Identity: "bot"}}},
			expectError: true,
			errorField:  "nodes[0].identity_type",
		},
		{
			name:        "credulity out of range",
			doc:         document{Nodes: []nodeRecord{{ID: "1", Credulity: prob(1.2)}}},
			expectError: true,
			errorField:  "nodes[0].credulity",
		},
		{
			name:        "negative timesteps",
			doc:         document{Nodes: []nodeRecord{{ID: "1"}}, Steps: -1},
			expectError: true,
			errorField:  "num_timesteps",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(&tt.doc)
			if tt.expectError {
				if err == nil {
					t.Fatal("Expected error, got nil")
				}
				if !strings.HasPrefix(err.Error(), tt.errorField+":") {
					t.Errorf("error %q does not start with field %q", err, tt.errorField)
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestStruct_Nil(t *testing.T) {
	if err := Struct(nil); err == nil {
		t.Error("expected error for nil value")
	}
}

func TestVar(t *testing.T) {
	if err := Var("runs", 0, "gt=0"); err == nil || !strings.HasPrefix(err.Error(), "runs:") {
		t.Errorf("Var(runs=0) = %v", err)
	}
	if err := Var("trust", 0.5, "probability"); err != nil {
		t.Errorf("Var(trust=0.5) = %v", err)
	}
	if err := Var("trust", 1.5, "probability"); err == nil {
		t.Error("Var(trust=1.5) should fail")
	}
}
