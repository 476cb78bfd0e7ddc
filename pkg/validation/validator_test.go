package validation

import (
	"math"
	"strings"
	"testing"

	"github.com/dd0wney/cluso-waternet/pkg/geometry"
)

type addNodeRequest struct {
	NodeType    string            `validate:"required,nodetype"`
	Coordinates geometry.Position `validate:"finite"`
	Elevation   float64           `validate:"finite"`
}

type addLinkRequest struct {
	LinkType    string              `validate:"required,linktype"`
	Coordinates []geometry.Position `validate:"min=2,dive,finite"`
	StartNodeID uint32              `validate:"required"`
}

// TestStruct tests tag-driven request validation
func TestStruct(t *testing.T) {
	tests := []struct {
		name        string
		req         any
		expectError bool
		errorField  string
	}{
		{
			name:        "Valid node request",
			req:         &addNodeRequest{NodeType: "junction", Coordinates: geometry.Position{1, 2}},
			expectError: false,
		},
		{
			name:        "Missing node type",
			req:         &addNodeRequest{},
			expectError: true,
			errorField:  "NodeType",
		},
		{
			name:        "Link type given as node type",
			req:         &addNodeRequest{NodeType: "pipe"},
			expectError: true,
			errorField:  "NodeType",
		},
		{
			name:        "NaN coordinate",
			req:         &addNodeRequest{NodeType: "tank", Coordinates: geometry.Position{math.NaN(), 0}},
			expectError: true,
			errorField:  "Coordinates",
		},
		{
			name:        "Infinite elevation",
			req:         &addNodeRequest{NodeType: "tank", Elevation: math.Inf(1)},
			expectError: true,
			errorField:  "Elevation",
		},
		{
			name:        "Valid link request",
			req:         &addLinkRequest{LinkType: "valve", Coordinates: []geometry.Position{{0, 0}, {1, 1}}, StartNodeID: 1},
			expectError: false,
		},
		{
			name:        "Degenerate link",
			req:         &addLinkRequest{LinkType: "pipe", Coordinates: []geometry.Position{{0, 0}}, StartNodeID: 1},
			expectError: true,
			errorField:  "Coordinates",
		},
		{
			name:        "Infinite vertex",
			req:         &addLinkRequest{LinkType: "pipe", Coordinates: []geometry.Position{{0, 0}, {math.Inf(-1), 1}}, StartNodeID: 1},
			expectError: true,
			errorField:  "Coordinates",
		},
		{
			name:        "Unknown link type",
			req:         &addLinkRequest{LinkType: "hose", Coordinates: []geometry.Position{{0, 0}, {1, 1}}, StartNodeID: 1},
			expectError: true,
			errorField:  "LinkType",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.req)
			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got none")
				} else if !strings.Contains(err.Error(), tt.errorField) {
					t.Errorf("Expected error to contain field '%s', got: %v", tt.errorField, err)
				}
			} else if err != nil {
				t.Errorf("Expected no error, got: %v", err)
			}
		})
	}
}

func TestStructNil(t *testing.T) {
	if err := Struct(nil); err == nil {
		t.Error("Expected error for nil request")
	}
}

// TestValidateBatchSize tests batch size validation
func TestValidateBatchSize(t *testing.T) {
	tests := []struct {
		name        string
		size        int
		expectError bool
	}{
		{"Valid batch size", 100, false},
		{"Minimum batch size", MinBatchSize, false},
		{"Maximum batch size", MaxBatchSize, false},
		{"Zero size", 0, true},
		{"Negative size", -1, true},
		{"Exceeds maximum", MaxBatchSize + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBatchSize(tt.size)
			if tt.expectError && err == nil {
				t.Errorf("Expected error for size %d but got none", tt.size)
			} else if !tt.expectError && err != nil {
				t.Errorf("Expected no error for size %d, got: %v", tt.size, err)
			}
		})
	}
}

// TestValidatePropertyName tests property name validation
func TestValidatePropertyName(t *testing.T) {
	tests := []struct {
		name        string
		property    string
		expectError bool
	}{
		{"Simple name", "diameter", false},
		{"Camel case", "initialStatus", false},
		{"With digits", "level2", false},
		{"Empty", "", true},
		{"Leading capital", "Diameter", true},
		{"Underscore", "minor_loss", true},
		{"Starts with digit", "2level", true},
		{"Too long", "a" + strings.Repeat("b", MaxPropertyName), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePropertyName(tt.property)
			if tt.expectError && err == nil {
				t.Errorf("ValidatePropertyName(%q) = nil, want error", tt.property)
			} else if !tt.expectError && err != nil {
				t.Errorf("ValidatePropertyName(%q) = %v, want nil", tt.property, err)
			}
		})
	}
}

func TestValidatePolygon(t *testing.T) {
	tests := []struct {
		name        string
		polygon     []geometry.Position
		expectError bool
	}{
		{"Empty ring", nil, false},
		{"Degenerate ring", []geometry.Position{{0, 0}, {1, 1}}, false},
		{"Triangle", []geometry.Position{{0, 0}, {1, 0}, {0, 1}}, false},
		{"NaN vertex", []geometry.Position{{0, 0}, {math.NaN(), 0}, {0, 1}}, true},
		{"Too many vertices", make([]geometry.Position, MaxPolygonVertices+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePolygon(tt.polygon)
			if tt.expectError && err == nil {
				t.Errorf("ValidatePolygon() = nil, want error")
			} else if !tt.expectError && err != nil {
				t.Errorf("ValidatePolygon() = %v, want nil", err)
			}
		})
	}
}
