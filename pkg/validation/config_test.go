package validation

import (
	"strings"
	"testing"
	"time"
)

func TestConfigValidator_RangeDuration(t *testing.T) {
	tests := []struct {
		value   time.Duration
		wantErr bool
	}{
		{time.Millisecond, true},
		{time.Second, false},
		{2 * time.Hour, true},
	}
	for _, tt := range tests {
		err := NewConfigValidator("Config").RangeDuration("query.timeout", tt.value, 10*time.Millisecond, time.Hour).Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("RangeDuration(%v) = %v, wantErr %v", tt.value, err, tt.wantErr)
		}
	}
}

func TestConfigValidator_UnitPreset(t *testing.T) {
	tests := []struct {
		id      string
		wantErr bool
	}{
		{"metric", false},
		{"us-customary", false},
		{"imperial-ish", true},
	}
	for _, tt := range tests {
		cv := NewConfigValidator("Config").UnitPreset("units", tt.id)
		if got := len(cv.Errors()) > 0; got != tt.wantErr {
			t.Errorf("UnitPreset(%q) errors = %v, want %v", tt.id, cv.Errors(), tt.wantErr)
		}
	}
}

func TestConfigValidator_When(t *testing.T) {
	tooShort := func(v *ConfigValidator) { v.RangeDuration("query.timeout", 0, time.Second, time.Hour) }

	if err := NewConfigValidator("Config").When(false, tooShort).Validate(); err != nil {
		t.Errorf("When(false) = %v, want nil", err)
	}
	if err := NewConfigValidator("Config").When(true, tooShort).Validate(); err == nil {
		t.Error("When(true) = nil, want an error")
	}
}

func TestConfigValidator_ValidateCombines(t *testing.T) {
	err := NewConfigValidator("Config").
		UnitPreset("units", "cubits").
		RangeDuration("query.timeout", time.Nanosecond, time.Second, time.Hour).
		Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want error")
	}
	for _, want := range []string{"2 errors", "Config.units", "Config.query.timeout"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() = %v, want it to mention %q", err, want)
		}
	}

	single := NewConfigValidator("Config").UnitPreset("units", "cubits").Validate()
	if single == nil || strings.Contains(single.Error(), "errors") {
		t.Errorf("Validate() = %v, want the bare failure", single)
	}

	if err := NewConfigValidator("Config").Validate(); err != nil {
		t.Errorf("Validate() on clean validator = %v, want nil", err)
	}
}
