package entities

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestRunParameters_Validation(t *testing.T) {
	params, err := NewRunParameters("1234-567", "c4.1", "tn-c-s", AddOns{UPS: true, MainSwitch: " C160S4FM "})
	if err != nil {
		t.Fatalf("Expected valid run parameters to succeed: %v", err)
	}
	if params.PanelType != "C4.1" {
		t.Errorf("Expected canonical panel type C4.1, got %s", params.PanelType)
	}
	if params.Grounding != GroundingTNCS {
		t.Errorf("Expected grounding TN-C-S, got %s", params.Grounding)
	}
	if params.AddOns.MainSwitch != "C160S4FM" {
		t.Errorf("Expected trimmed main switch, got %q", params.AddOns.MainSwitch)
	}

	testCases := []struct {
		name      string
		projectID string
		panel     string
		grounding string
	}{
		{"short project id", "123-567", "A", "TT"},
		{"letters in project id", "12a4-567", "A", "TT"},
		{"trailing characters", "1234-5678", "A", "TT"},
		{"empty project id", "", "A", "TT"},
		{"unknown panel", "1234-567", "Z9", "TT"},
		{"unknown grounding", "1234-567", "A", "IT"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewRunParameters(tc.projectID, tc.panel, tc.grounding, AddOns{})
			if err == nil {
				t.Fatalf("Expected error for %s, but got none", tc.name)
			}
			if !errors.Is(err, ErrInvalidParameters) {
				t.Errorf("Expected ErrInvalidParameters, got %v", err)
			}
		})
	}
}

func TestPanelTypes_Count(t *testing.T) {
	if len(PanelTypes) != 32 {
		t.Errorf("Expected 32 panel types, got %d", len(PanelTypes))
	}
}

func TestRateRow_HoursFor(t *testing.T) {
	row := RateRow{
		PanelType: "C4",
		HoursTT:   decimal.NewFromInt(10),
		HoursTNS:  decimal.NewFromInt(12),
		HoursTNCS: decimal.NewFromInt(14),
	}

	testCases := []struct {
		scheme   GroundingScheme
		expected int64
	}{
		{GroundingTT, 10},
		{GroundingTNS, 12},
		{GroundingTNCS, 14},
		{GroundingScheme("IT"), 0},
	}
	for _, tc := range testCases {
		if got := row.HoursFor(tc.scheme); !got.Equal(decimal.NewFromInt(tc.expected)) {
			t.Errorf("HoursFor(%s): expected %d, got %s", tc.scheme, tc.expected, got)
		}
	}
}
