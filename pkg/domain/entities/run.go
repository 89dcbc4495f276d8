package entities

import (
	"fmt"
	"regexp"
	"strings"
)

// GroundingScheme is the earthing arrangement of the panel; it selects the labor column
type GroundingScheme string

const (
	GroundingTT   GroundingScheme = "TT"
	GroundingTNS  GroundingScheme = "TN-S"
	GroundingTNCS GroundingScheme = "TN-C-S"
)

// GroundingSchemes lists the schemes in rate-table column order
var GroundingSchemes = []GroundingScheme{GroundingTT, GroundingTNS, GroundingTNCS}

// PanelTypes lists the panel families a run may be priced for
var PanelTypes = []string{
	"A", "B", "B1", "B2",
	"C", "C1", "C2", "C3", "C4", "C4.1", "C5", "C6", "C7", "C8",
	"F", "F1", "F2", "F3", "F4", "F4.1", "F5", "F6", "F7",
	"G", "G1", "G2", "G3", "G4", "G5", "G6", "G7",
	"Custom",
}

var projectIDPattern = regexp.MustCompile(`^\d{4}-\d{3}$`)

// AddOns are optional run choices that inject fixed demand lines
type AddOns struct {
	UPS        bool
	SwingFrame bool
	Rittal     bool // enclosure supplied by Rittal: no auxiliary BOM
	MainSwitch string
}

// RunParameters identify the project a run prepares documents for
type RunParameters struct {
	ProjectID string
	PanelType string
	Grounding GroundingScheme
	AddOns    AddOns
}

// NewRunParameters creates validated RunParameters. Panel type and grounding scheme are
// matched case-insensitively and stored in their canonical spelling.
func NewRunParameters(projectID, panelType, grounding string, addOns AddOns) (*RunParameters, error) {
	projectID = strings.TrimSpace(projectID)
	if !projectIDPattern.MatchString(projectID) {
		return nil, fmt.Errorf("%w: project id %q must match the DDDD-DDD pattern", ErrInvalidParameters, projectID)
	}

	panel, ok := lookupFold(PanelTypes, panelType)
	if !ok {
		return nil, fmt.Errorf("%w: unknown panel type %q", ErrInvalidParameters, panelType)
	}

	scheme, err := ParseGroundingScheme(grounding)
	if err != nil {
		return nil, err
	}

	addOns.MainSwitch = strings.TrimSpace(addOns.MainSwitch)

	return &RunParameters{
		ProjectID: projectID,
		PanelType: panel,
		Grounding: scheme,
		AddOns:    addOns,
	}, nil
}

// ParseGroundingScheme parses a grounding scheme name
func ParseGroundingScheme(s string) (GroundingScheme, error) {
	for _, g := range GroundingSchemes {
		if strings.EqualFold(strings.TrimSpace(s), string(g)) {
			return g, nil
		}
	}
	return "", fmt.Errorf("%w: unknown grounding scheme %q (expected TT, TN-S or TN-C-S)", ErrInvalidParameters, s)
}

func lookupFold(values []string, s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, v := range values {
		if strings.EqualFold(v, s) {
			return v, true
		}
	}
	return "", false
}
