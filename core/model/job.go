package model

import (
	"encoding/json"
	"fmt"
)

// JobPriority classifies how urgently a job must be staffed.
type JobPriority int

const (
	PriorityNormal JobPriority = iota
	PriorityEmergency
)

// String returns a human-readable representation of the priority.
func (p JobPriority) String() string {
	switch p {
	case PriorityNormal:
		return "normal"
	case PriorityEmergency:
		return "emergency"
	default:
		return "unknown"
	}
}

// ParseJobPriority converts the wire representation back into a JobPriority.
func ParseJobPriority(s string) (JobPriority, error) {
	switch s {
	case "normal", "":
		return PriorityNormal, nil
	case "emergency":
		return PriorityEmergency, nil
	default:
		return 0, fmt.Errorf("unknown job priority %q", s)
	}
}

// MarshalJSON encodes the priority as its string form.
func (p JobPriority) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON decodes the string form of the priority.
func (p *JobPriority) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseJobPriority(s)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Job represents a service request already resolved to coordinates.
type Job struct {
	ID                 string      `json:"id"`
	Location           Coordinates `json:"location"`
	Priority           JobPriority `json:"priority"`
	RequiredSkillLevel int         `json:"required_skill_level"`
}

// IsEmergency reports whether emergency dispatch policy applies.
func (j Job) IsEmergency() bool {
	return j.Priority == PriorityEmergency
}

// Validate checks that the job can be dispatched at all.
func (j Job) Validate() error {
	if j.ID == "" {
		return fmt.Errorf("job id is required")
	}
	if !j.Location.Valid() {
		return fmt.Errorf("job %s: invalid location", j.ID)
	}
	return nil
}
