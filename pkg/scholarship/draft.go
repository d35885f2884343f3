package scholarship

import (
	"errors"
	"fmt"
	"time"
)

// Draft is the creator's input for a new scholarship, before an id is
// proposed and the arguments are built.
type Draft struct {
	Name               string `json:"name"`
	AmountPerApplicant uint64 `json:"amount_per_applicant"`
	TotalApplicants    uint64 `json:"total_applicants"`
	CriteriaGPA        uint64 `json:"criteria_gpa"`
	FieldOfStudy       string `json:"field_of_study"`
	EndTime            uint64 `json:"end_time"` // unix seconds
}

// Validate applies the client-side creation checks. Everything here fails
// before a signing prompt is ever shown.
func (d *Draft) Validate(now time.Time) error {
	if d.Name == "" {
		return errors.New("name must not be empty")
	}
	if d.AmountPerApplicant == 0 {
		return errors.New("amount per applicant must be positive")
	}
	if d.TotalApplicants == 0 {
		return errors.New("total applicants must be positive")
	}
	if d.CriteriaGPA == 0 {
		return errors.New("criteria GPA must be positive")
	}
	if _, err := ParseFieldOfStudy(d.FieldOfStudy); err != nil {
		return err
	}
	if d.EndTime <= uint64(now.Unix()) {
		return fmt.Errorf("end time %s is not in the future", FormatEndTime(d.EndTime))
	}
	return nil
}
