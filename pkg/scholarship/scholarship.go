// Package scholarship is the domain model: the shape of a scholarship record
// as the ledger reports it, plus the client-side validation and formatting
// applied before submission and after retrieval.
package scholarship

import (
	"github.com/aptedu/scholarx/pkg/aptos"
)

// Scholarship mirrors the Move struct returned by the view functions. Local
// copies are advisory snapshots: they are superseded wholesale on every
// successful synchronization and never partially mutated.
type Scholarship struct {
	ScholarshipID      aptos.U64 `json:"scholarship_id"`
	Name               string    `json:"name"`
	Donor              string    `json:"donor"`
	AmountPerApplicant aptos.U64 `json:"amount_per_applicant"`
	TotalApplicants    aptos.U64 `json:"total_applicants"`
	CriteriaGPA        aptos.U64 `json:"criteria_gpa"`
	FieldOfStudy       string    `json:"field_of_study"`
	EndTime            aptos.U64 `json:"end_time"`
	IsOpen             bool      `json:"is_open"`
	Recipients         []string  `json:"recipients"`
}

// Status labels exposed to the surrounding UI. There is no intermediate state.
const (
	StatusOpen   = "Open"
	StatusClosed = "Closed"
)

// StatusLabel renders is_open as the two-valued label the listings use.
func StatusLabel(isOpen bool) string {
	if isOpen {
		return StatusOpen
	}
	return StatusClosed
}

// FirstScholarshipID is the base the client-proposed id counts up from.
const FirstScholarshipID = 1000

// DeriveID computes the client-proposed id for the next creation from the
// synchronized scholarship count. The ledger program still validates it; two
// racing creators can collide and the loser's submission aborts.
func DeriveID(count int) aptos.U64 {
	return aptos.U64(FirstScholarshipID + count)
}
