package scholarship

import "fmt"

// FieldOfStudy is the fixed enumeration the ledger accepts. Client-side
// validation exists purely to avoid wasted round trips and signing prompts;
// the ledger validates again.
type FieldOfStudy string

const (
	FieldScience  FieldOfStudy = "Science"
	FieldMaths    FieldOfStudy = "Maths"
	FieldComputer FieldOfStudy = "Computer"
	FieldSports   FieldOfStudy = "Sports"
	FieldOthers   FieldOfStudy = "Others"
)

// Fields lists the enumeration in presentation order.
func Fields() []FieldOfStudy {
	return []FieldOfStudy{FieldScience, FieldMaths, FieldComputer, FieldSports, FieldOthers}
}

// ParseFieldOfStudy validates a raw field value against the enumeration.
func ParseFieldOfStudy(s string) (FieldOfStudy, error) {
	switch FieldOfStudy(s) {
	case FieldScience, FieldMaths, FieldComputer, FieldSports, FieldOthers:
		return FieldOfStudy(s), nil
	}
	return "", fmt.Errorf("unknown field of study %q", s)
}
