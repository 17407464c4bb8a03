package enums

import "strings"

type Cohort string

const (
	CohortYoung   Cohort = "YOUNG"
	CohortSenior  Cohort = "SENIOR"
	CohortMiddle  Cohort = "MIDDLE"
	CohortUnknown Cohort = "UNKNOWN"
)

// ParseCohort maps a stored user_type value onto a cohort. Anything unrecognised is Unknown.
func ParseCohort(raw string) Cohort {
	switch Cohort(strings.ToUpper(strings.TrimSpace(raw))) {
	case CohortYoung:
		return CohortYoung
	case CohortSenior:
		return CohortSenior
	case CohortMiddle:
		return CohortMiddle
	default:
		return CohortUnknown
	}
}

// Pairable reports whether users of this cohort may take part in pairing at all.
func (c Cohort) Pairable() bool {
	switch c {
	case CohortYoung, CohortSenior, CohortUnknown:
		return true
	case CohortMiddle:
		return false
	default:
		return false
	}
}
