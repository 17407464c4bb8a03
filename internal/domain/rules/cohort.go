package rules

import "github.com/ivankudzin/skillswap/internal/domain/enums"

const (
	YoungFromBirthYear = 1990
	SeniorToBirthYear  = 1964
)

// CohortForBirthYear derives a cohort when the users row carries no stored one.
func CohortForBirthYear(birthYear *int) enums.Cohort {
	if birthYear == nil || *birthYear <= 0 {
		return enums.CohortUnknown
	}
	switch {
	case *birthYear >= YoungFromBirthYear:
		return enums.CohortYoung
	case *birthYear <= SeniorToBirthYear:
		return enums.CohortSenior
	default:
		return enums.CohortMiddle
	}
}
