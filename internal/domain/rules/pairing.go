package rules

import (
	"github.com/ivankudzin/skillswap/internal/domain/enums"
	"github.com/ivankudzin/skillswap/internal/domain/model"
)

// Candidate is a pending queue entry together with what pairing needs to know about its owner.
type Candidate struct {
	Entry        model.QueueEntry
	Nickname     string
	Cohort       enums.Cohort
	Declarations model.Declarations
}

func Eligible(c Candidate) bool {
	return c.Cohort.Pairable() && c.Declarations.Complete()
}

// Compatible checks whether b can be joined to the earlier entry a. Only a's learn category is
// compared with b's teach category; the reverse direction is not required.
func Compatible(a, b Candidate) bool {
	if !Eligible(a) || !Eligible(b) {
		return false
	}
	if a.Entry.RequesterID == b.Entry.RequesterID {
		return false
	}
	return a.Declarations.Learn == b.Declarations.Teach && a.Cohort != b.Cohort
}
