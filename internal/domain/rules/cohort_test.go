package rules

import (
	"testing"

	"github.com/ivankudzin/skillswap/internal/domain/enums"
)

func TestCohortForBirthYear(t *testing.T) {
	year := func(v int) *int { return &v }

	tests := []struct {
		name string
		in   *int
		want enums.Cohort
	}{
		{name: "missing", in: nil, want: enums.CohortUnknown},
		{name: "boundary young", in: year(1990), want: enums.CohortYoung},
		{name: "young", in: year(2001), want: enums.CohortYoung},
		{name: "boundary senior", in: year(1964), want: enums.CohortSenior},
		{name: "senior", in: year(1950), want: enums.CohortSenior},
		{name: "middle", in: year(1975), want: enums.CohortMiddle},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := CohortForBirthYear(tc.in); got != tc.want {
				t.Fatalf("unexpected cohort: got %s want %s", got, tc.want)
			}
		})
	}
}
