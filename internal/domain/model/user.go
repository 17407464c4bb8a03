package model

import "github.com/ivankudzin/skillswap/internal/domain/enums"

type User struct {
	ID                   int64        `json:"id"`
	Nickname             string       `json:"nickname"`
	Cohort               enums.Cohort `json:"cohort"`
	AvailableForMatching bool         `json:"available_for_matching"`
}
