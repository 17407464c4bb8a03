package memory

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ivankudzin/skillswap/internal/domain/enums"
	"github.com/ivankudzin/skillswap/internal/domain/model"
	"github.com/ivankudzin/skillswap/internal/domain/rules"
	"github.com/ivankudzin/skillswap/internal/pkg/validate"
)

type Seed struct {
	Users []SeedUser `yaml:"users"`
}

type SeedUser struct {
	ID        int64    `yaml:"id"`
	Nickname  string   `yaml:"nickname"`
	Cohort    string   `yaml:"cohort"`
	BirthYear *int     `yaml:"birth_year"`
	Teach     []string `yaml:"teach"`
	Learn     []string `yaml:"learn"`
}

// LoadSeed reads a YAML seed file. A missing file yields an empty seed.
func LoadSeed(path string) (Seed, error) {
	var seed Seed
	if strings.TrimSpace(path) == "" {
		return seed, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return seed, nil
		}
		return seed, fmt.Errorf("read seed file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return seed, fmt.Errorf("parse seed yaml: %w", err)
	}
	return seed, nil
}

func (s *Store) Apply(seed Seed) error {
	for _, u := range seed.Users {
		if u.ID <= 0 {
			return fmt.Errorf("seed user %q: id must be positive", u.Nickname)
		}
		if !validate.Required(u.Nickname) {
			return fmt.Errorf("seed user %d: nickname is required", u.ID)
		}

		cohort := rules.CohortForBirthYear(u.BirthYear)
		if strings.TrimSpace(u.Cohort) != "" {
			cohort = enums.ParseCohort(u.Cohort)
		}

		s.PutUser(model.User{
			ID:                   u.ID,
			Nickname:             u.Nickname,
			Cohort:               cohort,
			AvailableForMatching: true,
		})
		if err := s.declare(u.ID, enums.SkillRoleTeach, u.Teach); err != nil {
			return err
		}
		if err := s.declare(u.ID, enums.SkillRoleLearn, u.Learn); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) declare(userID int64, role enums.SkillRole, categories []string) error {
	for _, raw := range categories {
		category, ok := validate.Category(raw)
		if !ok {
			return fmt.Errorf("seed user %d: invalid %s category %q", userID, role, raw)
		}
		s.AddDeclaration(userID, role, category)
	}
	return nil
}
