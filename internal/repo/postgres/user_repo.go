package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/skillswap/internal/domain/enums"
	"github.com/ivankudzin/skillswap/internal/domain/model"
	"github.com/ivankudzin/skillswap/internal/domain/rules"
	"github.com/ivankudzin/skillswap/internal/services/matching"
)

const userColumns = `
	user_id,
	nickname,
	birth_year,
	user_type,
	is_matching_available`

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) FindUser(ctx context.Context, userID int64) (model.User, error) {
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return model.User{}, fmt.Errorf("invalid user id")
	}

	user, err := scanUser(r.pool.QueryRow(ctx, `
SELECT`+userColumns+`
FROM users
WHERE user_id = $1
`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, matching.ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

// scanUser reads the stored cohort, falling back to the birth year when the column is empty.
func scanUser(row pgx.Row) (model.User, error) {
	var (
		user      model.User
		birthYear *int
		userType  *string
	)
	if err := row.Scan(
		&user.ID,
		&user.Nickname,
		&birthYear,
		&userType,
		&user.AvailableForMatching,
	); err != nil {
		return model.User{}, err
	}

	if userType != nil && strings.TrimSpace(*userType) != "" {
		user.Cohort = enums.ParseCohort(*userType)
	} else {
		user.Cohort = rules.CohortForBirthYear(birthYear)
	}
	return user, nil
}
