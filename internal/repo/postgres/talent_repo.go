package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/skillswap/internal/domain/enums"
	"github.com/ivankudzin/skillswap/internal/domain/model"
)

type TalentRepo struct {
	pool *pgxpool.Pool
}

func NewTalentRepo(pool *pgxpool.Pool) *TalentRepo {
	return &TalentRepo{pool: pool}
}

// DeclarationsFor returns the earliest declared category for each role.
func (r *TalentRepo) DeclarationsFor(ctx context.Context, userID int64) (model.Declarations, error) {
	if r.pool == nil {
		return model.Declarations{}, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT DISTINCT ON (type) type, category
FROM talents
WHERE user_id = $1 AND type IN ('Teach', 'Learn')
ORDER BY type, created_at ASC, talent_id ASC
`, userID)
	if err != nil {
		return model.Declarations{}, fmt.Errorf("load talents: %w", err)
	}
	defer rows.Close()

	var decl model.Declarations
	for rows.Next() {
		var role, category string
		if err := rows.Scan(&role, &category); err != nil {
			return model.Declarations{}, fmt.Errorf("scan talent: %w", err)
		}
		switch enums.SkillRole(role) {
		case enums.SkillRoleTeach:
			decl.Teach = category
		case enums.SkillRoleLearn:
			decl.Learn = category
		}
	}
	if rows.Err() != nil {
		return model.Declarations{}, fmt.Errorf("iterate talents: %w", rows.Err())
	}

	return decl, nil
}
