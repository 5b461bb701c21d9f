package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"theneighbor/api/internal/models"
)

// DBTX is the subset of *pgxpool.Pool the repository needs.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type MemberRepository struct {
	db DBTX
}

func NewMemberRepository(db DBTX) *MemberRepository {
	return &MemberRepository{db: db}
}

// Create inserts the member and fills CreatedAt from the database clock.
func (r *MemberRepository) Create(ctx context.Context, member models.Member) (models.Member, error) {
	const query = `
		INSERT INTO community_members (
			id, name, firstname, lastname, email, location, activity,
			image_url, original_image_url, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, NOW()
		)
		RETURNING created_at
	`

	err := r.db.QueryRow(ctx, query,
		member.ID,
		member.Name,
		member.FirstName,
		member.LastName,
		member.Email,
		member.Location,
		member.Activity,
		member.ImageURL,
		member.OriginalImageURL,
	).Scan(&member.CreatedAt)
	if err != nil {
		return models.Member{}, err
	}
	return member, nil
}

func (r *MemberRepository) List(ctx context.Context) ([]models.Member, error) {
	const query = `
		SELECT id, name, firstname, lastname, email, location, activity,
		       image_url, original_image_url, created_at
		FROM community_members
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]models.Member, 0)
	for rows.Next() {
		var member models.Member
		if err := rows.Scan(
			&member.ID,
			&member.Name,
			&member.FirstName,
			&member.LastName,
			&member.Email,
			&member.Location,
			&member.Activity,
			&member.ImageURL,
			&member.OriginalImageURL,
			&member.CreatedAt,
		); err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return members, rows.Err()
}

func (r *MemberRepository) Ping(ctx context.Context) error {
	var one int
	return r.db.QueryRow(ctx, "SELECT 1").Scan(&one)
}
