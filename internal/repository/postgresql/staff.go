package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/staff"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
	"github.com/jackc/pgx/v5"
)

type staffRepository struct {
	db *database.DB
}

// GetByID implements staff.StaffRepository.
func (s *staffRepository) GetByID(ctx context.Context, id string) (staff.Staff, error) {
	return s.get(ctx, id, false)
}

// GetByIDForUpdate implements staff.StaffRepository.
func (s *staffRepository) GetByIDForUpdate(ctx context.Context, id string) (staff.Staff, error) {
	return s.get(ctx, id, true)
}

func (s *staffRepository) get(ctx context.Context, id string, forUpdate bool) (staff.Staff, error) {
	if !validator.IsValidUUID(id) {
		return staff.Staff{}, staff.ErrStaffNotFound
	}
	q := GetQuerier(ctx, s.db)

	query := `
		SELECT id, name, email, role, enabled, created_at, updated_at
		FROM staff
		WHERE id = $1
	`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var st staff.Staff
	err := q.QueryRow(ctx, query, id).Scan(
		&st.ID, &st.Name, &st.Email, &st.Role, &st.Enabled, &st.CreatedAt, &st.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return staff.Staff{}, staff.ErrStaffNotFound
		}
		return staff.Staff{}, fmt.Errorf("failed to get staff by id: %w", err)
	}

	return st, nil
}

// ListEnabled implements staff.StaffRepository.
func (s *staffRepository) ListEnabled(ctx context.Context) ([]staff.Staff, error) {
	q := GetQuerier(ctx, s.db)

	query := `
		SELECT id, name, email, role, enabled, created_at, updated_at
		FROM staff
		WHERE enabled = TRUE
		ORDER BY name ASC, id ASC
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list staff: %w", err)
	}
	defer rows.Close()

	var list []staff.Staff
	for rows.Next() {
		var st staff.Staff
		if err := rows.Scan(&st.ID, &st.Name, &st.Email, &st.Role, &st.Enabled, &st.CreatedAt, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan staff: %w", err)
		}
		list = append(list, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate staff: %w", err)
	}

	return list, nil
}

func NewStaffRepository(db *database.DB) staff.StaffRepository {
	return &staffRepository{db: db}
}
