package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"messenger/internal/models"
)

const companyColumns = `id, name, is_active, created_at, updated_at`

// ListActiveCompanies returns the selectable companies ordered by name.
func (db *DB) ListActiveCompanies(ctx context.Context) ([]*models.Company, error) {
	return db.queryCompanies(ctx, `SELECT `+companyColumns+` FROM companies WHERE is_active = 1 ORDER BY name`)
}

func (db *DB) ListCompanies(ctx context.Context) ([]*models.Company, error) {
	return db.queryCompanies(ctx, `SELECT `+companyColumns+` FROM companies ORDER BY name`)
}

func (db *DB) GetCompanyByID(ctx context.Context, id int64) (*models.Company, error) {
	var c models.Company
	err := db.QueryRowContext(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return &c, nil
}

func (db *DB) CreateCompany(ctx context.Context, company *models.Company) error {
	now := db.timestamp()
	result, err := db.ExecContext(ctx,
		`INSERT INTO companies (name, is_active, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		company.Name, company.IsActive, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrCompanyNameTaken
		}
		return fmt.Errorf("failed to create company: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	company.ID = id
	company.CreatedAt = now
	company.UpdatedAt = now
	return nil
}

func (db *DB) UpdateCompany(ctx context.Context, company *models.Company) error {
	now := db.timestamp()
	result, err := db.ExecContext(ctx,
		`UPDATE companies SET name = ?, is_active = ?, updated_at = ? WHERE id = ?`,
		company.Name, company.IsActive, now, company.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrCompanyNameTaken
		}
		return fmt.Errorf("failed to update company: %w", err)
	}
	if err := expectAffected(result); err != nil {
		return err
	}
	company.UpdatedAt = now
	return nil
}

func (db *DB) queryCompanies(ctx context.Context, query string, args ...any) ([]*models.Company, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query companies: %w", err)
	}
	defer rows.Close()

	var companies []*models.Company
	for rows.Next() {
		var c models.Company
		if err := rows.Scan(&c.ID, &c.Name, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		companies = append(companies, &c)
	}
	return companies, rows.Err()
}
