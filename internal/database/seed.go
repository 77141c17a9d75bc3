package database

import (
	"context"
	"errors"
	"fmt"

	"messenger/internal/models"
)

// SeedData is the initial content of an empty installation.
type SeedData struct {
	AdminUsername     string
	AdminPasswordHash string
	AdminFullName     string
	Companies         []string
}

// Seed creates the admin account and companies that do not exist yet.
// It is safe to run repeatedly.
func (db *DB) Seed(ctx context.Context, data SeedData) (createdCompanies int, createdAdmin bool, err error) {
	for _, name := range data.Companies {
		err := db.CreateCompany(ctx, &models.Company{Name: name, IsActive: true})
		switch {
		case err == nil:
			createdCompanies++
		case errors.Is(err, ErrCompanyNameTaken):
		default:
			return createdCompanies, false, fmt.Errorf("seed company %q: %w", name, err)
		}
	}

	if data.AdminUsername == "" {
		return createdCompanies, false, nil
	}

	admin := &models.User{
		Username:     data.AdminUsername,
		PasswordHash: data.AdminPasswordHash,
		FullName:     data.AdminFullName,
		Role:         models.RoleAdmin,
		IsApprover:   true,
		IsActive:     true,
	}
	err = db.CreateUser(ctx, admin)
	switch {
	case err == nil:
		createdAdmin = true
	case errors.Is(err, ErrUsernameTaken):
	default:
		return createdCompanies, false, fmt.Errorf("seed admin: %w", err)
	}

	db.logger.Info().
		Int("companies", createdCompanies).
		Bool("admin", createdAdmin).
		Msg("seed applied")
	return createdCompanies, createdAdmin, nil
}
