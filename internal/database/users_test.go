package database

import (
	"context"
	"testing"
	"time"

	"messenger/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserCRUD(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	user := createTestUser(t, db, "alice", models.RoleUser)
	assert.NotZero(t, user.ID)
	assert.False(t, user.CreatedAt.IsZero())

	t.Run("GetByUsernameIsExact", func(t *testing.T) {
		got, err := db.GetUserByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		assert.Equal(t, "hash", got.PasswordHash)

		_, err = db.GetUserByUsername(ctx, "ALICE")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("DuplicateUsername", func(t *testing.T) {
		err := db.CreateUser(ctx, &models.User{Username: "alice", PasswordHash: "x", IsActive: true})
		assert.ErrorIs(t, err, ErrUsernameTaken)
	})

	t.Run("Update", func(t *testing.T) {
		user.FullName = "Alice Updated"
		user.Role = models.RoleAdmin
		user.IsActive = false
		require.NoError(t, db.UpdateUser(ctx, user))

		got, err := db.GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "Alice Updated", got.FullName)
		assert.Equal(t, models.RoleAdmin, got.Role)
		assert.False(t, got.IsActive)
	})

	t.Run("UpdateCollision", func(t *testing.T) {
		bob := createTestUser(t, db, "bob", models.RoleUser)
		bob.Username = "alice"
		assert.ErrorIs(t, db.UpdateUser(ctx, bob), ErrUsernameTaken)
	})

	t.Run("UpdateMissing", func(t *testing.T) {
		assert.ErrorIs(t, db.UpdateUser(ctx, &models.User{ID: 999, Username: "ghost", Role: models.RoleUser}), ErrNotFound)
		assert.ErrorIs(t, db.UpdateUserPassword(ctx, 999, "x"), ErrNotFound)
	})

	t.Run("Password", func(t *testing.T) {
		require.NoError(t, db.UpdateUserPassword(ctx, user.ID, "new-hash"))
		got, err := db.GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "new-hash", got.PasswordHash)
	})

	t.Run("List", func(t *testing.T) {
		users, err := db.ListUsers(ctx)
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, "alice", users[0].Username)
	})
}

func TestUpdatedAtTracksMutation(t *testing.T) {
	clock := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	db := setupTestDB(t, WithClock(func() time.Time { return clock }))
	ctx := context.Background()

	user := createTestUser(t, db, "carol", models.RoleUser)

	clock = clock.Add(time.Hour)
	user.Phone = "0811111111"
	require.NoError(t, db.UpdateUser(ctx, user))

	got, err := db.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, got.UpdatedAt.Equal(clock))
	assert.True(t, got.CreatedAt.Equal(clock.Add(-time.Hour)))
}

func TestDeleteUserCascadesCreatedAndOrphansApproved(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	creator := createTestUser(t, db, "creator", models.RoleUser)
	approver := createTestUser(t, db, "approver", models.RoleAdmin)
	other := createTestUser(t, db, "other", models.RoleUser)
	company := createTestCompany(t, db, "Acme", true)

	created := createTestBooking(t, db, company.ID, creator.ID, "2024-01-02", models.MorningSlot)
	approved := createTestBooking(t, db, company.ID, other.ID, "2024-01-03", models.MorningSlot)
	_, err := db.UpdateBookingStatus(ctx, models.StatusUpdate{
		BookingID:     approved.ID,
		Status:        models.StatusSuccess,
		SetApproval:   true,
		ApprovedBy:    approver.ID,
		ApprovedAt:    time.Now(),
		MessengerName: "M",
	})
	require.NoError(t, err)

	require.NoError(t, db.DeleteUser(ctx, creator.ID))
	_, err = db.GetBooking(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, db.DeleteUser(ctx, approver.ID))
	got, err := db.GetBooking(ctx, approved.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ApprovedBy)
	assert.Equal(t, approver.ID, *got.ApprovedBy)

	assert.ErrorIs(t, db.DeleteUser(ctx, creator.ID), ErrNotFound)
}

func TestCompanies(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	zeta := createTestCompany(t, db, "Zeta", true)
	createTestCompany(t, db, "Alpha", true)
	createTestCompany(t, db, "Hidden", false)

	active, err := db.ListActiveCompanies(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "Alpha", active[0].Name)
	assert.Equal(t, "Zeta", active[1].Name)

	all, err := db.ListCompanies(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	assert.ErrorIs(t, db.CreateCompany(ctx, &models.Company{Name: "Zeta"}), ErrCompanyNameTaken)

	zeta.IsActive = false
	require.NoError(t, db.UpdateCompany(ctx, zeta))
	active, err = db.ListActiveCompanies(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	_, err = db.GetCompanyByID(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}
