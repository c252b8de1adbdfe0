package repository

import (
	"testing"
	"time"

	"github.com/phantomcommerce/phantom-backend/internal/app/model"
	"github.com/phantomcommerce/phantom-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupUserTest(t *testing.T) (*gorm.DB, UserRepository) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)

	repo := NewUserRepository(testDB)
	return testDB, repo
}

func TestUserRepository_Create(t *testing.T) {
	testDB, repo := setupUserTest(t)
	defer db.CleanupTestDB(testDB)

	tests := []struct {
		name    string
		user    *model.User
		wantErr bool
	}{
		{
			name: "Valid user",
			user: &model.User{
				Email:        "test@example.com",
				PasswordHash: "hashedpassword",
				Name:         "Test User",
				Provider:     model.ProviderPassword,
				Role:         model.RoleUser,
			},
			wantErr: false,
		},
		{
			name: "Duplicate email",
			user: &model.User{
				Email:        "test@example.com",
				PasswordHash: "hashedpassword",
				Name:         "Another User",
				Role:         model.RoleUser,
			},
			wantErr: true,
		},
		{
			name: "Federated user without password",
			user: &model.User{
				Email:    "google@example.com",
				Name:     "Google User",
				Provider: model.ProviderGoogle,
				Role:     model.RoleUser,
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Create(tt.user)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.NotZero(t, tt.user.ID)
			}
		})
	}
}

func TestUserRepository_FindByEmail(t *testing.T) {
	testDB, repo := setupUserTest(t)
	defer db.CleanupTestDB(testDB)

	user := &model.User{Email: "find@example.com", Name: "Find Me", Role: model.RoleUser}
	require.NoError(t, repo.Create(user))

	found, err := repo.FindByEmail("find@example.com")
	assert.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	_, err = repo.FindByEmail("missing@example.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserRepository_FindByFirebaseUID(t *testing.T) {
	testDB, repo := setupUserTest(t)
	defer db.CleanupTestDB(testDB)

	uid := "firebase-uid-1"
	user := &model.User{Email: "fed@example.com", Name: "Fed", FirebaseUID: &uid, Provider: model.ProviderGoogle}
	require.NoError(t, repo.Create(user))

	found, err := repo.FindByFirebaseUID(uid)
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	_, err = repo.FindByFirebaseUID("other")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserRepository_UpdateAndLastLogin(t *testing.T) {
	testDB, repo := setupUserTest(t)
	defer db.CleanupTestDB(testDB)

	user := &model.User{Email: "update@example.com", Name: "Before"}
	require.NoError(t, repo.Create(user))

	user.Name = "After"
	user.PhotoURL = "https://cdn.example.com/avatars/1/profile.png"
	require.NoError(t, repo.Update(user))

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateLastLogin(user.ID, at))

	found, err := repo.FindByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "After", found.Name)
	assert.Equal(t, "https://cdn.example.com/avatars/1/profile.png", found.PhotoURL)
	require.NotNil(t, found.LastLoginAt)
	assert.True(t, at.Equal(found.LastLoginAt.UTC()))
}
