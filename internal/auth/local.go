package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/snmlog/transferplus/internal/database"
	"github.com/snmlog/transferplus/internal/models"
)

// LocalAuthenticator checks credentials against the user_auth table. It is
// the fallback when no directory server is configured, typically in
// development or on an isolated vessel network.
type LocalAuthenticator struct {
	db *database.DB
}

// NewLocalAuthenticator creates a database-backed authenticator
func NewLocalAuthenticator(db *database.DB) *LocalAuthenticator {
	return &LocalAuthenticator{db: db}
}

// Authenticate verifies the password hash for an active local user.
func (a *LocalAuthenticator) Authenticate(username, password string) (*Identity, error) {
	var user models.UserAuth
	err := a.db.First(&user, "username = ? AND is_active = ?", username, true).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	return &Identity{
		Username:    user.Username,
		DisplayName: user.Username,
		Email:       user.Email,
		Role:        user.Role,
	}, nil
}

// HashPassword hashes a password for local user provisioning.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	return string(bytes), err
}
