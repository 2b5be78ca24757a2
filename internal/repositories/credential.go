package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/roomsync/internal/models"
)

// DefaultProfile is the credential row used by the CLI.
const DefaultProfile = "default"

// CredentialRepository stores the bearer token and profile for one named profile.
type CredentialRepository struct {
	db      *sql.DB
	profile string
}

// NewCredentialRepository creates a repository bound to profile, or [DefaultProfile] when empty.
func NewCredentialRepository(db *sql.DB, profile string) *CredentialRepository {
	if profile == "" {
		profile = DefaultProfile
	}
	return &CredentialRepository{db: db, profile: profile}
}

// Load returns the stored credential, or nil when none is stored.
func (r *CredentialRepository) Load() (*models.Credential, error) {
	query := `
		SELECT token, user_id, user_name, user_email, updated_at
		FROM credentials
		WHERE profile = ?
	`

	var (
		token     string
		userID    sql.NullString
		userName  sql.NullString
		userEmail sql.NullString
		updatedAt time.Time
	)

	err := r.db.QueryRow(query, r.profile).Scan(&token, &userID, &userName, &userEmail, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query credentials: %w", err)
	}

	cred := &models.Credential{Profile: r.profile, Token: token, UpdatedAt: updatedAt}
	if userID.Valid && userID.String != "" {
		cred.User = &models.User{ID: userID.String, Name: userName.String, Email: userEmail.String}
	}
	return cred, nil
}

// Save replaces the stored token and profile.
func (r *CredentialRepository) Save(token string, user *models.User) error {
	if token == "" {
		return fmt.Errorf("token is required")
	}

	var userID, userName, userEmail sql.NullString
	if user != nil {
		userID = sql.NullString{String: user.ID, Valid: true}
		userName = sql.NullString{String: user.Name, Valid: true}
		userEmail = sql.NullString{String: user.Email, Valid: true}
	}

	query := `
		INSERT INTO credentials (profile, token, user_id, user_name, user_email, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(profile) DO UPDATE SET
			token = excluded.token,
			user_id = excluded.user_id,
			user_name = excluded.user_name,
			user_email = excluded.user_email,
			updated_at = excluded.updated_at
	`

	if _, err := r.db.Exec(query, r.profile, token, userID, userName, userEmail, time.Now()); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	return nil
}

// Clear removes the stored credential. Clearing an empty profile is not an error.
func (r *CredentialRepository) Clear() error {
	if _, err := r.db.Exec("DELETE FROM credentials WHERE profile = ?", r.profile); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	return nil
}
