package services

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/avdeluca/inkwell-be/internal/apperr"
	"github.com/avdeluca/inkwell-be/internal/models"
)

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	Register(name, email, password string) (models.User, error)
	Authenticate(email, password string) (models.User, error)
	GetUserByID(id string) (models.User, error)
}

// UserService provides business logic for accounts and credentials.
type UserService struct {
	db *sql.DB
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB) *UserService {
	return &UserService{db: db}
}

// NormalizeEmail lowercases and trims an email for storage and lookup.
// Case-insensitive uniqueness follows from always storing this form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a new account, hashing the password. The plaintext
// is never stored.
func (s *UserService) Register(name, email, password string) (models.User, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return models.User{}, apperr.InvalidArgument("name, email and password are required")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, apperr.Storage(err)
	}

	user := models.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hashedPassword),
	}

	_, err = s.db.Exec("INSERT INTO users(id, name, email, password_hash) VALUES(?, ?, ?, ?)",
		user.ID, user.Name, user.Email, user.PasswordHash)
	if err != nil {
		if isUniqueViolation(err, "users.email") {
			return models.User{}, apperr.Duplicate("a user with this email already exists")
		}
		return models.User{}, apperr.Storage(err)
	}

	// Return user without password hash
	user.PasswordHash = ""
	return user, nil
}

// Authenticate verifies a user's credentials.
func (s *UserService) Authenticate(email, password string) (models.User, error) {
	user, err := s.getUserByEmail(NormalizeEmail(email))
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return models.User{}, apperr.Unauthenticated("invalid email or password")
		}
		return models.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, apperr.Unauthenticated("invalid email or password")
	}

	// Don't send the password hash to the client
	user.PasswordHash = ""
	return user, nil
}

// GetUserByID retrieves a single user by their ID, without the hash.
func (s *UserService) GetUserByID(id string) (models.User, error) {
	var user models.User
	row := s.db.QueryRow("SELECT id, name, email, created_at FROM users WHERE id = ?", id)
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, apperr.NotFound("user %s not found", id)
		}
		return models.User{}, apperr.Storage(err)
	}
	return user, nil
}

// getUserByEmail retrieves a user by normalized email, including the
// password hash for verification.
func (s *UserService) getUserByEmail(email string) (models.User, error) {
	var user models.User
	row := s.db.QueryRow("SELECT id, name, email, password_hash, created_at FROM users WHERE email = ?", email)
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, apperr.NotFound("user %s not found", email)
		}
		return models.User{}, apperr.Storage(err)
	}
	return user, nil
}

// isUniqueViolation reports whether err is a sqlite UNIQUE constraint
// failure on the given column.
func isUniqueViolation(err error, column string) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: "+column)
}
