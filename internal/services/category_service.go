package services

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/avdeluca/inkwell-be/internal/apperr"
	"github.com/avdeluca/inkwell-be/internal/models"
)

// CategoryServiceProvider defines the interface for category services.
type CategoryServiceProvider interface {
	ListCategories() ([]models.Category, error)
	CreateCategory(name string) (models.Category, error)
	UpdateCategory(id, name string) (models.Category, error)
	DeleteCategory(id string) error
	SeedCategories(names []string) error
}

// CategoryService provides business logic for the category registry.
// Name uniqueness is case-insensitive and enforced by the schema's
// COLLATE NOCASE unique index, so concurrent creates cannot both win.
type CategoryService struct {
	db *sql.DB
}

// NewCategoryService creates a new CategoryService.
func NewCategoryService(db *sql.DB) *CategoryService {
	return &CategoryService{db: db}
}

// ListCategories returns all categories sorted by name ascending.
func (s *CategoryService) ListCategories() ([]models.Category, error) {
	rows, err := s.db.Query("SELECT id, name, created_at FROM categories ORDER BY name COLLATE NOCASE ASC")
	if err != nil {
		return nil, apperr.Storage(err)
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, apperr.Storage(err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// CreateCategory creates a new category with a trimmed, unique name.
func (s *CategoryService) CreateCategory(name string) (models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Category{}, apperr.InvalidArgument("category name is required")
	}

	category := models.Category{
		ID:   uuid.New().String(),
		Name: name,
	}
	_, err := s.db.Exec("INSERT INTO categories(id, name) VALUES(?, ?)", category.ID, category.Name)
	if err != nil {
		if isUniqueViolation(err, "categories.name") {
			return models.Category{}, apperr.Duplicate("category %q already exists", name)
		}
		return models.Category{}, apperr.Storage(err)
	}
	return s.getCategoryByID(category.ID)
}

// UpdateCategory renames a category.
func (s *CategoryService) UpdateCategory(id, name string) (models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Category{}, apperr.InvalidArgument("category name is required")
	}

	res, err := s.db.Exec("UPDATE categories SET name = ? WHERE id = ?", name, id)
	if err != nil {
		if isUniqueViolation(err, "categories.name") {
			return models.Category{}, apperr.Duplicate("category %q already exists", name)
		}
		return models.Category{}, apperr.Storage(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.Category{}, apperr.Storage(err)
	}
	if affected == 0 {
		return models.Category{}, apperr.NotFound("category %s not found", id)
	}
	return s.getCategoryByID(id)
}

// DeleteCategory removes a category. Referencing posts are not touched;
// their category reference resolves to null on read.
func (s *CategoryService) DeleteCategory(id string) error {
	res, err := s.db.Exec("DELETE FROM categories WHERE id = ?", id)
	if err != nil {
		return apperr.Storage(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return apperr.Storage(err)
	}
	if affected == 0 {
		return apperr.NotFound("category %s not found", id)
	}
	return nil
}

// SeedCategories inserts the given names, skipping any that already
// exist. Safe to run on every startup.
func (s *CategoryService) SeedCategories(names []string) error {
	stmt, err := s.db.Prepare("INSERT OR IGNORE INTO categories(id, name) VALUES(?, ?)")
	if err != nil {
		return apperr.Storage(err)
	}
	defer stmt.Close()

	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, err := stmt.Exec(uuid.New().String(), name); err != nil {
			return apperr.Storage(err)
		}
	}
	return nil
}

func (s *CategoryService) getCategoryByID(id string) (models.Category, error) {
	var c models.Category
	row := s.db.QueryRow("SELECT id, name, created_at FROM categories WHERE id = ?", id)
	if err := row.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Category{}, apperr.NotFound("category %s not found", id)
		}
		return models.Category{}, apperr.Storage(err)
	}
	return c, nil
}
