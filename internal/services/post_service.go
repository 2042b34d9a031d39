package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/avdeluca/inkwell-be/internal/apperr"
	"github.com/avdeluca/inkwell-be/internal/models"
)

const (
	titleMinLen   = 3
	titleMaxLen   = 100
	contentMinLen = 20
	excerptMaxLen = 200
)

// CreatePostInput carries the fields for creating a post. AuthorID is
// the authenticated caller, never taken from the request body.
type CreatePostInput struct {
	Title         string
	Content       string
	Excerpt       string
	CategoryID    string
	AuthorID      string
	FeaturedImage string
	Published     *bool
}

// UpdatePostInput carries a partial update; nil fields are left
// unchanged. The author reference is immutable and has no field here.
type UpdatePostInput struct {
	Title         *string
	Content       *string
	Excerpt       *string
	CategoryID    *string
	FeaturedImage *string
	Published     *bool
}

// PostServiceProvider defines the interface for post services.
type PostServiceProvider interface {
	ListPosts(page, pageSize int, categoryID string) ([]models.PostSummary, error)
	GetPost(idOrSlug string) (models.Post, error)
	CreatePost(in CreatePostInput) (models.Post, error)
	UpdatePost(id, callerID string, in UpdatePostInput) (models.Post, error)
	DeletePost(id, callerID string) error
	AddComment(id string, authorID *string, content string) (models.Post, error)
}

// PostService provides business logic for posts and their embedded
// comments.
type PostService struct {
	db *sql.DB
}

// NewPostService creates a new PostService.
func NewPostService(db *sql.DB) *PostService {
	return &PostService{db: db}
}

// ListPosts returns a page of post summaries, most recent first with
// insertion order breaking timestamp ties. Out-of-range pages yield an
// empty slice. An empty categoryID means no filter.
func (s *PostService) ListPosts(page, pageSize int, categoryID string) ([]models.PostSummary, error) {
	if page < 1 {
		return nil, apperr.InvalidArgument("page must be >= 1")
	}
	if pageSize < 1 {
		return nil, apperr.InvalidArgument("pageSize must be >= 1")
	}

	query := `
		SELECT p.id, p.title, p.slug, p.excerpt, p.featured_image, p.published, p.created_at,
		       u.id, u.name, c.id, c.name
		FROM posts p
		JOIN users u ON u.id = p.author_id
		LEFT JOIN categories c ON c.id = p.category_id`
	args := []any{}
	if categoryID != "" {
		query += " WHERE p.category_id = ?"
		args = append(args, categoryID)
	}
	query += " ORDER BY p.created_at DESC, p.rowid DESC LIMIT ? OFFSET ?"
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	defer rows.Close()

	posts := []models.PostSummary{}
	for rows.Next() {
		var p models.PostSummary
		var catID, catName sql.NullString
		err := rows.Scan(&p.ID, &p.Title, &p.Slug, &p.Excerpt, &p.FeaturedImage, &p.Published, &p.CreatedAt,
			&p.Author.ID, &p.Author.Name, &catID, &catName)
		if err != nil {
			return nil, apperr.Storage(err)
		}
		if catID.Valid {
			p.Category = &models.CategorySummary{ID: catID.String, Name: catName.String}
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// GetPost returns a full post, looked up by id with a fallback to its
// slug, with author and category resolved and comments in insertion
// order.
func (s *PostService) GetPost(idOrSlug string) (models.Post, error) {
	var p models.Post
	var catID, catName sql.NullString
	row := s.db.QueryRow(`
		SELECT p.id, p.title, p.slug, p.content, p.excerpt, p.featured_image, p.published,
		       p.created_at, p.updated_at, u.id, u.name, c.id, c.name
		FROM posts p
		JOIN users u ON u.id = p.author_id
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.id = ? OR p.slug = ?`, idOrSlug, idOrSlug)
	err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Content, &p.Excerpt, &p.FeaturedImage, &p.Published,
		&p.CreatedAt, &p.UpdatedAt, &p.Author.ID, &p.Author.Name, &catID, &catName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Post{}, apperr.NotFound("post %s not found", idOrSlug)
		}
		return models.Post{}, apperr.Storage(err)
	}
	if catID.Valid {
		p.Category = &models.CategorySummary{ID: catID.String, Name: catName.String}
	}

	comments, err := s.commentsForPost(p.ID)
	if err != nil {
		return models.Post{}, err
	}
	p.Comments = comments
	return p, nil
}

// CreatePost validates the input, verifies the category and author
// references resolve, and inserts the post. Publication defaults to
// published.
func (s *PostService) CreatePost(in CreatePostInput) (models.Post, error) {
	fields := map[string]string{}
	validateTitle(fields, in.Title)
	validateContent(fields, in.Content)
	validateExcerpt(fields, in.Excerpt)
	if strings.TrimSpace(in.CategoryID) == "" {
		fields["category"] = "category is required"
	}
	if strings.TrimSpace(in.AuthorID) == "" {
		fields["author"] = "author is required"
	}
	if len(fields) > 0 {
		return models.Post{}, apperr.Validation(fields)
	}

	if err := s.checkExists("categories", in.CategoryID, "category"); err != nil {
		return models.Post{}, err
	}
	if err := s.checkExists("users", in.AuthorID, "author"); err != nil {
		return models.Post{}, err
	}

	post := models.Post{
		ID:            uuid.New().String(),
		Title:         strings.TrimSpace(in.Title),
		Content:       in.Content,
		Excerpt:       strings.TrimSpace(in.Excerpt),
		FeaturedImage: in.FeaturedImage,
		Published:     true,
	}
	if post.FeaturedImage == "" {
		post.FeaturedImage = models.DefaultFeaturedImage
	}
	if in.Published != nil {
		post.Published = *in.Published
	}

	now := time.Now().UTC()
	candidate := slug.Make(post.Title)
	for attempt := 0; ; attempt++ {
		_, err := s.db.Exec(`
			INSERT INTO posts(id, title, slug, content, excerpt, category_id, author_id,
			                  featured_image, published, created_at, updated_at)
			VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			post.ID, post.Title, candidate, post.Content, post.Excerpt, in.CategoryID, in.AuthorID,
			post.FeaturedImage, post.Published, now, now)
		if err == nil {
			break
		}
		if isUniqueViolation(err, "posts.slug") && attempt == 0 {
			candidate = fmt.Sprintf("%s-%s", candidate, post.ID[:8])
			continue
		}
		return models.Post{}, apperr.Storage(err)
	}

	return s.GetPost(post.ID)
}

// UpdatePost applies the supplied fields to a post owned by callerID.
// Unset fields are left unchanged; a supplied category must resolve.
func (s *PostService) UpdatePost(id, callerID string, in UpdatePostInput) (models.Post, error) {
	authorID, err := s.postAuthor(id)
	if err != nil {
		return models.Post{}, err
	}
	if authorID != callerID {
		return models.Post{}, apperr.Forbidden("only the author may modify this post")
	}

	fields := map[string]string{}
	set := []string{}
	args := []any{}

	if in.Title != nil {
		validateTitle(fields, *in.Title)
		set = append(set, "title = ?")
		args = append(args, strings.TrimSpace(*in.Title))
	}
	if in.Content != nil {
		validateContent(fields, *in.Content)
		set = append(set, "content = ?")
		args = append(args, *in.Content)
	}
	if in.Excerpt != nil {
		validateExcerpt(fields, *in.Excerpt)
		set = append(set, "excerpt = ?")
		args = append(args, strings.TrimSpace(*in.Excerpt))
	}
	if len(fields) > 0 {
		return models.Post{}, apperr.Validation(fields)
	}
	if in.CategoryID != nil {
		if err := s.checkExists("categories", *in.CategoryID, "category"); err != nil {
			return models.Post{}, err
		}
		set = append(set, "category_id = ?")
		args = append(args, *in.CategoryID)
	}
	if in.FeaturedImage != nil {
		set = append(set, "featured_image = ?")
		args = append(args, *in.FeaturedImage)
	}
	if in.Published != nil {
		set = append(set, "published = ?")
		args = append(args, *in.Published)
	}

	if len(set) > 0 {
		set = append(set, "updated_at = ?")
		args = append(args, time.Now().UTC())
		args = append(args, id)
		query := "UPDATE posts SET " + strings.Join(set, ", ") + " WHERE id = ?"
		if _, err := s.db.Exec(query, args...); err != nil {
			return models.Post{}, apperr.Storage(err)
		}
	}

	return s.GetPost(id)
}

// DeletePost removes a post and its comments. Irreversible.
func (s *PostService) DeletePost(id, callerID string) error {
	authorID, err := s.postAuthor(id)
	if err != nil {
		return err
	}
	if authorID != callerID {
		return apperr.Forbidden("only the author may delete this post")
	}

	// Comments ride along via ON DELETE CASCADE.
	if _, err := s.db.Exec("DELETE FROM posts WHERE id = ?", id); err != nil {
		return apperr.Storage(err)
	}
	return nil
}

// AddComment appends a comment to a post and returns the updated post.
// A nil authorID records an anonymous comment.
func (s *PostService) AddComment(id string, authorID *string, content string) (models.Post, error) {
	if strings.TrimSpace(content) == "" {
		return models.Post{}, apperr.InvalidArgument("comment content is required")
	}

	postID, err := s.resolvePostID(id)
	if err != nil {
		return models.Post{}, err
	}

	_, err = s.db.Exec("INSERT INTO comments(id, post_id, author_id, content, created_at) VALUES(?, ?, ?, ?, ?)",
		uuid.New().String(), postID, authorID, content, time.Now().UTC())
	if err != nil {
		return models.Post{}, apperr.Storage(err)
	}
	return s.GetPost(postID)
}

func (s *PostService) commentsForPost(postID string) ([]models.Comment, error) {
	rows, err := s.db.Query(`
		SELECT cm.id, cm.content, cm.created_at, u.id, u.name
		FROM comments cm
		LEFT JOIN users u ON u.id = cm.author_id
		WHERE cm.post_id = ?
		ORDER BY cm.rowid ASC`, postID)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		var c models.Comment
		var userID, userName sql.NullString
		if err := rows.Scan(&c.ID, &c.Content, &c.CreatedAt, &userID, &userName); err != nil {
			return nil, apperr.Storage(err)
		}
		if userID.Valid {
			c.Author = &models.UserSummary{ID: userID.String, Name: userName.String}
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// postAuthor returns the author id of a post, or NotFound.
func (s *PostService) postAuthor(id string) (string, error) {
	var authorID string
	err := s.db.QueryRow("SELECT author_id FROM posts WHERE id = ?", id).Scan(&authorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", apperr.NotFound("post %s not found", id)
		}
		return "", apperr.Storage(err)
	}
	return authorID, nil
}

// resolvePostID maps an id or slug to the canonical post id.
func (s *PostService) resolvePostID(idOrSlug string) (string, error) {
	var id string
	err := s.db.QueryRow("SELECT id FROM posts WHERE id = ? OR slug = ?", idOrSlug, idOrSlug).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", apperr.NotFound("post %s not found", idOrSlug)
		}
		return "", apperr.Storage(err)
	}
	return id, nil
}

// checkExists verifies a referenced row exists before insert, closing
// the dangling-reference gap at creation time.
func (s *PostService) checkExists(table, id, entity string) error {
	var exists bool
	query := "SELECT EXISTS(SELECT 1 FROM " + table + " WHERE id = ?)"
	if err := s.db.QueryRow(query, id).Scan(&exists); err != nil {
		return apperr.Storage(err)
	}
	if !exists {
		return apperr.NotFound("%s %s not found", entity, id)
	}
	return nil
}

func validateTitle(fields map[string]string, title string) {
	n := utf8.RuneCountInString(strings.TrimSpace(title))
	switch {
	case n == 0:
		fields["title"] = "title is required"
	case n < titleMinLen || n > titleMaxLen:
		fields["title"] = fmt.Sprintf("title must be %d-%d characters", titleMinLen, titleMaxLen)
	}
}

func validateContent(fields map[string]string, content string) {
	n := utf8.RuneCountInString(strings.TrimSpace(content))
	switch {
	case n == 0:
		fields["content"] = "content is required"
	case n < contentMinLen:
		fields["content"] = fmt.Sprintf("content must be at least %d characters", contentMinLen)
	}
}

func validateExcerpt(fields map[string]string, excerpt string) {
	if utf8.RuneCountInString(excerpt) > excerptMaxLen {
		fields["excerpt"] = fmt.Sprintf("excerpt must be at most %d characters", excerptMaxLen)
	}
}
