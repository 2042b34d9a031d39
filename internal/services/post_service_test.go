package services

import (
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/avdeluca/inkwell-be/internal/apperr"
	"github.com/avdeluca/inkwell-be/internal/models"
)

const testContent = "This content is comfortably longer than twenty characters."

type postFixture struct {
	db       *sql.DB
	posts    *PostService
	author   models.User
	other    models.User
	category models.Category
}

func newPostFixture(t *testing.T) *postFixture {
	t.Helper()
	db := newTestDB(t)
	users := NewUserService(db)
	categories := NewCategoryService(db)

	author, err := users.Register("Alice", "alice@example.com", "secret123")
	if err != nil {
		t.Fatalf("register author: %v", err)
	}
	other, err := users.Register("Bob", "bob@example.com", "secret123")
	if err != nil {
		t.Fatalf("register other: %v", err)
	}
	category, err := categories.CreateCategory("Tech")
	if err != nil {
		t.Fatalf("create category: %v", err)
	}

	return &postFixture{
		db:       db,
		posts:    NewPostService(db),
		author:   author,
		other:    other,
		category: category,
	}
}

func (f *postFixture) create(t *testing.T, title string) models.Post {
	t.Helper()
	post, err := f.posts.CreatePost(CreatePostInput{
		Title:      title,
		Content:    testContent,
		CategoryID: f.category.ID,
		AuthorID:   f.author.ID,
	})
	if err != nil {
		t.Fatalf("create post %q: %v", title, err)
	}
	return post
}

func TestCreateAndGetPostRoundTrip(t *testing.T) {
	f := newPostFixture(t)

	created, err := f.posts.CreatePost(CreatePostInput{
		Title:      "Future of Web Dev 2024",
		Content:    testContent,
		Excerpt:    "A short teaser.",
		CategoryID: f.category.ID,
		AuthorID:   f.author.ID,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := f.posts.GetPost(created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Future of Web Dev 2024" {
		t.Fatalf("title round trip: %q", got.Title)
	}
	if got.Content != testContent {
		t.Fatalf("content round trip: %q", got.Content)
	}
	if got.Excerpt != "A short teaser." {
		t.Fatalf("excerpt round trip: %q", got.Excerpt)
	}
	if got.Author.ID != f.author.ID || got.Author.Name != "Alice" {
		t.Fatalf("author not resolved: %+v", got.Author)
	}
	if got.Category == nil || got.Category.ID != f.category.ID || got.Category.Name != "Tech" {
		t.Fatalf("category not resolved: %+v", got.Category)
	}
	if !got.Published {
		t.Fatal("publication should default to published")
	}
	if got.FeaturedImage != models.DefaultFeaturedImage {
		t.Fatalf("featured image sentinel: %q", got.FeaturedImage)
	}
	if len(got.Comments) != 0 {
		t.Fatalf("new post has %d comments", len(got.Comments))
	}
	if got.Slug == "" {
		t.Fatal("expected a slug")
	}

	// The slug works as an alternate key.
	bySlug, err := f.posts.GetPost(got.Slug)
	if err != nil {
		t.Fatalf("get by slug: %v", err)
	}
	if bySlug.ID != got.ID {
		t.Fatalf("slug resolved to %s", bySlug.ID)
	}
}

func TestCreatePostValidation(t *testing.T) {
	f := newPostFixture(t)

	_, err := f.posts.CreatePost(CreatePostInput{
		Title:      "ab",
		Content:    testContent,
		CategoryID: f.category.ID,
		AuthorID:   f.author.ID,
	})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, ok := apperr.FieldsOf(err)["title"]; !ok {
		t.Fatalf("expected title named in %v", apperr.FieldsOf(err))
	}

	// Every violated field is listed, not just the first.
	_, err = f.posts.CreatePost(CreatePostInput{
		Title:   strings.Repeat("x", 101),
		Content: "too short",
		Excerpt: strings.Repeat("y", 201),
	})
	fields := apperr.FieldsOf(err)
	for _, field := range []string{"title", "content", "excerpt", "category", "author"} {
		if _, ok := fields[field]; !ok {
			t.Fatalf("field %q missing from %v", field, fields)
		}
	}
}

func TestCreatePostChecksReferences(t *testing.T) {
	f := newPostFixture(t)

	_, err := f.posts.CreatePost(CreatePostInput{
		Title:      "Valid title",
		Content:    testContent,
		CategoryID: "missing-category",
		AuthorID:   f.author.ID,
	})
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found for unknown category, got %v", err)
	}

	_, err = f.posts.CreatePost(CreatePostInput{
		Title:      "Valid title",
		Content:    testContent,
		CategoryID: f.category.ID,
		AuthorID:   "missing-author",
	})
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found for unknown author, got %v", err)
	}
}

func TestUpdatePostAuthorization(t *testing.T) {
	f := newPostFixture(t)
	post := f.create(t, "Original title here")

	newTitle := "Updated title here"
	if _, err := f.posts.UpdatePost(post.ID, f.other.ID, UpdatePostInput{Title: &newTitle}); apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden for non-author, got %v", err)
	}

	updated, err := f.posts.UpdatePost(post.ID, f.author.ID, UpdatePostInput{Title: &newTitle})
	if err != nil {
		t.Fatalf("author update: %v", err)
	}
	if updated.Title != newTitle {
		t.Fatalf("title not applied: %q", updated.Title)
	}
	if updated.Content != testContent {
		t.Fatal("unset field was changed")
	}

	if _, err := f.posts.UpdatePost("missing", f.author.ID, UpdatePostInput{}); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdatePostCategoryMustResolve(t *testing.T) {
	f := newPostFixture(t)
	post := f.create(t, "Original title here")

	bogus := "missing-category"
	if _, err := f.posts.UpdatePost(post.ID, f.author.ID, UpdatePostInput{CategoryID: &bogus}); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found for unknown category, got %v", err)
	}
}

func TestDeletePost(t *testing.T) {
	f := newPostFixture(t)
	post := f.create(t, "A deletable post")

	if err := f.posts.DeletePost(post.ID, f.other.ID); apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden for non-author, got %v", err)
	}
	if err := f.posts.DeletePost(post.ID, f.author.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := f.posts.GetPost(post.ID); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if err := f.posts.DeletePost(post.ID, f.author.ID); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found for second delete, got %v", err)
	}
}

func TestListPostsPagination(t *testing.T) {
	f := newPostFixture(t)
	for i := 0; i < 6; i++ {
		f.create(t, fmt.Sprintf("Post number %d", i))
		time.Sleep(5 * time.Millisecond)
	}

	page1, err := f.posts.ListPosts(1, 6, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page1) != 6 {
		t.Fatalf("page 1: got %d posts", len(page1))
	}
	// Most recent first.
	if page1[0].Title != "Post number 5" {
		t.Fatalf("expected newest first, got %q", page1[0].Title)
	}

	page2, err := f.posts.ListPosts(2, 6, "")
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	if len(page2) != 0 {
		t.Fatalf("page 2 past the end: got %d posts, want 0", len(page2))
	}

	short, err := f.posts.ListPosts(2, 4, "")
	if err != nil {
		t.Fatalf("list short page: %v", err)
	}
	if len(short) != 2 {
		t.Fatalf("page 2 of size 4: got %d posts, want 2", len(short))
	}

	if _, err := f.posts.ListPosts(0, 6, ""); apperr.KindOf(err) != apperr.KindInvalidArgument {
		t.Fatalf("expected invalid argument for page 0, got %v", err)
	}
	if _, err := f.posts.ListPosts(1, 0, ""); apperr.KindOf(err) != apperr.KindInvalidArgument {
		t.Fatalf("expected invalid argument for pageSize 0, got %v", err)
	}
}

func TestListPostsCategoryFilter(t *testing.T) {
	f := newPostFixture(t)
	f.create(t, "A tech story")

	categories := NewCategoryService(f.db)
	travel, err := categories.CreateCategory("Travel")
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	if _, err := f.posts.CreatePost(CreatePostInput{
		Title:      "A travel story",
		Content:    testContent,
		CategoryID: travel.ID,
		AuthorID:   f.author.ID,
	}); err != nil {
		t.Fatalf("create travel post: %v", err)
	}

	filtered, err := f.posts.ListPosts(1, 10, travel.ID)
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(filtered) != 1 || filtered[0].Title != "A travel story" {
		t.Fatalf("filter returned %+v", filtered)
	}
}

func TestDeletedCategoryResolvesToNull(t *testing.T) {
	f := newPostFixture(t)
	post := f.create(t, "A soon-orphaned post")

	if err := NewCategoryService(f.db).DeleteCategory(f.category.ID); err != nil {
		t.Fatalf("delete category: %v", err)
	}

	got, err := f.posts.GetPost(post.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Category != nil {
		t.Fatalf("expected nil category after deletion, got %+v", got.Category)
	}
}

func TestAddComment(t *testing.T) {
	f := newPostFixture(t)
	post := f.create(t, "A commented post")

	withAuthor, err := f.posts.AddComment(post.ID, &f.other.ID, "First!")
	if err != nil {
		t.Fatalf("add comment: %v", err)
	}
	if len(withAuthor.Comments) != 1 {
		t.Fatalf("got %d comments, want 1", len(withAuthor.Comments))
	}
	if withAuthor.Comments[0].Author == nil || withAuthor.Comments[0].Author.ID != f.other.ID {
		t.Fatalf("comment author: %+v", withAuthor.Comments[0].Author)
	}

	anonymous, err := f.posts.AddComment(post.ID, nil, "Me too, anonymously.")
	if err != nil {
		t.Fatalf("anonymous comment: %v", err)
	}
	if len(anonymous.Comments) != 2 {
		t.Fatalf("got %d comments, want 2", len(anonymous.Comments))
	}
	// Insertion order is preserved.
	if anonymous.Comments[0].Content != "First!" {
		t.Fatalf("prior comment moved: %q", anonymous.Comments[0].Content)
	}
	if anonymous.Comments[1].Author != nil {
		t.Fatalf("anonymous comment has author %+v", anonymous.Comments[1].Author)
	}

	if _, err := f.posts.AddComment(post.ID, nil, "   "); apperr.KindOf(err) != apperr.KindInvalidArgument {
		t.Fatalf("expected invalid argument for blank content, got %v", err)
	}
	if _, err := f.posts.AddComment("missing", nil, "Hello"); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSlugCollisionGetsSuffix(t *testing.T) {
	f := newPostFixture(t)

	first := f.create(t, "Same title twice")
	second := f.create(t, "Same title twice")
	if first.Slug == second.Slug {
		t.Fatalf("slugs collide: %q", first.Slug)
	}
}
