package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"

	"quickblog/internal/config"
	"quickblog/internal/database"
	"quickblog/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testPassword = "Password123!"

// pngBytes is a minimal payload carrying the PNG signature.
var pngBytes = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0}

func newTestServer(t *testing.T) (*Server, *fiber.App, *gorm.DB) {
	t.Helper()
	t.Setenv("APP_ENV", "test")

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	cfg := &config.Config{
		Env:           "test",
		Port:          "8080",
		JWTSecret:     "test-secret-that-is-long-enough-123",
		JWTExpiryDays: 1,
		UploadDir:     t.TempDir(),
	}

	srv, err := NewServerWithDeps(cfg, db, nil)
	require.NoError(t, err)

	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler,
	})
	srv.SetupRoutes(app)

	return srv, app, db
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

// registerUser creates an account through the API and returns its token and id.
func registerUser(t *testing.T, app *fiber.App, username, email string) (string, uint) {
	t.Helper()

	resp := doJSON(t, app, fiber.MethodPost, "/api/auth/register", "", fiber.Map{
		"username": username,
		"email":    email,
		"password": testPassword,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	body := decodeBody(t, resp)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	user := body["user"].(map[string]any)
	return token, uint(user["id"].(float64))
}

// registerAdmin registers an account and promotes it directly in the database.
// The role takes effect on the next request because tokens resolve to the live
// account.
func registerAdmin(t *testing.T, app *fiber.App, db *gorm.DB, username, email string) (string, uint) {
	t.Helper()

	token, id := registerUser(t, app, username, email)
	require.NoError(t, db.Model(&models.User{}).
		Where("id = ?", id).
		Update("role", models.RoleAdmin).Error)
	return token, id
}

// createPost uploads a post through the multipart endpoint and returns its id.
func createPost(t *testing.T, app *fiber.App, token, title string) uint {
	t.Helper()

	resp := doMultipart(t, app, fiber.MethodPost, "/api/posts/", token, map[string]string{
		"title":   title,
		"content": "Some content for " + title,
	}, "thumb.png", pngBytes)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	body := decodeBody(t, resp)
	return uint(body["id"].(float64))
}

func doMultipart(t *testing.T, app *fiber.App, method, path, token string, fields map[string]string, filename string, content []byte) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	if filename != "" {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="thumbnail"; filename="%s"`, filename))
		header.Set("Content-Type", "image/png")
		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestHealthEndpoints(t *testing.T) {
	_, app, _ := newTestServer(t)

	resp := doJSON(t, app, fiber.MethodGet, "/health/live", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, fiber.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "healthy", checks["database"])
	assert.Equal(t, "unavailable", checks["redis"])
}

func TestErrorHandler_FrameworkStatusPreserved(t *testing.T) {
	_, app, _ := newTestServer(t)

	resp := doJSON(t, app, fiber.MethodGet, "/no/such/route", "", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, app, fiber.MethodPatch, "/api/posts/", "", nil)
	assert.Equal(t, fiber.StatusMethodNotAllowed, resp.StatusCode)
}

func TestAuthFlow(t *testing.T) {
	_, app, _ := newTestServer(t)

	token, _ := registerUser(t, app, "alice", "alice@example.com")

	t.Run("Password never serialized", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodGet, "/api/auth/me", token, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.NotContains(t, string(raw), "password")
	})

	t.Run("Login with correct credentials", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodPost, "/api/auth/login", "", fiber.Map{
			"email":    "alice@example.com",
			"password": testPassword,
		})
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.NotEmpty(t, body["token"])
	})

	t.Run("Login with wrong password", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodPost, "/api/auth/login", "", fiber.Map{
			"email":    "alice@example.com",
			"password": "WrongPassword1!",
		})
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("Login with unknown email", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodPost, "/api/auth/login", "", fiber.Map{
			"email":    "nobody@example.com",
			"password": testPassword,
		})
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("Me returns profile with posts page", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodGet, "/api/auth/me", token, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		user := body["user"].(map[string]any)
		assert.Equal(t, "alice", user["username"])
		posts := body["posts"].(map[string]any)
		assert.Equal(t, float64(1), posts["currentPage"])
	})

	t.Run("Logout without redis still succeeds", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodGet, "/api/auth/logout", token, nil)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})
}

func TestRegisterValidation(t *testing.T) {
	_, app, _ := newTestServer(t)
	registerUser(t, app, "alice", "alice@example.com")

	tests := []struct {
		name string
		body fiber.Map
	}{
		{"Duplicate email", fiber.Map{
			"username": "alice2", "email": "alice@example.com", "password": testPassword,
		}},
		{"Duplicate username", fiber.Map{
			"username": "alice", "email": "alice2@example.com", "password": testPassword,
		}},
		{"Weak password", fiber.Map{
			"username": "bob", "email": "bob@example.com", "password": "short",
		}},
		{"Invalid email", fiber.Map{
			"username": "bob", "email": "not-an-email", "password": testPassword,
		}},
		{"Missing fields", fiber.Map{
			"username": "bob",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, app, fiber.MethodPost, "/api/auth/register", "", tt.body)
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestAuthRequired(t *testing.T) {
	_, app, db := newTestServer(t)

	t.Run("Missing token", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodGet, "/api/auth/me", "", nil)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("Garbage token", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodGet, "/api/auth/me", "not.a.token", nil)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("Deleted account loses access", func(t *testing.T) {
		token, id := registerUser(t, app, "ghost", "ghost@example.com")
		require.NoError(t, db.Delete(&models.User{}, id).Error)

		resp := doJSON(t, app, fiber.MethodGet, "/api/auth/me", token, nil)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})
}

func TestCreatePost(t *testing.T) {
	srv, app, _ := newTestServer(t)
	token, _ := registerUser(t, app, "writer", "writer@example.com")

	t.Run("Multipart create publishes immediately", func(t *testing.T) {
		resp := doMultipart(t, app, fiber.MethodPost, "/api/posts/", token, map[string]string{
			"title":    "First Post",
			"subtitle": "A subtitle",
			"content":  "Hello world",
			"category": "Tech, Go",
		}, "thumb.png", pngBytes)
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "First Post", body["title"])
		assert.Equal(t, models.StatusPublished, body["status"])
		assert.ElementsMatch(t, []any{"Tech", "Go"}, body["category"].([]any))

		thumbnail := body["thumbnail"].(string)
		require.NotEmpty(t, thumbnail)
		name := filepath.Base(thumbnail)
		_, err := os.Stat(filepath.Join(srv.config.UploadDir, name))
		assert.NoError(t, err)
	})

	t.Run("Missing thumbnail rejected", func(t *testing.T) {
		resp := doMultipart(t, app, fiber.MethodPost, "/api/posts/", token, map[string]string{
			"title":   "No Image",
			"content": "Hello",
		}, "", nil)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Missing title removes orphaned thumbnail", func(t *testing.T) {
		before, err := os.ReadDir(srv.config.UploadDir)
		require.NoError(t, err)

		resp := doMultipart(t, app, fiber.MethodPost, "/api/posts/", token, map[string]string{
			"content": "Hello",
		}, "thumb.png", pngBytes)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

		after, err := os.ReadDir(srv.config.UploadDir)
		require.NoError(t, err)
		assert.Len(t, after, len(before))
	})

	t.Run("Non-image extension rejected", func(t *testing.T) {
		resp := doMultipart(t, app, fiber.MethodPost, "/api/posts/", token, map[string]string{
			"title":   "Bad Upload",
			"content": "Hello",
		}, "payload.exe", pngBytes)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Anonymous create rejected", func(t *testing.T) {
		resp := doMultipart(t, app, fiber.MethodPost, "/api/posts/", "", map[string]string{
			"title":   "Anon",
			"content": "Hello",
		}, "thumb.png", pngBytes)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})
}

func TestFeedPagination(t *testing.T) {
	_, app, db := newTestServer(t)
	token, authorID := registerUser(t, app, "writer", "writer@example.com")

	for i := 1; i <= 5; i++ {
		createPost(t, app, token, fmt.Sprintf("Post %d", i))
	}
	// Drafts never surface in the public feed.
	require.NoError(t, db.Create(&models.Post{
		Title:     "Hidden Draft",
		Content:   "wip",
		Thumbnail: models.DefaultThumbnail,
		AuthorID:  authorID,
		Status:    models.StatusDraft,
	}).Error)

	t.Run("Second page of two", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodGet, "/api/posts/?page=2&limit=2", "", nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, float64(2), body["currentPage"])
		assert.Equal(t, float64(3), body["totalPages"])
		assert.Equal(t, float64(5), body["totalPosts"])
		assert.Len(t, body["data"].([]any), 2)
	})

	t.Run("Draft excluded from feed", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodGet, "/api/posts/?limit=50", "", nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		for _, item := range body["data"].([]any) {
			post := item.(map[string]any)
			assert.Equal(t, models.StatusPublished, post["status"])
		}
	})

	t.Run("Draft included in my-blogs", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodGet, "/api/posts/my-blogs?limit=50", token, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, float64(6), body["totalPosts"])
	})

	t.Run("Out of range page is empty", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodGet, "/api/posts/?page=99", "", nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Empty(t, body["data"].([]any))
		assert.Equal(t, float64(5), body["totalPosts"])
	})
}

func TestGetPost(t *testing.T) {
	_, app, db := newTestServer(t)
	authorToken, authorID := registerUser(t, app, "writer", "writer@example.com")
	otherToken, _ := registerUser(t, app, "reader", "reader@example.com")
	adminToken, _ := registerAdmin(t, app, db, "boss", "boss@example.com")

	postID := createPost(t, app, authorToken, "Visible Post")

	draft := &models.Post{
		Title:     "Secret Draft",
		Content:   "wip",
		Thumbnail: models.DefaultThumbnail,
		AuthorID:  authorID,
		Status:    models.StatusDraft,
	}
	require.NoError(t, db.Create(draft).Error)

	t.Run("Published post is public", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodGet, fmt.Sprintf("/api/posts/%d", postID), "", nil)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("Draft forbidden for anonymous", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodGet, fmt.Sprintf("/api/posts/%d", draft.ID), "", nil)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	})

	t.Run("Draft forbidden for other users", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodGet, fmt.Sprintf("/api/posts/%d", draft.ID), otherToken, nil)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	})

	t.Run("Draft visible to author", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodGet, fmt.Sprintf("/api/posts/%d", draft.ID), authorToken, nil)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("Draft visible to admin", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodGet, fmt.Sprintf("/api/posts/%d", draft.ID), adminToken, nil)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("Malformed id maps to not found", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodGet, "/api/posts/abc", "", nil)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})

	t.Run("Unknown id", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodGet, "/api/posts/99999", "", nil)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})
}

func TestUpdatePost(t *testing.T) {
	_, app, db := newTestServer(t)
	authorToken, _ := registerUser(t, app, "writer", "writer@example.com")
	otherToken, _ := registerUser(t, app, "reader", "reader@example.com")
	adminToken, _ := registerAdmin(t, app, db, "boss", "boss@example.com")

	postID := createPost(t, app, authorToken, "Original Title")
	path := fmt.Sprintf("/api/posts/%d", postID)

	t.Run("Author updates via JSON", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodPut, path, authorToken, fiber.Map{
			"title": "Updated Title",
		})
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "Updated Title", body["title"])
		assert.NotEmpty(t, body["content"])
	})

	t.Run("Other user forbidden", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodPut, path, otherToken, fiber.Map{
			"title": "Hijacked",
		})
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	})

	t.Run("Admin can update any post", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodPut, path, adminToken, fiber.Map{
			"title": "Moderated Title",
		})
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})
}

func TestUpdatePostStatus(t *testing.T) {
	_, app, db := newTestServer(t)
	authorToken, _ := registerUser(t, app, "writer", "writer@example.com")
	adminToken, _ := registerAdmin(t, app, db, "boss", "boss@example.com")

	postID := createPost(t, app, authorToken, "Feed Post")
	path := fmt.Sprintf("/api/posts/%d/status", postID)

	t.Run("Non-admin forbidden", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodPut, path, authorToken, fiber.Map{
			"status": models.StatusDraft,
		})
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	})

	t.Run("Invalid status rejected", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodPut, path, adminToken, fiber.Map{
			"status": "Archived",
		})
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Unpublish hides post from feed", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodPut, path, adminToken, fiber.Map{
			"status": models.StatusDraft,
		})
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, models.StatusDraft, body["status"])

		resp = doJSON(t, app, fiber.MethodGet, "/api/posts/?limit=50", "", nil)
		feed := decodeBody(t, resp)
		assert.Equal(t, float64(0), feed["totalPosts"])
	})
}

func TestDeletePost(t *testing.T) {
	_, app, db := newTestServer(t)
	authorToken, _ := registerUser(t, app, "writer", "writer@example.com")
	otherToken, _ := registerUser(t, app, "reader", "reader@example.com")

	postID := createPost(t, app, authorToken, "Doomed Post")
	path := fmt.Sprintf("/api/posts/%d", postID)

	resp := doJSON(t, app, fiber.MethodPost, fmt.Sprintf("/api/comments/%d", postID), otherToken, fiber.Map{
		"content": "will vanish with the post",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	resp = doJSON(t, app, fiber.MethodPut, fmt.Sprintf("/api/posts/%d/like", postID), otherToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	t.Run("Other user forbidden", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodDelete, path, otherToken, nil)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	})

	t.Run("Author deletes with comments and reactions", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodDelete, path, authorToken, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		resp = doJSON(t, app, fiber.MethodGet, path, authorToken, nil)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

		var commentCount, reactionCount int64
		require.NoError(t, db.Model(&models.Comment{}).Where("post_id = ?", postID).Count(&commentCount).Error)
		require.NoError(t, db.Model(&models.Reaction{}).Where("post_id = ?", postID).Count(&reactionCount).Error)
		assert.Zero(t, commentCount)
		assert.Zero(t, reactionCount)
	})
}

func TestReactionFlow(t *testing.T) {
	_, app, _ := newTestServer(t)
	authorToken, _ := registerUser(t, app, "writer", "writer@example.com")
	readerToken, readerID := registerUser(t, app, "reader", "reader@example.com")

	postID := createPost(t, app, authorToken, "Reactive Post")
	likePath := fmt.Sprintf("/api/posts/%d/like", postID)
	dislikePath := fmt.Sprintf("/api/posts/%d/dislike", postID)

	t.Run("Like adds the user", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodPut, likePath, readerToken, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.ElementsMatch(t, []any{float64(readerID)}, body["likes"].([]any))
		assert.Empty(t, body["dislikes"].([]any))
	})

	t.Run("Dislike replaces the like", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodPut, dislikePath, readerToken, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Empty(t, body["likes"].([]any))
		assert.ElementsMatch(t, []any{float64(readerID)}, body["dislikes"].([]any))
	})

	t.Run("Repeating the dislike clears it", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodPut, dislikePath, readerToken, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Empty(t, body["likes"].([]any))
		assert.Empty(t, body["dislikes"].([]any))
	})

	t.Run("Anonymous reaction rejected", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodPut, likePath, "", nil)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("Reaction on unknown post", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodPut, "/api/posts/99999/like", readerToken, nil)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})
}

func TestCommentFlow(t *testing.T) {
	_, app, db := newTestServer(t)
	authorToken, _ := registerUser(t, app, "writer", "writer@example.com")
	readerToken, _ := registerUser(t, app, "reader", "reader@example.com")
	adminToken, _ := registerAdmin(t, app, db, "boss", "boss@example.com")

	postID := createPost(t, app, authorToken, "Discussed Post")
	postPath := fmt.Sprintf("/api/posts/%d", postID)
	commentsPath := fmt.Sprintf("/api/comments/%d", postID)

	var commentID uint

	t.Run("Create bumps comment count", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodPost, commentsPath, readerToken, fiber.Map{
			"content": "Great read!",
		})
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)

		body := decodeBody(t, resp)
		commentID = uint(body["id"].(float64))
		assert.Equal(t, "Great read!", body["content"])

		resp = doJSON(t, app, fiber.MethodGet, postPath, "", nil)
		post := decodeBody(t, resp)
		assert.Equal(t, float64(1), post["comment_count"])
	})

	t.Run("List returns the comment with its author", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodGet, commentsPath, "", nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		defer func() { _ = resp.Body.Close() }()
		var comments []map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&comments))
		require.Len(t, comments, 1)
		author := comments[0]["author"].(map[string]any)
		assert.Equal(t, "reader", author["username"])
	})

	t.Run("Comment on unknown post", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodPost, "/api/comments/99999", readerToken, fiber.Map{
			"content": "into the void",
		})
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})

	t.Run("Author edits own comment", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodPut, fmt.Sprintf("/api/comments/%d", commentID), readerToken, fiber.Map{
			"content": "Great read, edited!",
		})
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "Great read, edited!", body["content"])
	})

	t.Run("Admin cannot edit someone else's comment", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodPut, fmt.Sprintf("/api/comments/%d", commentID), adminToken, fiber.Map{
			"content": "rewritten by admin",
		})
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	})

	t.Run("Other user cannot delete", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodDelete, fmt.Sprintf("/api/comments/%d", commentID), authorToken, nil)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	})

	t.Run("Admin delete drops comment count", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodDelete, fmt.Sprintf("/api/comments/%d", commentID), adminToken, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		resp = doJSON(t, app, fiber.MethodGet, postPath, "", nil)
		post := decodeBody(t, resp)
		assert.Equal(t, float64(0), post["comment_count"])
	})
}

func TestAdminListing(t *testing.T) {
	_, app, db := newTestServer(t)
	authorToken, authorID := registerUser(t, app, "writer", "writer@example.com")
	adminToken, _ := registerAdmin(t, app, db, "boss", "boss@example.com")

	createPost(t, app, authorToken, "Published One")
	require.NoError(t, db.Create(&models.Post{
		Title:     "Draft One",
		Content:   "wip",
		Thumbnail: models.DefaultThumbnail,
		AuthorID:  authorID,
		Status:    models.StatusDraft,
	}).Error)

	t.Run("Non-admin forbidden", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodGet, "/api/posts/admin/all", authorToken, nil)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	})

	t.Run("Admin sees every status", func(t *testing.T) {
		resp := doJSON(t, app, fiber.MethodGet, "/api/posts/admin/all", adminToken, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, float64(2), body["totalPosts"])
	})
}
