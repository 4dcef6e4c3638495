package server

import (
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"strings"

	"quickblog/internal/models"
	"quickblog/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetPosts handles GET /api/posts. Public feed of published posts, newest
// first.
func (s *Server) GetPosts(c *fiber.Ctx) error {
	page, err := s.postService.ListPublished(c.UserContext(), parsePagination(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(page)
}

// GetMyBlogs handles GET /api/posts/my-blogs. The caller's own posts, drafts
// included.
func (s *Server) GetMyBlogs(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	page, err := s.postService.ListByAuthor(c.UserContext(), userID, parsePagination(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(page)
}

// GetAllPostsAdmin handles GET /api/posts/admin/all. Every post across all
// authors and statuses.
func (s *Server) GetAllPostsAdmin(c *fiber.Ctx) error {
	page, err := s.postService.ListAll(c.UserContext(), parsePagination(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(page)
}

// GetPost handles GET /api/posts/:id. A bearer token is honored when present
// so authors and admins can read drafts.
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, svcErr := s.postService.GetPost(c.UserContext(), id, s.optionalActor(c))
	if svcErr != nil {
		return models.RespondWithAppError(c, svcErr)
	}
	return c.JSON(post)
}

// CreatePost handles POST /api/posts. Multipart form with a required
// thumbnail file; new posts are always published.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	file, err := c.FormFile("thumbnail")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Thumbnail is required"))
	}

	thumbnailURL, appErr := s.storeThumbnail(file)
	if appErr != nil {
		return models.RespondWithAppError(c, appErr)
	}

	post, svcErr := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		AuthorID:  userID,
		Title:     c.FormValue("title"),
		Subtitle:  c.FormValue("subtitle"),
		Content:   c.FormValue("content"),
		Category:  parseCategory(c.FormValue("category")),
		Thumbnail: thumbnailURL,
	})
	if svcErr != nil {
		// Creation failed after the file landed on disk; drop the orphan.
		_ = s.thumbnails.Remove(thumbnailURL)
		return models.RespondWithAppError(c, svcErr)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost handles PUT /api/posts/:id. Accepts multipart (with an optional
// replacement thumbnail) or JSON; fields present in the request replace the
// stored values.
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	in := service.UpdatePostInput{
		Actor:  s.actor(c),
		PostID: id,
	}

	if strings.HasPrefix(c.Get("Content-Type"), "application/json") {
		var req struct {
			Title    string   `json:"title"`
			Subtitle string   `json:"subtitle"`
			Content  string   `json:"content"`
			Category []string `json:"category"`
		}
		if parseErr := c.BodyParser(&req); parseErr != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid request body"))
		}
		in.Title = req.Title
		in.Subtitle = req.Subtitle
		in.Content = req.Content
		in.Category = req.Category
	} else {
		in.Title = c.FormValue("title")
		in.Subtitle = c.FormValue("subtitle")
		in.Content = c.FormValue("content")
		in.Category = parseCategory(c.FormValue("category"))

		if file, fileErr := c.FormFile("thumbnail"); fileErr == nil {
			thumbnailURL, appErr := s.storeThumbnail(file)
			if appErr != nil {
				return models.RespondWithAppError(c, appErr)
			}
			in.Thumbnail = thumbnailURL
		}
	}

	post, svcErr := s.postService.UpdatePost(c.UserContext(), in)
	if svcErr != nil {
		if in.Thumbnail != "" {
			_ = s.thumbnails.Remove(in.Thumbnail)
		}
		return models.RespondWithAppError(c, svcErr)
	}
	return c.JSON(post)
}

// UpdatePostStatus handles PUT /api/posts/:id/status. Admin publish/unpublish.
func (s *Server) UpdatePostStatus(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Status string `json:"status"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, svcErr := s.postService.SetStatus(c.UserContext(), id, req.Status)
	if svcErr != nil {
		return models.RespondWithAppError(c, svcErr)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if svcErr := s.postService.DeletePost(c.UserContext(), s.actor(c), id); svcErr != nil {
		return models.RespondWithAppError(c, svcErr)
	}
	return c.JSON(fiber.Map{
		"message": "Post deleted",
	})
}

// LikePost handles PUT /api/posts/:id/like
func (s *Server) LikePost(c *fiber.Ctx) error {
	return s.toggleReaction(c, s.postService.ToggleLike)
}

// DislikePost handles PUT /api/posts/:id/dislike
func (s *Server) DislikePost(c *fiber.Ctx) error {
	return s.toggleReaction(c, s.postService.ToggleDislike)
}

func (s *Server) toggleReaction(c *fiber.Ctx, toggle func(ctx context.Context, userID, postID uint) (*models.Post, error)) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	userID := c.Locals("userID").(uint)
	post, svcErr := toggle(c.UserContext(), userID, id)
	if svcErr != nil {
		return models.RespondWithAppError(c, svcErr)
	}
	return c.JSON(post)
}

// storeThumbnail reads the multipart file and hands it to the thumbnail store.
func (s *Server) storeThumbnail(file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", models.NewValidationError("Unable to read uploaded file")
	}
	defer func() { _ = src.Close() }()

	content, err := io.ReadAll(src)
	if err != nil {
		return "", models.NewValidationError("Unable to read uploaded file")
	}

	return s.thumbnails.Save(service.SaveThumbnailInput{
		Filename:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		Content:     content,
	})
}

// parseCategory accepts either a JSON array string or a comma-separated list.
func parseCategory(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	if strings.HasPrefix(raw, "[") {
		var parsed []string
		if err := json.Unmarshal([]byte(raw), &parsed); err == nil {
			return parsed
		}
	}

	var categories []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			categories = append(categories, trimmed)
		}
	}
	return categories
}
