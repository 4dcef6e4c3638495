package server

import (
	"errors"
	"strings"
	"unicode"

	"quickblog/internal/models"
	"quickblog/internal/service"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper.  Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// parsePagination extracts page and limit query parameters.
func parsePagination(c *fiber.Ctx) service.ListPostsInput {
	return service.ListPostsInput{
		Page:  c.QueryInt("page", 1),
		Limit: c.QueryInt("limit", 10),
	}
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 404 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
// Malformed ids are reported as not found, the same as ids that point at
// nothing.
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError(humanizeParam(param), c.Params(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a resource label.
// Examples: "id" -> "Resource", "postId" -> "Post".
func humanizeParam(param string) string {
	if param == "id" {
		return "Resource"
	}
	if strings.HasSuffix(param, "Id") {
		prefix := param[:len(param)-2]
		words := splitCamel(prefix)
		label := strings.ToLower(strings.Join(words, " "))
		return strings.ToUpper(label[:1]) + label[1:]
	}
	return param
}

// splitCamel splits a camelCase string into words.
func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	words = append(words, s[start:])
	return words
}

// actor builds the authenticated identity from locals set by AuthRequired.
func (s *Server) actor(c *fiber.Ctx) models.Actor {
	role, _ := c.Locals("userRole").(string)
	return models.Actor{
		ID:   c.Locals("userID").(uint),
		Role: role,
	}
}
