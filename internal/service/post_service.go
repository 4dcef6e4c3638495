package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"quickblog/internal/cache"
	"quickblog/internal/models"
	"quickblog/internal/repository"

	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
)

const (
	maxTitleLen    = 100
	maxSubtitleLen = 200
	defaultLimit   = 10
	maxLimit       = 50
)

// contentPolicy allows common rich-text markup in post bodies and strips
// everything that can run script.
var contentPolicy = bluemonday.UGCPolicy()

type PostService struct {
	postRepo repository.PostRepository
}

type CreatePostInput struct {
	AuthorID  uint
	Title     string
	Subtitle  string
	Content   string
	Category  []string
	Thumbnail string
}

type UpdatePostInput struct {
	Actor     models.Actor
	PostID    uint
	Title     string
	Subtitle  string
	Content   string
	Category  []string
	Thumbnail string
}

type ListPostsInput struct {
	Page  int
	Limit int
}

func NewPostService(postRepo repository.PostRepository) *PostService {
	return &PostService{postRepo: postRepo}
}

// NormalizePagination clamps page and limit to their allowed ranges.
func NormalizePagination(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

func buildPage(posts []*models.Post, total int64, page, limit int) *models.PostPage {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	if posts == nil {
		posts = []*models.Post{}
	}
	return &models.PostPage{
		Data:        posts,
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalPosts:  total,
	}
}

// ListPublished returns one page of the public feed, newest first. The
// default first page is served cache-aside.
func (s *PostService) ListPublished(ctx context.Context, in ListPostsInput) (*models.PostPage, error) {
	page, limit := NormalizePagination(in.Page, in.Limit)
	offset := (page - 1) * limit

	if page == 1 && limit == defaultLimit {
		var cached models.PostPage
		err := cache.CacheAside(ctx, cache.FeedKey(page, limit), &cached, cache.FeedTTL, func() error {
			posts, total, fetchErr := s.postRepo.ListPublished(ctx, limit, offset)
			if fetchErr != nil {
				return fetchErr
			}
			cached = *buildPage(posts, total, page, limit)
			return nil
		})
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		return &cached, nil
	}

	posts, total, err := s.postRepo.ListPublished(ctx, limit, offset)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return buildPage(posts, total, page, limit), nil
}

// ListByAuthor returns one page of the author's own posts, drafts included.
func (s *PostService) ListByAuthor(ctx context.Context, authorID uint, in ListPostsInput) (*models.PostPage, error) {
	page, limit := NormalizePagination(in.Page, in.Limit)
	posts, total, err := s.postRepo.ListByAuthor(ctx, authorID, limit, (page-1)*limit)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return buildPage(posts, total, page, limit), nil
}

// ListAll returns one page across every author and status. Callers gate this
// behind the admin role.
func (s *PostService) ListAll(ctx context.Context, in ListPostsInput) (*models.PostPage, error) {
	page, limit := NormalizePagination(in.Page, in.Limit)
	posts, total, err := s.postRepo.ListAll(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return buildPage(posts, total, page, limit), nil
}

// GetPost returns a single post, cache-aside on the detail key. Drafts are
// visible only to their author and admins; everyone else gets a forbidden.
// The gate runs after the cache read, so cached drafts stay protected.
func (s *PostService) GetPost(ctx context.Context, id uint, actor *models.Actor) (*models.Post, error) {
	var post models.Post
	err := cache.CacheAside(ctx, cache.PostKey(id), &post, cache.PostTTL, func() error {
		fetched, fetchErr := s.postRepo.GetByID(ctx, id)
		if fetchErr != nil {
			return fetchErr
		}
		post = *fetched
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewInternalError(err)
	}

	if post.Status == models.StatusDraft {
		if actor == nil || !actor.CanModify(post.AuthorID) {
			return nil, models.NewForbiddenError("Post is a draft and cannot be viewed")
		}
	}
	return &post, nil
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return nil, models.NewValidationError("Title too long (max 100 characters)")
	}
	if utf8.RuneCountInString(in.Subtitle) > maxSubtitleLen {
		return nil, models.NewValidationError("Subtitle too long (max 200 characters)")
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if in.Thumbnail == "" {
		return nil, models.NewValidationError("Thumbnail is required")
	}

	category := in.Category
	if len(category) == 0 {
		category = []string{"General"}
	}

	post := &models.Post{
		Title:     title,
		Subtitle:  in.Subtitle,
		Content:   contentPolicy.Sanitize(in.Content),
		Thumbnail: in.Thumbnail,
		AuthorID:  in.AuthorID,
		Category:  category,
		Status:    models.StatusPublished,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, models.NewInternalError(err)
	}

	return s.fetchPost(ctx, post.ID)
}

func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.fetchPost(ctx, in.PostID)
	if err != nil {
		return nil, err
	}

	if !in.Actor.CanModify(post.AuthorID) {
		return nil, models.NewForbiddenError("You can only update your own posts")
	}

	if in.Title != "" {
		if utf8.RuneCountInString(in.Title) > maxTitleLen {
			return nil, models.NewValidationError("Title too long (max 100 characters)")
		}
		post.Title = strings.TrimSpace(in.Title)
	}
	if in.Subtitle != "" {
		if utf8.RuneCountInString(in.Subtitle) > maxSubtitleLen {
			return nil, models.NewValidationError("Subtitle too long (max 200 characters)")
		}
		post.Subtitle = in.Subtitle
	}
	if in.Content != "" {
		post.Content = contentPolicy.Sanitize(in.Content)
	}
	if len(in.Category) > 0 {
		post.Category = in.Category
	}
	if in.Thumbnail != "" {
		post.Thumbnail = in.Thumbnail
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, models.NewInternalError(err)
	}
	return s.fetchPost(ctx, post.ID)
}

// SetStatus publishes or unpublishes a post.
func (s *PostService) SetStatus(ctx context.Context, postID uint, status string) (*models.Post, error) {
	if !models.IsValidStatus(status) {
		return nil, models.NewValidationError("Status must be Draft or Published")
	}
	if err := s.postRepo.UpdateStatus(ctx, postID, status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", postID)
		}
		return nil, models.NewInternalError(err)
	}
	return s.fetchPost(ctx, postID)
}

func (s *PostService) DeletePost(ctx context.Context, actor models.Actor, postID uint) error {
	post, err := s.fetchPost(ctx, postID)
	if err != nil {
		return err
	}

	if !actor.CanModify(post.AuthorID) {
		return models.NewForbiddenError("You can only delete your own posts")
	}

	if err := s.postRepo.Delete(ctx, postID); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// ToggleLike flips the user's like on the post: liking a liked post removes
// the like, liking a disliked post replaces the dislike.
func (s *PostService) ToggleLike(ctx context.Context, userID, postID uint) (*models.Post, error) {
	return s.toggleReaction(ctx, userID, postID, models.ReactionLike)
}

// ToggleDislike mirrors ToggleLike for the dislike side.
func (s *PostService) ToggleDislike(ctx context.Context, userID, postID uint) (*models.Post, error) {
	return s.toggleReaction(ctx, userID, postID, models.ReactionDislike)
}

func (s *PostService) toggleReaction(ctx context.Context, userID, postID uint, kind string) (*models.Post, error) {
	if _, err := s.fetchPost(ctx, postID); err != nil {
		return nil, err
	}

	current, err := s.postRepo.GetReaction(ctx, userID, postID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	if current == kind {
		if err := s.postRepo.ClearReaction(ctx, userID, postID); err != nil {
			return nil, models.NewInternalError(err)
		}
	} else {
		if err := s.postRepo.SetReaction(ctx, userID, postID, kind); err != nil {
			return nil, models.NewInternalError(err)
		}
	}

	return s.fetchPost(ctx, postID)
}

func (s *PostService) fetchPost(ctx context.Context, id uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewInternalError(err)
	}
	return post, nil
}
