package service

import (
	"context"
	"errors"
	"strings"

	"quickblog/internal/models"
	"quickblog/internal/repository"

	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
)

const maxCommentLen = 10000

// commentPolicy strips all markup; comments are plain text.
var commentPolicy = bluemonday.StrictPolicy()

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
}

type CreateCommentInput struct {
	AuthorID uint
	PostID   uint
	Content  string
}

type UpdateCommentInput struct {
	Actor     models.Actor
	CommentID uint
	Content   string
}

type DeleteCommentInput struct {
	Actor     models.Actor
	CommentID uint
}

func NewCommentService(commentRepo repository.CommentRepository, postRepo repository.PostRepository) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
	}
}

func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if _, err := s.postRepo.GetByID(ctx, in.PostID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", in.PostID)
		}
		return nil, models.NewInternalError(err)
	}

	content := strings.TrimSpace(commentPolicy.Sanitize(in.Content))
	if content == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(content) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 10000 characters)")
	}

	comment := &models.Comment{
		Content:  content,
		AuthorID: in.AuthorID,
		PostID:   in.PostID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, models.NewInternalError(err)
	}

	return s.fetchComment(ctx, comment.ID)
}

// ListComments returns all comments on the post, oldest first.
func (s *CommentService) ListComments(ctx context.Context, postID uint) ([]*models.Comment, error) {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", postID)
		}
		return nil, models.NewInternalError(err)
	}
	comments, err := s.commentRepo.ListByPost(ctx, postID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

// UpdateComment edits a comment. Only the author may edit; admins can delete
// comments but not rewrite them.
func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	comment, err := s.fetchComment(ctx, in.CommentID)
	if err != nil {
		return nil, err
	}

	if comment.AuthorID != in.Actor.ID {
		return nil, models.NewForbiddenError("You can only update your own comments")
	}

	content := strings.TrimSpace(commentPolicy.Sanitize(in.Content))
	if content == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(content) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 10000 characters)")
	}

	comment.Content = content
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, models.NewInternalError(err)
	}

	return s.fetchComment(ctx, comment.ID)
}

func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) (*models.Comment, error) {
	comment, err := s.fetchComment(ctx, in.CommentID)
	if err != nil {
		return nil, err
	}

	if !in.Actor.CanModify(comment.AuthorID) {
		return nil, models.NewForbiddenError("You can only delete your own comments")
	}

	if err := s.commentRepo.Delete(ctx, in.CommentID); err != nil {
		return nil, models.NewInternalError(err)
	}

	return comment, nil
}

func (s *CommentService) fetchComment(ctx context.Context, id uint) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Comment", id)
		}
		return nil, models.NewInternalError(err)
	}
	return comment, nil
}
