// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"

	"quickblog/internal/cache"
	"quickblog/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	ListPublished(ctx context.Context, limit, offset int) ([]*models.Post, int64, error)
	ListByAuthor(ctx context.Context, authorID uint, limit, offset int) ([]*models.Post, int64, error)
	ListAll(ctx context.Context, limit, offset int) ([]*models.Post, int64, error)
	Update(ctx context.Context, post *models.Post) error
	UpdateStatus(ctx context.Context, id uint, status string) error
	Delete(ctx context.Context, id uint) error
	GetReaction(ctx context.Context, userID, postID uint) (string, error)
	SetReaction(ctx context.Context, userID, postID uint, kind string) error
	ClearReaction(ctx context.Context, userID, postID uint) error
	LoadReactions(ctx context.Context, posts []*models.Post) error
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// withAuthor preloads the author with public columns only.
func withAuthor(db *gorm.DB) *gorm.DB {
	return db.Preload("Author", func(db *gorm.DB) *gorm.DB {
		return db.Select("id", "username", "role")
	})
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	err := r.db.WithContext(ctx).Create(post).Error
	if err == nil {
		cache.Invalidate(ctx, cache.FeedKey(1, 10))
	}
	return err
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := withAuthor(r.db.WithContext(ctx)).First(&post, id).Error; err != nil {
		return nil, err
	}
	if err := r.LoadReactions(ctx, []*models.Post{&post}); err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) ListPublished(ctx context.Context, limit, offset int) ([]*models.Post, int64, error) {
	return r.list(ctx, r.db.WithContext(ctx).Where("status = ?", models.StatusPublished), limit, offset)
}

func (r *postRepository) ListByAuthor(ctx context.Context, authorID uint, limit, offset int) ([]*models.Post, int64, error) {
	return r.list(ctx, r.db.WithContext(ctx).Where("author_id = ?", authorID), limit, offset)
}

func (r *postRepository) ListAll(ctx context.Context, limit, offset int) ([]*models.Post, int64, error) {
	return r.list(ctx, r.db.WithContext(ctx), limit, offset)
}

// list runs the count and the page query against the same filtered scope.
func (r *postRepository) list(ctx context.Context, scope *gorm.DB, limit, offset int) ([]*models.Post, int64, error) {
	var total int64
	if err := scope.Session(&gorm.Session{}).Model(&models.Post{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []*models.Post
	err := withAuthor(scope.Session(&gorm.Session{})).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	if err := r.LoadReactions(ctx, posts); err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Save(post).Error; err != nil {
		return err
	}
	cache.InvalidatePost(ctx, post.ID)
	return nil
}

func (r *postRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	cache.InvalidatePost(ctx, id)
	return nil
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.Post{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Where("post_id = ?", id).Delete(&models.Reaction{}).Error
	})
	if err != nil {
		return err
	}
	cache.InvalidatePost(ctx, id)
	return nil
}

func (r *postRepository) GetReaction(ctx context.Context, userID, postID uint) (string, error) {
	var reaction models.Reaction
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		First(&reaction).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return reaction.Kind, nil
}

func (r *postRepository) SetReaction(ctx context.Context, userID, postID uint, kind string) error {
	// Single upsert keyed on (user_id, post_id): a user holds at most one
	// reaction per post, so switching sides never leaves both sets populated.
	reaction := models.Reaction{UserID: userID, PostID: postID, Kind: kind}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "post_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"kind"}),
	}).Create(&reaction).Error
	if err == nil {
		cache.InvalidatePost(ctx, postID)
	}
	return err
}

func (r *postRepository) ClearReaction(ctx context.Context, userID, postID uint) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&models.Reaction{}).Error
	if err == nil {
		cache.InvalidatePost(ctx, postID)
	}
	return err
}

// LoadReactions fills the Likes and Dislikes user-id sets for the given posts
// from a single reactions query.
func (r *postRepository) LoadReactions(ctx context.Context, posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}

	ids := make([]uint, 0, len(posts))
	byID := make(map[uint]*models.Post, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
		byID[p.ID] = p
		p.Likes = []uint{}
		p.Dislikes = []uint{}
	}

	var reactions []models.Reaction
	if err := r.db.WithContext(ctx).
		Where("post_id IN ?", ids).
		Order("created_at ASC").
		Find(&reactions).Error; err != nil {
		return err
	}

	for _, reaction := range reactions {
		post := byID[reaction.PostID]
		if post == nil {
			continue
		}
		switch reaction.Kind {
		case models.ReactionLike:
			post.Likes = append(post.Likes, reaction.UserID)
		case models.ReactionDislike:
			post.Dislikes = append(post.Dislikes, reaction.UserID)
		}
	}
	return nil
}
