package models

import (
	"time"

	"gorm.io/gorm"
)

// Post statuses. Only Published posts appear in the public feed.
const (
	StatusDraft     = "Draft"
	StatusPublished = "Published"
)

// DefaultThumbnail is the placeholder used when a post has no stored image.
const DefaultThumbnail = "/uploads/no-photo.jpg"

// Post represents a blog post.
type Post struct {
	ID        uint     `gorm:"primaryKey" json:"id"`
	Title     string   `gorm:"size:100;not null" json:"title"`
	Subtitle  string   `gorm:"size:200" json:"subtitle"`
	Content   string   `gorm:"type:text;not null" json:"content"`
	Thumbnail string   `gorm:"not null" json:"thumbnail"`
	AuthorID  uint     `gorm:"not null;index" json:"author_id"`
	Author    User     `gorm:"foreignKey:AuthorID" json:"author"`
	Category  []string `gorm:"serializer:json" json:"category"`
	Status    string   `gorm:"not null;default:Draft" json:"status"`
	// CommentCount is denormalized; it is adjusted in the same transaction as
	// the comment insert or delete it reflects.
	CommentCount int `json:"comment_count"`
	// Likes and Dislikes are not persisted on the post row; they are the user
	// id sets loaded from reactions at query time.
	Likes     []uint         `gorm:"-" json:"likes"`
	Dislikes  []uint         `gorm:"-" json:"dislikes"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsValidStatus reports whether s is one of the known post statuses.
func IsValidStatus(s string) bool {
	return s == StatusDraft || s == StatusPublished
}

// PostPage is one page of a post listing.
type PostPage struct {
	Data        []*Post `json:"data"`
	CurrentPage int     `json:"currentPage"`
	TotalPages  int     `json:"totalPages"`
	TotalPosts  int64   `json:"totalPosts"`
}
