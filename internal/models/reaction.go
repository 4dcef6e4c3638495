package models

import "time"

// Reaction kinds.
const (
	ReactionLike    = "like"
	ReactionDislike = "dislike"
)

// Reaction records a user's like or dislike on a post. The unique index on
// (user_id, post_id) allows at most one row per user and post, which keeps the
// like and dislike sets disjoint at the storage layer rather than by
// read-modify-write bookkeeping.
type Reaction struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_reaction_user_post" json:"user_id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_reaction_user_post;index" json:"post_id"`
	Kind      string    `gorm:"not null" json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}
