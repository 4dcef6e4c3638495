package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	PostKeyPrefix = "post:%d"
	FeedKeyPrefix = "posts:feed:page:%d:limit:%d"
)

const (
	PostTTL = 30 * time.Minute
	FeedTTL = 5 * time.Minute
)

func PostKey(postID uint) string {
	return fmt.Sprintf(PostKeyPrefix, postID)
}

func FeedKey(page, limit int) string {
	return fmt.Sprintf(FeedKeyPrefix, page, limit)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

// InvalidatePost drops the post detail entry and the default feed page. Any
// mutation that changes what readers see for a post goes through here.
func InvalidatePost(ctx context.Context, postID uint) {
	Invalidate(ctx, PostKey(postID))
	Invalidate(ctx, FeedKey(1, 10))
}
