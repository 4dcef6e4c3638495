// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"quickblog/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumPosts    int
	ShouldClean bool
}

// SharedPassword is the plaintext password assigned to every seeded account.
const SharedPassword = "Password123!"

var categories = []string{
	"General", "Technology", "Programming", "Travel", "Food", "Music",
	"Books", "Science", "Fitness", "Finance", "Art", "Gaming",
}

// Seed populates the database with test data
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("🌱 Starting database seeding with %d users and %d posts...", opts.NumUsers, opts.NumPosts)

	gofakeit.Seed(time.Now().UnixNano())
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Println("⚠️  Warning: Could not clear all existing data, but continuing anyway...")
		}
	}

	users, err := createUsers(db, opts.NumUsers)
	if err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}
	log.Printf("✓ %d test users created", len(users))

	posts, err := createPosts(db, r, users, opts.NumPosts)
	if err != nil {
		return fmt.Errorf("failed to create posts: %w", err)
	}
	log.Printf("✓ %d posts created", len(posts))

	if err := createReactions(db, r, users, posts); err != nil {
		return fmt.Errorf("failed to create reactions: %w", err)
	}
	log.Println("✓ reactions created")

	if err := createComments(db, r, users, posts); err != nil {
		return fmt.Errorf("failed to create comments: %w", err)
	}
	log.Println("✓ comments created")

	log.Println("✨ Seeding complete")
	return nil
}

func clearData(db *gorm.DB) error {
	for _, model := range []any{
		&models.Reaction{},
		&models.Comment{},
		&models.Post{},
		&models.User{},
	} {
		if err := db.Unscoped().Where("1 = 1").Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}

func createUsers(db *gorm.DB, count int) ([]*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(SharedPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	users := make([]*models.User, 0, count+1)

	admin := &models.User{
		Username: "admin",
		Email:    "admin@quickblog.dev",
		Password: string(hash),
		Role:     models.RoleAdmin,
	}
	if err := db.Create(admin).Error; err != nil {
		return nil, err
	}
	users = append(users, admin)

	for i := 0; i < count; i++ {
		username := strings.ToLower(gofakeit.Username())
		if len(username) < 3 {
			username = username + gofakeit.DigitN(3)
		}
		user := &models.User{
			Username: fmt.Sprintf("%s%d", username, i),
			Email:    fmt.Sprintf("%d.%s", i, gofakeit.Email()),
			Password: string(hash),
			Role:     models.RoleUser,
		}
		if err := db.Create(user).Error; err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	return users, nil
}

func createPosts(db *gorm.DB, r *rand.Rand, users []*models.User, count int) ([]*models.Post, error) {
	posts := make([]*models.Post, 0, count)

	for i := 0; i < count; i++ {
		author := users[r.Intn(len(users))]

		status := models.StatusPublished
		if r.Intn(5) == 0 {
			status = models.StatusDraft
		}

		postCategories := []string{categories[r.Intn(len(categories))]}
		if r.Intn(3) == 0 {
			postCategories = append(postCategories, categories[r.Intn(len(categories))])
		}

		post := &models.Post{
			Title:     truncate(gofakeit.Sentence(6), 100),
			Subtitle:  truncate(gofakeit.Sentence(10), 200),
			Content:   gofakeit.Paragraph(3, 5, 12, "\n\n"),
			Thumbnail: models.DefaultThumbnail,
			AuthorID:  author.ID,
			Category:  postCategories,
			Status:    status,
			// spread creation times so feed ordering looks organic
			CreatedAt: time.Now().Add(-time.Duration(r.Intn(90*24)) * time.Hour),
		}
		if err := db.Create(post).Error; err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}

	return posts, nil
}

func createReactions(db *gorm.DB, r *rand.Rand, users []*models.User, posts []*models.Post) error {
	for _, post := range posts {
		for _, user := range users {
			roll := r.Intn(10)
			var kind string
			switch {
			case roll < 3:
				kind = models.ReactionLike
			case roll == 3:
				kind = models.ReactionDislike
			default:
				continue
			}
			reaction := &models.Reaction{
				UserID: user.ID,
				PostID: post.ID,
				Kind:   kind,
			}
			if err := db.Create(reaction).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func createComments(db *gorm.DB, r *rand.Rand, users []*models.User, posts []*models.Post) error {
	for _, post := range posts {
		numComments := r.Intn(6)
		for i := 0; i < numComments; i++ {
			author := users[r.Intn(len(users))]
			comment := &models.Comment{
				Content:  gofakeit.Sentence(12),
				PostID:   post.ID,
				AuthorID: author.ID,
			}
			if err := db.Create(comment).Error; err != nil {
				return err
			}
		}
		// keep the denormalized counter consistent with the rows just written
		if err := db.Model(post).UpdateColumn("comment_count", numComments).Error; err != nil {
			return err
		}
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
