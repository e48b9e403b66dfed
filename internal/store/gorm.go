package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/minifeed/backend/internal/database"
	"github.com/emilythestrangee/minifeed/backend/internal/models"
)

const batchSize = 100

// GormRepository keeps the collections in the users and posts tables.
// Users and posts are never deleted, so replacing a collection upserts
// every row inside one transaction.
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) LoadUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := r.db.WithContext(ctx).Order("username").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	return users, nil
}

func (r *GormRepository) ReplaceUsers(ctx context.Context, users []models.User) error {
	if len(users) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).CreateInBatches(users, batchSize).Error
	})
}

func (r *GormRepository) LoadPosts(ctx context.Context) ([]models.Post, error) {
	posts := []models.Post{}
	if err := r.db.WithContext(ctx).Order(clause.OrderByColumn{Column: clause.Column{Name: "timestamp"}}).Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("select posts: %w", err)
	}
	return posts, nil
}

func (r *GormRepository) ReplacePosts(ctx context.Context, posts []models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).CreateInBatches(posts, batchSize).Error
	})
}

func (r *GormRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Health reports database connectivity.
func (r *GormRepository) Health(ctx context.Context) map[string]string {
	stats := database.Health(ctx, r.db)
	stats["storage"] = "postgres"
	return stats
}
