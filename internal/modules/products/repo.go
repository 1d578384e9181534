package products

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("product not found")

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

func (r *Repo) ListActive(ctx context.Context) ([]Product, error) {
	var out []Product
	err := r.db.WithContext(ctx).
		Where("status = ?", StatusActive).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (r *Repo) Get(ctx context.Context, id uint64) (Product, error) {
	var p Product
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Product{}, ErrNotFound
	}
	return p, err
}

// GetMany resolves products by id for server-side price lookups.
func (r *Repo) GetMany(ctx context.Context, ids []uint64) (map[uint64]Product, error) {
	if len(ids) == 0 {
		return map[uint64]Product{}, nil
	}
	var rows []Product
	if err := r.db.WithContext(ctx).Find(&rows, "id IN ?", ids).Error; err != nil {
		return nil, err
	}
	out := make(map[uint64]Product, len(rows))
	for _, p := range rows {
		out[p.ID] = p
	}
	return out, nil
}

func (r *Repo) Variants(ctx context.Context, productID uint64) ([]Inventory, error) {
	var rows []Inventory
	err := r.db.WithContext(ctx).
		Order("color ASC, size ASC").
		Find(&rows, "product_id = ?", productID).Error
	return rows, err
}

func (r *Repo) Images(ctx context.Context, productID uint64) ([]Image, error) {
	var rows []Image
	err := r.db.WithContext(ctx).
		Order("position ASC").
		Find(&rows, "product_id = ?", productID).Error
	return rows, err
}

func (r *Repo) AddImage(ctx context.Context, img Image) (Image, error) {
	img.CreatedAt = time.Now()
	err := r.db.WithContext(ctx).Create(&img).Error
	return img, err
}

func (r *Repo) DeleteImage(ctx context.Context, productID, imageID uint64) (Image, error) {
	var img Image
	err := r.db.WithContext(ctx).
		First(&img, "id = ? AND product_id = ?", imageID, productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Image{}, ErrNotFound
	}
	if err != nil {
		return Image{}, err
	}
	return img, r.db.WithContext(ctx).Delete(&Image{}, "id = ?", img.ID).Error
}
