package userRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aroti/models"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type userRow struct {
	ID            string         `gorm:"primaryKey;column:id"`
	Name          string         `gorm:"column:name"`
	Email         string         `gorm:"column:email"`
	PushToken     string         `gorm:"column:push_token"`
	PushPlatform  string         `gorm:"column:push_platform"`
	SunSign       string         `gorm:"column:sun_sign"`
	MoonSign      string         `gorm:"column:moon_sign"`
	BirthDate     string         `gorm:"column:birth_date"`
	BirthTime     string         `gorm:"column:birth_time"`
	BirthLocation string         `gorm:"column:birth_location"`
	Traits        pq.StringArray `gorm:"column:traits;type:text[]"`
	IsPremium     bool           `gorm:"column:is_premium"`
	CreatedAt     time.Time      `gorm:"column:created_at"`
	UpdatedAt     time.Time      `gorm:"column:updated_at"`
}

func (userRow) TableName() string { return "users" }

func rowOf(u *models.User) userRow {
	return userRow{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		PushToken:     u.PushToken,
		PushPlatform:  u.PushPlatform,
		SunSign:       u.SunSign,
		MoonSign:      u.MoonSign,
		BirthDate:     u.BirthDate,
		BirthTime:     u.BirthTime,
		BirthLocation: u.BirthLocation,
		Traits:        pq.StringArray(u.Traits),
		IsPremium:     u.IsPremium,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func (r userRow) toModel() *models.User {
	return &models.User{
		ID:            r.ID,
		Name:          r.Name,
		Email:         r.Email,
		PushToken:     r.PushToken,
		PushPlatform:  r.PushPlatform,
		SunSign:       r.SunSign,
		MoonSign:      r.MoonSign,
		BirthDate:     r.BirthDate,
		BirthTime:     r.BirthTime,
		BirthLocation: r.BirthLocation,
		Traits:        []string(r.Traits),
		IsPremium:     r.IsPremium,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

// GormUserRepo implements UserRepository on Postgres.
type GormUserRepo struct {
	db *gorm.DB
}

func NewGormUserRepo(db *gorm.DB) *GormUserRepo {
	return &GormUserRepo{db: db}
}

func (r *GormUserRepo) Migrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&userRow{})
}

func (r *GormUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	var row userRow
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch user with id %s: %w", id, err)
	}
	return row.toModel(), nil
}

func (r *GormUserRepo) Save(ctx context.Context, user *models.User) error {
	row := rowOf(user)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save user %s: %w", user.ID, err)
	}
	return nil
}

func (r *GormUserRepo) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Delete(&userRow{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete user %s: %w", id, err)
	}
	return nil
}
