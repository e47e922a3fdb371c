package specialistRepo

import (
	"context"
	"errors"
	"fmt"

	"aroti/models"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type specialistRow struct {
	ID              string         `gorm:"primaryKey;column:id"`
	Name            string         `gorm:"column:name;not null"`
	Specialty       string         `gorm:"column:specialty;not null"`
	Categories      pq.StringArray `gorm:"column:categories;type:text[]"`
	Country         string         `gorm:"column:country"`
	CountryFlag     string         `gorm:"column:country_flag"`
	Rating          float64        `gorm:"column:rating"`
	ReviewCount     int            `gorm:"column:review_count"`
	SessionCount    int            `gorm:"column:session_count"`
	Price           int            `gorm:"column:price;not null"`
	Bio             string         `gorm:"column:bio;type:text"`
	YearsOfPractice int            `gorm:"column:years_of_practice"`
	Photo           string         `gorm:"column:photo"`
	Available       bool           `gorm:"column:available;not null;default:true;index"`
	Languages       pq.StringArray `gorm:"column:languages;type:text[]"`
	AddedDate       string         `gorm:"column:added_date"`
}

func (specialistRow) TableName() string { return "specialists" }

type reviewRow struct {
	ID           string `gorm:"primaryKey;column:id"`
	SpecialistID string `gorm:"column:specialist_id;not null;index"`
	UserName     string `gorm:"column:user_name"`
	Rating       int    `gorm:"column:rating"`
	Comment      string `gorm:"column:comment;type:text"`
	Date         string `gorm:"column:date"`
}

func (reviewRow) TableName() string { return "reviews" }

// GormSpecialistRepo implements SpecialistRepository on Postgres.
type GormSpecialistRepo struct {
	db *gorm.DB
}

func NewGormSpecialistRepo(db *gorm.DB) *GormSpecialistRepo {
	return &GormSpecialistRepo{db: db}
}

// Migrate creates the catalog tables.
func (r *GormSpecialistRepo) Migrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&specialistRow{}, &reviewRow{})
}

// Seed inserts the given catalog, leaving existing rows untouched.
func (r *GormSpecialistRepo) Seed(ctx context.Context, specialists []models.Specialist, reviews []models.Review) error {
	db := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true})
	for _, s := range specialists {
		row := toSpecialistRow(s)
		if err := db.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to seed specialist %s: %w", s.ID, err)
		}
	}
	for _, rv := range reviews {
		row := reviewRow(rv)
		if err := db.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to seed review %s: %w", rv.ID, err)
		}
	}
	return nil
}

func (r *GormSpecialistRepo) GetByID(ctx context.Context, id string) (*models.Specialist, error) {
	var row specialistRow
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch specialist %s: %w", id, err)
	}
	s := row.toModel()
	return &s, nil
}

func (r *GormSpecialistRepo) List(ctx context.Context, f models.SpecialistFilter) ([]models.Specialist, error) {
	q := r.db.WithContext(ctx).Model(&specialistRow{})
	switch f.Availability {
	case models.AvailabilityAvailable:
		q = q.Where("available = ?", true)
	case models.AvailabilityUnavailable:
		q = q.Where("available = ?", false)
	}
	if f.PriceMin != nil {
		q = q.Where("price >= ?", *f.PriceMin)
	}
	if f.PriceMax != nil {
		q = q.Where("price <= ?", *f.PriceMax)
	}
	if f.MinRating != nil {
		q = q.Where("rating >= ?", *f.MinRating)
	}
	if len(f.Languages) > 0 {
		q = q.Where("languages && ?", pq.StringArray(f.Languages))
	}
	if f.Category != "" {
		q = q.Where("? = ANY(categories)", f.Category)
	}

	var rows []specialistRow
	if err := q.Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list specialists: %w", err)
	}
	out := make([]models.Specialist, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out, nil
}

func (r *GormSpecialistRepo) ListReviews(ctx context.Context, specialistID string) ([]models.Review, error) {
	var rows []reviewRow
	if err := r.db.WithContext(ctx).Where("specialist_id = ?", specialistID).Order("date DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	out := make([]models.Review, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.Review(row))
	}
	return out, nil
}

func toSpecialistRow(s models.Specialist) specialistRow {
	return specialistRow{
		ID: s.ID, Name: s.Name, Specialty: s.Specialty, Categories: s.Categories,
		Country: s.Country, CountryFlag: s.CountryFlag, Rating: s.Rating,
		ReviewCount: s.ReviewCount, SessionCount: s.SessionCount, Price: s.Price,
		Bio: s.Bio, YearsOfPractice: s.YearsOfPractice, Photo: s.Photo,
		Available: s.Available, Languages: s.Languages, AddedDate: s.AddedDate,
	}
}

func (row specialistRow) toModel() models.Specialist {
	return models.Specialist{
		ID: row.ID, Name: row.Name, Specialty: row.Specialty, Categories: []string(row.Categories),
		Country: row.Country, CountryFlag: row.CountryFlag, Rating: row.Rating,
		ReviewCount: row.ReviewCount, SessionCount: row.SessionCount, Price: row.Price,
		Bio: row.Bio, YearsOfPractice: row.YearsOfPractice, Photo: row.Photo,
		Available: row.Available, Languages: []string(row.Languages), AddedDate: row.AddedDate,
	}
}
