package sessionRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aroti/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type sessionRow struct {
	ID               string    `gorm:"primaryKey;column:id"`
	SpecialistID     string    `gorm:"column:specialist_id;not null"`
	UserID           string    `gorm:"column:user_id;not null;index"`
	SpecialistName   string    `gorm:"column:specialist_name"`
	SpecialistPhoto  string    `gorm:"column:specialist_photo"`
	Specialty        string    `gorm:"column:specialty"`
	Date             string    `gorm:"column:date;not null"`
	Time             string    `gorm:"column:time;not null"`
	Duration         int       `gorm:"column:duration;not null;default:50"`
	Price            int       `gorm:"column:price;not null"`
	Status           string    `gorm:"column:status;not null;default:pending"`
	MeetingLink      string    `gorm:"column:meeting_link"`
	PreparationNotes string    `gorm:"column:preparation_notes;type:text"`
	CreatedAt        time.Time `gorm:"column:created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at"`
}

func (sessionRow) TableName() string { return "sessions" }

// GormSessionRepo implements SessionRepository on Postgres.
type GormSessionRepo struct {
	db *gorm.DB
}

func NewGormSessionRepo(db *gorm.DB) *GormSessionRepo {
	return &GormSessionRepo{db: db}
}

// Migrate creates the sessions table and the partial unique index guarding active slots.
func (r *GormSessionRepo) Migrate(ctx context.Context) error {
	db := r.db.WithContext(ctx)
	if err := db.AutoMigrate(&sessionRow{}); err != nil {
		return err
	}
	return db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS ux_sessions_active_slot
		ON sessions (specialist_id, date, time) WHERE status IN ('pending', 'upcoming')`).Error
}

func (r *GormSessionRepo) Upsert(ctx context.Context, s *models.Session) (*models.Session, error) {
	row := toSessionRow(s)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrSlotTaken
		}
		return nil, fmt.Errorf("failed to upsert session %s: %w", s.ID, err)
	}
	return r.GetByID(ctx, s.ID)
}

func (r *GormSessionRepo) FindBySlot(ctx context.Context, specialistID, date, clock string, statuses ...models.SessionStatus) (*models.Session, error) {
	q := r.db.WithContext(ctx).Where("specialist_id = ? AND date = ? AND time = ?", specialistID, date, clock)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statusStrings(statuses))
	}
	var rows []sessionRow
	if err := q.Limit(1).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to find session by slot: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	s := rows[0].toModel()
	return &s, nil
}

func (r *GormSessionRepo) GetByID(ctx context.Context, id string) (*models.Session, error) {
	var row sessionRow
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch session %s: %w", id, err)
	}
	s := row.toModel()
	return &s, nil
}

func (r *GormSessionRepo) ListByUser(ctx context.Context, userID string, status models.SessionStatus) ([]models.Session, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if status != "" {
		q = q.Where("status = ?", string(status))
	}
	var rows []sessionRow
	if err := q.Order("date, time").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return toModels(rows), nil
}

func (r *GormSessionRepo) Reschedule(ctx context.Context, id, date, clock string) (*models.Session, error) {
	res := r.db.WithContext(ctx).Model(&sessionRow{}).
		Where("id = ? AND status IN ?", id, statusStrings(models.ActiveSessionStatuses)).
		Updates(map[string]interface{}{"date": date, "time": clock, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrSlotTaken
		}
		return nil, fmt.Errorf("failed to reschedule session %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrNotActive
	}
	return r.GetByID(ctx, id)
}

func (r *GormSessionRepo) UpdateStatus(ctx context.Context, id string, status models.SessionStatus) (*models.Session, error) {
	res := r.db.WithContext(ctx).Model(&sessionRow{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": string(status), "updated_at": time.Now().UTC()})
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrSlotTaken
		}
		return nil, fmt.Errorf("failed to update session %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *GormSessionRepo) AttachMeetingLink(ctx context.Context, id, link string) error {
	res := r.db.WithContext(ctx).Model(&sessionRow{}).Where("id = ?", id).
		Updates(map[string]interface{}{"meeting_link": link, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return fmt.Errorf("failed to attach meeting link to %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormSessionRepo) ListPendingWithoutLink(ctx context.Context, createdBefore time.Time, limit int) ([]models.Session, error) {
	var rows []sessionRow
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ? AND (meeting_link IS NULL OR meeting_link = '')", string(models.SessionPending), createdBefore).
		Order("created_at").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending sessions: %w", err)
	}
	return toModels(rows), nil
}

func statusStrings(statuses []models.SessionStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func toSessionRow(s *models.Session) sessionRow {
	return sessionRow{
		ID: s.ID, SpecialistID: s.SpecialistID, UserID: s.UserID,
		SpecialistName: s.SpecialistName, SpecialistPhoto: s.SpecialistPhoto, Specialty: s.Specialty,
		Date: s.Date, Time: s.Time, Duration: s.Duration, Price: s.Price, Status: string(s.Status),
		MeetingLink: s.MeetingLink, PreparationNotes: s.PreparationNotes,
		CreatedAt: s.CreatedAt, UpdatedAt: s.UpdatedAt,
	}
}

func (row sessionRow) toModel() models.Session {
	return models.Session{
		ID: row.ID, SpecialistID: row.SpecialistID, UserID: row.UserID,
		SpecialistName: row.SpecialistName, SpecialistPhoto: row.SpecialistPhoto, Specialty: row.Specialty,
		Date: row.Date, Time: row.Time, Duration: row.Duration, Price: row.Price,
		Status: models.SessionStatus(row.Status), MeetingLink: row.MeetingLink,
		PreparationNotes: row.PreparationNotes, CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt,
	}
}

func toModels(rows []sessionRow) []models.Session {
	out := make([]models.Session, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out
}
