package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Mielola/api-photobooth/internal/domain"
	"github.com/oklog/ulid/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"
)

type Repository struct {
	db *gorm.DB
}

// Open opens the booth database and applies the embedded migrations.
func Open(ctx context.Context, path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Dialector{
		DriverName: "sqlite",
		DSN:        fmt.Sprintf("file:%s?_pragma=foreign_keys(1)", path),
	}, &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := migrate(ctx, db); err != nil {
		return nil, err
	}
	return db, nil
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func newUID() string {
	return ulid.Make().String()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func orEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func eventToDomain(m EventModel) domain.Event {
	return domain.Event{
		ID:         m.ID,
		UID:        m.UID,
		Name:       m.Name,
		CoupleName: m.CoupleName,
		Date:       m.Date,
		Status:     domain.EventStatus(m.Status),
		Background: orEmpty(m.Background),
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func frameToDomain(m FrameModel) domain.Frame {
	return domain.Frame{
		ID:         m.ID,
		UID:        m.UID,
		Name:       m.Name,
		PhotoCount: m.PhotoCount,
		ImagePath:  m.ImagePath,
		EventID:    m.EventID,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func sessionToDomain(m SessionModel) domain.Session {
	return domain.Session{
		ID:        m.ID,
		UID:       m.UID,
		EventID:   m.EventID,
		Email:     orEmpty(m.Email),
		ExpiresAt: m.ExpiresAt,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func photoToDomain(m PhotoModel) domain.Photo {
	return domain.Photo{
		ID:        m.ID,
		UID:       m.UID,
		Kind:      domain.PhotoKind(m.Kind),
		Path:      m.Path,
		SessionID: m.SessionID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func (r *Repository) CreateEvent(ctx context.Context, value domain.Event) (domain.Event, error) {
	uid := value.UID
	if uid == "" {
		uid = newUID()
	}
	m := EventModel{
		UID:        uid,
		Name:       value.Name,
		CoupleName: value.CoupleName,
		Date:       value.Date,
		Status:     string(value.Status),
		Background: nullable(value.Background),
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.Event{}, err
	}
	return eventToDomain(m), nil
}

func (r *Repository) GetEventByUID(ctx context.Context, uid string) (domain.Event, error) {
	var m EventModel
	if err := r.db.WithContext(ctx).Where("uid = ?", uid).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Event{}, domain.ErrEventNotFound
		}
		return domain.Event{}, err
	}
	return eventToDomain(m), nil
}

func (r *Repository) GetEventByID(ctx context.Context, id uint) (domain.Event, error) {
	var m EventModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Event{}, domain.ErrEventNotFound
		}
		return domain.Event{}, err
	}
	return eventToDomain(m), nil
}

func (r *Repository) ListEvents(ctx context.Context, filter domain.EventFilter, page domain.Pagination) ([]domain.Event, int64, error) {
	q := r.db.WithContext(ctx).Model(&EventModel{})
	if strings.TrimSpace(filter.Search) != "" {
		like := "%" + strings.TrimSpace(filter.Search) + "%"
		q = q.Where("name LIKE ? OR couple_name LIKE ?", like, like)
	}
	if filter.Status != nil {
		q = q.Where("status = ?", string(*filter.Status))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	rows := make([]EventModel, 0)
	if err := q.Order("created_at DESC, id DESC").Offset(page.Offset()).Limit(page.PerPage).Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	result := make([]domain.Event, 0, len(rows))
	for _, m := range rows {
		result = append(result, eventToDomain(m))
	}
	return result, total, nil
}

func (r *Repository) ListActiveEvents(ctx context.Context) ([]domain.Event, error) {
	rows := make([]EventModel, 0)
	if err := r.db.WithContext(ctx).Where("status = ?", string(domain.EventStatusActive)).Order("date DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.Event, 0, len(rows))
	for _, m := range rows {
		result = append(result, eventToDomain(m))
	}
	return result, nil
}

func (r *Repository) UpdateEvent(ctx context.Context, value domain.Event) (domain.Event, error) {
	updates := map[string]any{
		"name":        value.Name,
		"couple_name": value.CoupleName,
		"date":        value.Date,
		"status":      string(value.Status),
		"background":  nullable(value.Background),
	}
	res := r.db.WithContext(ctx).Model(&EventModel{}).Where("id = ?", value.ID).Updates(updates)
	if res.Error != nil {
		return domain.Event{}, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.Event{}, domain.ErrEventNotFound
	}
	return r.GetEventByID(ctx, value.ID)
}

func (r *Repository) DeleteEvent(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sessionIDs := tx.Model(&SessionModel{}).Select("id").Where("event_id = ?", id)
		if err := tx.Where("session_id IN (?)", sessionIDs).Delete(&PhotoModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("event_id = ?", id).Delete(&SessionModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("event_id = ?", id).Delete(&FrameModel{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&EventModel{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrEventNotFound
		}
		return nil
	})
}

func (r *Repository) LatestPhotoPerEvent(ctx context.Context, eventIDs []uint) (map[uint]domain.Photo, error) {
	if len(eventIDs) == 0 {
		return map[uint]domain.Photo{}, nil
	}

	latest := r.db.Table("photos").
		Select("MAX(photos.id)").
		Joins("JOIN sessions ON sessions.id = photos.session_id").
		Where("sessions.event_id IN ?", eventIDs).
		Group("sessions.event_id")

	type photoRow struct {
		PhotoModel
		EventID uint
	}
	rows := make([]photoRow, 0)
	err := r.db.WithContext(ctx).Table("photos").
		Select("photos.*, sessions.event_id AS event_id").
		Joins("JOIN sessions ON sessions.id = photos.session_id").
		Where("photos.id IN (?)", latest).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make(map[uint]domain.Photo, len(rows))
	for _, row := range rows {
		result[row.EventID] = photoToDomain(row.PhotoModel)
	}
	return result, nil
}

func (r *Repository) CreateFrame(ctx context.Context, value domain.Frame) (domain.Frame, error) {
	uid := value.UID
	if uid == "" {
		uid = newUID()
	}
	m := FrameModel{
		UID:        uid,
		Name:       value.Name,
		PhotoCount: value.PhotoCount,
		ImagePath:  value.ImagePath,
		EventID:    value.EventID,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.Frame{}, err
	}
	return frameToDomain(m), nil
}

func (r *Repository) GetFrameByUID(ctx context.Context, uid string) (domain.Frame, error) {
	var m FrameModel
	if err := r.db.WithContext(ctx).Where("uid = ?", uid).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Frame{}, domain.ErrFrameNotFound
		}
		return domain.Frame{}, err
	}
	return frameToDomain(m), nil
}

func (r *Repository) ListFrames(ctx context.Context, page domain.Pagination) ([]domain.Frame, int64, error) {
	q := r.db.WithContext(ctx).Model(&FrameModel{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	rows := make([]FrameModel, 0)
	if err := q.Order("created_at DESC, id DESC").Offset(page.Offset()).Limit(page.PerPage).Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	result := make([]domain.Frame, 0, len(rows))
	for _, m := range rows {
		result = append(result, frameToDomain(m))
	}
	return result, total, nil
}

func (r *Repository) ListFramesByEvent(ctx context.Context, eventID uint) ([]domain.Frame, error) {
	rows := make([]FrameModel, 0)
	if err := r.db.WithContext(ctx).Where("event_id = ?", eventID).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.Frame, 0, len(rows))
	for _, m := range rows {
		result = append(result, frameToDomain(m))
	}
	return result, nil
}

func (r *Repository) UpdateFrame(ctx context.Context, value domain.Frame) (domain.Frame, error) {
	updates := map[string]any{
		"name":        value.Name,
		"photo_count": value.PhotoCount,
		"image_path":  value.ImagePath,
	}
	res := r.db.WithContext(ctx).Model(&FrameModel{}).Where("id = ?", value.ID).Updates(updates)
	if res.Error != nil {
		return domain.Frame{}, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.Frame{}, domain.ErrFrameNotFound
	}

	var m FrameModel
	if err := r.db.WithContext(ctx).First(&m, value.ID).Error; err != nil {
		return domain.Frame{}, err
	}
	return frameToDomain(m), nil
}

func (r *Repository) DeleteFrame(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&FrameModel{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrFrameNotFound
	}
	return nil
}

func (r *Repository) CreateSession(ctx context.Context, value domain.Session) (domain.Session, error) {
	uid := value.UID
	if uid == "" {
		uid = newUID()
	}
	m := SessionModel{
		UID:       uid,
		EventID:   value.EventID,
		Email:     nullable(value.Email),
		ExpiresAt: value.ExpiresAt,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.Session{}, err
	}
	return sessionToDomain(m), nil
}

func (r *Repository) GetSessionByUID(ctx context.Context, uid string) (domain.Session, error) {
	var m SessionModel
	if err := r.db.WithContext(ctx).Where("uid = ?", uid).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Session{}, domain.ErrSessionNotFound
		}
		return domain.Session{}, err
	}
	return sessionToDomain(m), nil
}

func (r *Repository) GetSessionByID(ctx context.Context, id uint) (domain.Session, error) {
	var m SessionModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Session{}, domain.ErrSessionNotFound
		}
		return domain.Session{}, err
	}
	return sessionToDomain(m), nil
}

func (r *Repository) ListSessions(ctx context.Context, page domain.Pagination) ([]domain.Session, int64, error) {
	q := r.db.WithContext(ctx).Model(&SessionModel{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	rows := make([]SessionModel, 0)
	if err := q.Order("created_at DESC, id DESC").Offset(page.Offset()).Limit(page.PerPage).Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	result := make([]domain.Session, 0, len(rows))
	for _, m := range rows {
		result = append(result, sessionToDomain(m))
	}
	return result, total, nil
}

func (r *Repository) ListSessionsByEvent(ctx context.Context, eventID uint) ([]domain.Session, error) {
	rows := make([]SessionModel, 0)
	if err := r.db.WithContext(ctx).Where("event_id = ?", eventID).Order("created_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.Session, 0, len(rows))
	for _, m := range rows {
		result = append(result, sessionToDomain(m))
	}
	return result, nil
}

func (r *Repository) LatestSessionByEvent(ctx context.Context, eventID uint) (domain.Session, error) {
	var m SessionModel
	err := r.db.WithContext(ctx).Where("event_id = ?", eventID).Order("created_at DESC, id DESC").First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Session{}, domain.ErrSessionNotFound
		}
		return domain.Session{}, err
	}
	return sessionToDomain(m), nil
}

func (r *Repository) UpdateSession(ctx context.Context, value domain.Session) (domain.Session, error) {
	updates := map[string]any{
		"email":      nullable(value.Email),
		"expires_at": value.ExpiresAt,
	}
	res := r.db.WithContext(ctx).Model(&SessionModel{}).Where("id = ?", value.ID).Updates(updates)
	if res.Error != nil {
		return domain.Session{}, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return r.GetSessionByID(ctx, value.ID)
}

func (r *Repository) DeleteSession(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", id).Delete(&PhotoModel{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&SessionModel{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrSessionNotFound
		}
		return nil
	})
}

func (r *Repository) CreatePhoto(ctx context.Context, value domain.Photo) (domain.Photo, error) {
	uid := value.UID
	if uid == "" {
		uid = newUID()
	}
	m := PhotoModel{
		UID:       uid,
		Kind:      string(value.Kind),
		Path:      value.Path,
		SessionID: value.SessionID,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.Photo{}, err
	}
	return photoToDomain(m), nil
}

func (r *Repository) GetPhotoByUID(ctx context.Context, uid string) (domain.Photo, error) {
	var m PhotoModel
	if err := r.db.WithContext(ctx).Where("uid = ?", uid).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Photo{}, domain.ErrPhotoNotFound
		}
		return domain.Photo{}, err
	}
	return photoToDomain(m), nil
}

func (r *Repository) ListPhotosBySession(ctx context.Context, sessionID uint, kind *domain.PhotoKind) ([]domain.Photo, error) {
	q := r.db.WithContext(ctx).Where("session_id = ?", sessionID)
	if kind != nil {
		q = q.Where("kind = ?", string(*kind))
	}
	rows := make([]PhotoModel, 0)
	if err := q.Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.Photo, 0, len(rows))
	for _, m := range rows {
		result = append(result, photoToDomain(m))
	}
	return result, nil
}

func (r *Repository) ListPhotosByEvent(ctx context.Context, eventID uint) ([]domain.Photo, error) {
	rows := make([]PhotoModel, 0)
	err := r.db.WithContext(ctx).Table("photos").
		Select("photos.*").
		Joins("JOIN sessions ON sessions.id = photos.session_id").
		Where("sessions.event_id = ?", eventID).
		Order("sessions.id DESC, photos.id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make([]domain.Photo, 0, len(rows))
	for _, m := range rows {
		result = append(result, photoToDomain(m))
	}
	return result, nil
}

func (r *Repository) UpdatePhoto(ctx context.Context, value domain.Photo) (domain.Photo, error) {
	updates := map[string]any{
		"kind": string(value.Kind),
		"path": value.Path,
	}
	res := r.db.WithContext(ctx).Model(&PhotoModel{}).Where("id = ?", value.ID).Updates(updates)
	if res.Error != nil {
		return domain.Photo{}, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.Photo{}, domain.ErrPhotoNotFound
	}

	var m PhotoModel
	if err := r.db.WithContext(ctx).First(&m, value.ID).Error; err != nil {
		return domain.Photo{}, err
	}
	return photoToDomain(m), nil
}

func (r *Repository) DeletePhoto(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&PhotoModel{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrPhotoNotFound
	}
	return nil
}

func (r *Repository) CreateUser(ctx context.Context, value domain.User) (domain.User, error) {
	m := UserModel{Email: value.Email, PasswordHash: value.PasswordHash}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.User{}, err
	}
	return domain.User{ID: m.ID, Email: m.Email, PasswordHash: m.PasswordHash, CreatedAt: m.CreatedAt}, nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	var m UserModel
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, domain.ErrInvalidCredentials
		}
		return domain.User{}, err
	}
	return domain.User{ID: m.ID, Email: m.Email, PasswordHash: m.PasswordHash, CreatedAt: m.CreatedAt}, nil
}

func (r *Repository) GetUserByID(ctx context.Context, id uint) (domain.User, error) {
	var m UserModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, domain.ErrUnauthorized
		}
		return domain.User{}, err
	}
	return domain.User{ID: m.ID, Email: m.Email, PasswordHash: m.PasswordHash, CreatedAt: m.CreatedAt}, nil
}

func (r *Repository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&UserModel{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *Repository) CreateAPIToken(ctx context.Context, value domain.APIToken) (domain.APIToken, error) {
	m := APITokenModel{UserID: value.UserID, Name: value.Name, TokenHash: value.TokenHash}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.APIToken{}, err
	}
	return domain.APIToken{ID: m.ID, UserID: m.UserID, Name: m.Name, TokenHash: m.TokenHash, CreatedAt: m.CreatedAt}, nil
}

func (r *Repository) DeleteAPITokenByHash(ctx context.Context, tokenHash string) error {
	return r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).Delete(&APITokenModel{}).Error
}

func (r *Repository) GetAPITokenByHash(ctx context.Context, tokenHash string) (domain.APIToken, error) {
	var m APITokenModel
	if err := r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.APIToken{}, domain.ErrUnauthorized
		}
		return domain.APIToken{}, err
	}
	return domain.APIToken{ID: m.ID, UserID: m.UserID, Name: m.Name, TokenHash: m.TokenHash, CreatedAt: m.CreatedAt}, nil
}
