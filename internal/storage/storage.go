package storage

import (
	"context"
	"duochat/backend/internal/models"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

// Storage is the persistence port used by the HTTP handlers and the hub.
type Storage interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateProfilePic(ctx context.Context, id, pic string) (*models.User, error)
	ListUsersExcept(ctx context.Context, id string) ([]models.User, error)

	SaveMessage(ctx context.Context, msg *models.Message) error
	GetConversation(ctx context.Context, a, b string) ([]models.Message, error)

	Close(ctx context.Context) error
}

// Service is the PostgreSQL implementation of Storage.
type Service struct {
	DB     *gorm.DB
	Logger zerolog.Logger
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB, logger zerolog.Logger) *Service {
	return &Service{
		DB:     db,
		Logger: logger.With().Str("component", "storage-postgres").Logger(),
	}
}

// Migrate creates or updates the tables for every persisted model.
func (s *Service) Migrate() error {
	return s.DB.AutoMigrate(&models.User{}, &models.Message{})
}

func (s *Service) CreateUser(ctx context.Context, user *models.User) error {
	if err := s.DB.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateEmail
		}
		s.Logger.Error().Err(err).Str("email", user.Email).Msg("failed to create user")
		return err
	}
	return nil
}

func (s *Service) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Service) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Service) UpdateProfilePic(ctx context.Context, id, pic string) (*models.User, error) {
	res := s.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("profile_pic", pic)
	if res.Error != nil {
		s.Logger.Error().Err(res.Error).Str("user_id", id).Msg("failed to update profile picture")
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.GetUserByID(ctx, id)
}

// ListUsersExcept returns every user but id, ordered by name.
func (s *Service) ListUsersExcept(ctx context.Context, id string) ([]models.User, error) {
	var users []models.User
	if err := s.DB.WithContext(ctx).Where("id <> ?", id).Order("full_name asc").Find(&users).Error; err != nil {
		s.Logger.Error().Err(err).Str("user_id", id).Msg("failed to list users")
		return nil, err
	}
	return users, nil
}

// SaveMessage stores the message and fills in ID and CreatedAt.
func (s *Service) SaveMessage(ctx context.Context, msg *models.Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	if err := s.DB.WithContext(ctx).Create(msg).Error; err != nil {
		s.Logger.Error().Err(err).
			Str("sender_id", msg.SenderID).
			Str("receiver_id", msg.ReceiverID).
			Msg("failed to save message")
		return err
	}
	return nil
}

// GetConversation loads both directions of the a/b conversation, oldest first.
func (s *Service) GetConversation(ctx context.Context, a, b string) ([]models.Message, error) {
	var history []models.Message
	err := s.DB.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", a, b, b, a).
		Order("created_at asc").
		Find(&history).Error
	if err != nil {
		s.Logger.Error().Err(err).Str("user_a", a).Str("user_b", b).Msg("failed to get conversation")
		return nil, err
	}
	return history, nil
}

func (s *Service) Close(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("storage: %w", err)
}
