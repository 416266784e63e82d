package user

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	initdata "github.com/telegram-mini-apps/init-data-golang"

	"github.com/rajivgeraev/bookswap-api/internal/db"
	"github.com/rajivgeraev/bookswap-api/internal/models"
)

// TelegramSignIn проверяет initData мини-приложения Telegram и возвращает
// профиль пользователя, создавая его при первом входе
func (s *UserService) TelegramSignIn(ctx context.Context, rawInitData string) (*models.User, error) {
	if s.cfg.TelegramBotToken == "" {
		return nil, fmt.Errorf("%w: вход через Telegram не настроен", models.ErrValidation)
	}

	// Проверяем initData
	expiration := 24 * time.Hour
	if err := initdata.Validate(rawInitData, s.cfg.TelegramBotToken, expiration); err != nil {
		return nil, models.ErrInvalidCredentials
	}

	// Парсим данные
	data, err := initdata.Parse(rawInitData)
	if err != nil {
		return nil, models.ErrInvalidCredentials
	}

	email := fmt.Sprintf("tg%d@telegram.local", data.User.ID)
	name := strings.TrimSpace(data.User.FirstName + " " + data.User.LastName)
	if name == "" {
		name = data.User.Username
	}

	if s.flag.Tripped() {
		return s.mockTelegramSignIn(email, name, data.User.PhotoURL)
	}

	user, err := s.queryProfile(ctx, `SELECT `+profileColumns+` FROM profiles WHERE email = $1`, email)
	if err == nil {
		s.recordSession(ctx, user.ID)
		return user, nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return s.remoteCreateTelegramUser(ctx, email, name, data.User.PhotoURL)
	}

	if db.IsUndefinedTable(err) {
		log.Printf("Таблицы пользователей отсутствуют, переходим на демо-данные: %v", err)
		s.flag.Trip()
		return s.mockTelegramSignIn(email, name, data.User.PhotoURL)
	}

	return nil, err
}

func (s *UserService) remoteCreateTelegramUser(ctx context.Context, email, name, photoURL string) (*models.User, error) {
	accountID := uuid.New()
	now := time.Now()

	// Пароль Telegram-пользователю не нужен: вход всегда идет через initData
	_, err := s.db.Exec(ctx, `
		INSERT INTO auth_accounts (id, email, password_hash, created_at)
		VALUES ($1, $2, '', $3)
	`, accountID, email, now)
	if err != nil {
		if db.IsUndefinedTable(err) {
			log.Printf("Таблицы пользователей отсутствуют, переходим на демо-данные: %v", err)
			s.flag.Trip()
			return s.mockTelegramSignIn(email, name, photoURL)
		}
		return nil, err
	}

	user := &models.User{
		ID:           accountID,
		Email:        email,
		Name:         name,
		ProfileImage: photoURL,
		JoinDate:     now,
		Rating:       5.0,
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO profiles (id, email, name, profile_image, join_date, rating)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, user.ID, user.Email, user.Name, user.ProfileImage, user.JoinDate, user.Rating)
	if err != nil {
		if db.IsUndefinedTable(err) {
			log.Printf("Таблица профилей отсутствует, переходим на демо-данные: %v", err)
			s.flag.Trip()
			return s.mockTelegramSignIn(email, name, photoURL)
		}
		return nil, err
	}

	s.recordSession(ctx, user.ID)
	return user, nil
}

func (s *UserService) mockTelegramSignIn(email, name, photoURL string) (*models.User, error) {
	if user, ok := s.mock.UserByEmail(email); ok {
		return user, nil
	}

	user := models.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		ProfileImage: photoURL,
		JoinDate:     time.Now(),
		Rating:       5.0,
	}
	if err := s.mock.AddUser(user, ""); err != nil {
		return nil, err
	}
	return &user, nil
}
