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
	"github.com/jackc/pgx/v5/pgtype"
	"golang.org/x/crypto/bcrypt"

	"github.com/rajivgeraev/bookswap-api/internal/config"
	"github.com/rajivgeraev/bookswap-api/internal/db"
	"github.com/rajivgeraev/bookswap-api/internal/fallback"
	"github.com/rajivgeraev/bookswap-api/internal/mockdata"
	"github.com/rajivgeraev/bookswap-api/internal/models"
	"github.com/rajivgeraev/bookswap-api/internal/utils"
)

// UserService представляет сервис для работы с пользователями.
// Работает с таблицами auth_accounts, profiles и user_sessions;
// при отсутствии любой из них переходит на демо-данные
type UserService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
	db         db.Querier
	mock       *mockdata.Store
	flag       fallback.Flag
}

// NewUserService создает новый экземпляр UserService
func NewUserService(cfg *config.Config, querier db.Querier, mock *mockdata.Store) *UserService {
	return &UserService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
		db:         querier,
		mock:       mock,
	}
}

// JWTService возвращает сервис токенов для middleware
func (s *UserService) JWTService() *utils.JWTService {
	return s.jwtService
}

// SignUp регистрирует нового пользователя и возвращает его профиль
func (s *UserService) SignUp(ctx context.Context, email, password, name string) (*models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: некорректный email", models.ErrValidation)
	}
	if len(password) < 6 {
		return nil, fmt.Errorf("%w: пароль короче 6 символов", models.ErrValidation)
	}
	if name == "" {
		name = emailLocalPart(email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("ошибка хеширования пароля: %w", err)
	}

	if s.flag.Tripped() {
		return s.mockSignUp(email, string(hash), name)
	}

	user, err := s.remoteSignUp(ctx, email, string(hash), name)
	if err != nil {
		if db.IsUndefinedTable(err) {
			log.Printf("Таблицы пользователей отсутствуют, переходим на демо-данные: %v", err)
			s.flag.Trip()
			return s.mockSignUp(email, string(hash), name)
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) remoteSignUp(ctx context.Context, email, passwordHash, name string) (*models.User, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM auth_accounts WHERE email = $1)
	`, email).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, models.ErrEmailTaken
	}

	accountID := uuid.New()
	now := time.Now()

	_, err = s.db.Exec(ctx, `
		INSERT INTO auth_accounts (id, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
	`, accountID, email, passwordHash, now)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:       accountID,
		Email:    email,
		Name:     name,
		JoinDate: now,
		Rating:   5.0,
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO profiles (id, email, name, join_date, rating)
		VALUES ($1, $2, $3, $4, $5)
	`, user.ID, user.Email, user.Name, user.JoinDate, user.Rating)
	if err != nil {
		return nil, err
	}

	s.recordSession(ctx, user.ID)
	return user, nil
}

func (s *UserService) mockSignUp(email, passwordHash, name string) (*models.User, error) {
	user := models.User{
		ID:       uuid.New(),
		Email:    email,
		Name:     name,
		JoinDate: time.Now(),
		Rating:   5.0,
	}
	if err := s.mock.AddUser(user, passwordHash); err != nil {
		return nil, err
	}
	return &user, nil
}

// SignIn проверяет учетные данные и возвращает профиль пользователя
func (s *UserService) SignIn(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, models.ErrInvalidCredentials
	}

	if s.flag.Tripped() {
		return s.mockSignIn(email, password)
	}

	var accountID uuid.UUID
	var passwordHash string
	err := s.db.QueryRow(ctx, `
		SELECT id, password_hash FROM auth_accounts WHERE email = $1
	`, email).Scan(&accountID, &passwordHash)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrInvalidCredentials
		}
		if db.IsUndefinedTable(err) {
			log.Printf("Таблицы пользователей отсутствуют, переходим на демо-данные: %v", err)
			s.flag.Trip()
			return s.mockSignIn(email, password)
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)) != nil {
		return nil, models.ErrInvalidCredentials
	}

	user, err := s.loadOrDeriveProfile(ctx, accountID, email, passwordHash)
	if err != nil {
		return nil, err
	}

	s.recordSession(ctx, user.ID)
	return user, nil
}

func (s *UserService) mockSignIn(email, password string) (*models.User, error) {
	hash, ok := s.mock.PasswordHashByEmail(email)
	if !ok {
		return nil, models.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, models.ErrInvalidCredentials
	}
	user, _ := s.mock.UserByEmail(email)
	return user, nil
}

// loadOrDeriveProfile читает профиль учетной записи. Если таблица профилей
// отсутствует, сервис переходит на демо-данные: берет демо-профиль
// с тем же email, а при его отсутствии синтезирует профиль
// из самой учетной записи
func (s *UserService) loadOrDeriveProfile(ctx context.Context, accountID uuid.UUID, email, passwordHash string) (*models.User, error) {
	user, err := s.queryProfile(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, accountID)
	if err == nil {
		return user, nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		// Учетная запись есть, а профиля нет — создаем его
		profile := synthesizeProfile(accountID, email)
		_, insErr := s.db.Exec(ctx, `
			INSERT INTO profiles (id, email, name, join_date, rating)
			VALUES ($1, $2, $3, $4, $5)
		`, profile.ID, profile.Email, profile.Name, profile.JoinDate, profile.Rating)
		if insErr != nil && !db.IsUndefinedTable(insErr) {
			return nil, insErr
		}
		return profile, nil
	}

	if db.IsUndefinedTable(err) {
		log.Printf("Таблица профилей отсутствует, переходим на демо-данные: %v", err)
		s.flag.Trip()
		if mockUser, ok := s.mock.UserByEmail(email); ok {
			return mockUser, nil
		}
		profile := synthesizeProfile(accountID, email)
		// Сохраняем синтезированный профиль, чтобы последующие запросы
		// находили его в демо-хранилище
		if addErr := s.mock.AddUser(*profile, passwordHash); addErr != nil {
			log.Printf("Не удалось сохранить синтезированный профиль: %v", addErr)
		}
		return profile, nil
	}

	return nil, err
}

// synthesizeProfile строит профиль из одной только учетной записи
func synthesizeProfile(accountID uuid.UUID, email string) *models.User {
	return &models.User{
		ID:       accountID,
		Email:    email,
		Name:     emailLocalPart(email),
		JoinDate: time.Now(),
		Rating:   5.0,
	}
}

// SignOut закрывает открытую сессию пользователя. Ошибки учета сессий
// не мешают выходу
func (s *UserService) SignOut(ctx context.Context, userID uuid.UUID) error {
	if s.flag.Tripped() {
		return nil
	}

	_, err := s.db.Exec(ctx, `
		UPDATE user_sessions SET logout_time = CURRENT_TIMESTAMP
		WHERE user_id = $1 AND logout_time IS NULL
	`, userID)
	if err != nil {
		if db.IsUndefinedTable(err) {
			s.flag.Trip()
			return nil
		}
		log.Printf("Ошибка закрытия сессии пользователя %s: %v", userID, err)
	}
	return nil
}

// GetCurrentUser возвращает профиль текущего пользователя
// или nil, если профиль не найден
func (s *UserService) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.GetUserByID(ctx, userID)
}

// GetUserByID возвращает профиль по ID или nil, если профиль не найден
func (s *UserService) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	if s.flag.Tripped() {
		user, ok := s.mock.UserByID(userID)
		if !ok {
			return nil, nil
		}
		return user, nil
	}

	user, err := s.queryProfile(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		if db.IsUndefinedTable(err) {
			log.Printf("Таблица профилей отсутствует, переходим на демо-данные: %v", err)
			s.flag.Trip()
			mockUser, ok := s.mock.UserByID(userID)
			if !ok {
				return nil, nil
			}
			return mockUser, nil
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfile применяет частичное обновление профиля:
// незаполненные поля не изменяются
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, upd models.ProfileUpdate) (*models.User, error) {
	if upd.Rating != nil && (*upd.Rating < 0 || *upd.Rating > 5) {
		return nil, fmt.Errorf("%w: рейтинг должен быть от 0 до 5", models.ErrValidation)
	}

	if s.flag.Tripped() {
		return s.mock.UpdateUser(userID, upd)
	}

	user, err := s.remoteUpdateProfile(ctx, userID, upd)
	if err != nil {
		if db.IsUndefinedTable(err) {
			log.Printf("Таблица профилей отсутствует, переходим на демо-данные: %v", err)
			s.flag.Trip()
			return s.mock.UpdateUser(userID, upd)
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) remoteUpdateProfile(ctx context.Context, userID uuid.UUID, upd models.ProfileUpdate) (*models.User, error) {
	// Собираем UPDATE только из заполненных полей
	set := make([]string, 0, 6)
	args := make([]any, 0, 7)

	appendSet := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if upd.Name != nil {
		appendSet("name", *upd.Name)
	}
	if upd.ProfileImage != nil {
		appendSet("profile_image", *upd.ProfileImage)
	}
	if upd.Bio != nil {
		appendSet("bio", *upd.Bio)
	}
	if upd.Location != nil {
		appendSet("location", *upd.Location)
	}
	if upd.Phone != nil {
		appendSet("phone", *upd.Phone)
	}
	if upd.Rating != nil {
		appendSet("rating", *upd.Rating)
	}

	if len(set) == 0 {
		user, err := s.queryProfile(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, userID)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return user, err
	}

	args = append(args, userID)
	query := fmt.Sprintf(`
		UPDATE profiles SET %s
		WHERE id = $%d
		RETURNING %s
	`, strings.Join(set, ", "), len(args), profileColumns)

	user, err := s.queryProfile(ctx, query, args...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	return user, err
}

// recordSession добавляет запись о входе. Учет сессий не должен
// ломать авторизацию, поэтому ошибки только логируются
func (s *UserService) recordSession(ctx context.Context, userID uuid.UUID) {
	_, err := s.db.Exec(ctx, `
		INSERT INTO user_sessions (user_id, login_time)
		VALUES ($1, CURRENT_TIMESTAMP)
	`, userID)
	if err != nil && !db.IsUndefinedTable(err) {
		log.Printf("Ошибка создания сессии пользователя %s: %v", userID, err)
	}
}

const profileColumns = `id, email, name, profile_image, join_date, rating, bio, location, phone`

// queryProfile выполняет запрос одного профиля и разбирает nullable-поля
func (s *UserService) queryProfile(ctx context.Context, query string, args ...any) (*models.User, error) {
	var user models.User
	var profileImage, bio, location, phone pgtype.Text
	var rating pgtype.Float8

	err := s.db.QueryRow(ctx, query, args...).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&profileImage,
		&user.JoinDate,
		&rating,
		&bio,
		&location,
		&phone,
	)
	if err != nil {
		return nil, err
	}

	if profileImage.Valid {
		user.ProfileImage = profileImage.String
	}
	if rating.Valid {
		user.Rating = rating.Float64
	}
	if bio.Valid {
		user.Bio = bio.String
	}
	if location.Valid {
		user.Location = location.String
	}
	if phone.Valid {
		user.Phone = phone.String
	}

	return &user, nil
}

// emailLocalPart возвращает часть email до @
func emailLocalPart(email string) string {
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i]
	}
	return email
}
