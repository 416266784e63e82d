package cloudinary

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/rajivgeraev/bookswap-api/internal/config"
	"github.com/rajivgeraev/bookswap-api/internal/db"
	"github.com/rajivgeraev/bookswap-api/internal/utils"
)

// CloudinaryService предоставляет методы для работы с Cloudinary:
// подписанные параметры для прямой загрузки с клиента и удаление
// загруженных изображений
type CloudinaryService struct {
	cfg          *config.Config
	jwtService   *utils.JWTService
	client       *cloudinary.Cloudinary
	uploadFolder string
}

// NewCloudinaryService создает новый экземпляр CloudinaryService.
// Без учетных данных Cloudinary сервис работает в ограниченном режиме:
// подпись выдается, удаление недоступно
func NewCloudinaryService(cfg *config.Config) *CloudinaryService {
	s := &CloudinaryService{
		cfg:          cfg,
		jwtService:   utils.NewJWTService(cfg.JWTSecret),
		uploadFolder: cfg.CloudinaryConfig.UploadFolder,
	}

	client, err := cloudinary.NewFromParams(
		cfg.CloudinaryConfig.CloudName,
		cfg.CloudinaryConfig.APIKey,
		cfg.CloudinaryConfig.APISecret,
	)
	if err != nil {
		log.Printf("⚠️ Cloudinary клиент не инициализирован: %v", err)
	} else {
		s.client = client
	}

	return s
}

// GenerateSignature создаёт корректную подпись для Cloudinary
func (s *CloudinaryService) GenerateSignature(params map[string]string) string {
	var keys []string
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var signParts []string
	for _, k := range keys {
		signParts = append(signParts, fmt.Sprintf("%s=%s", k, params[k]))
	}
	signatureString := strings.Join(signParts, "&")

	// API-секрет добавляется в конец строки перед хешированием
	signatureString += s.cfg.CloudinaryConfig.APISecret

	h := sha1.New()
	h.Write([]byte(signatureString))

	return hex.EncodeToString(h.Sum(nil))
}

// GenerateUploadParams создаёт подписанные параметры для загрузки
// изображений объявления напрямую с клиента
func (s *CloudinaryService) GenerateUploadParams(c fiber.Ctx) error {
	// Генерируем ID для объявления, если не передан
	listingID := c.Query("listing_id")
	if listingID == "" {
		listingID = uuid.New().String()
	}

	timestamp := fmt.Sprintf("%d", time.Now().Unix())

	params := map[string]string{
		"timestamp": timestamp,
	}
	if s.uploadFolder != "" {
		params["folder"] = s.uploadFolder
	}

	signature := s.GenerateSignature(params)

	response := fiber.Map{
		"timestamp":  timestamp,
		"signature":  signature,
		"api_key":    s.cfg.CloudinaryConfig.APIKey,
		"cloud_name": s.cfg.CloudinaryConfig.CloudName,
	}
	if s.uploadFolder != "" {
		response["folder"] = s.uploadFolder
	}
	response["listing_id"] = listingID

	return c.JSON(response)
}

// DestroyAsset удаляет загруженное изображение по его public_id
func (s *CloudinaryService) DestroyAsset(ctx context.Context, publicID string) error {
	if s.client == nil {
		return fmt.Errorf("cloudinary клиент не настроен")
	}

	_, err := s.client.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	return err
}

// DestroyAssetHandler удаляет изображение объявления
func (s *CloudinaryService) DestroyAssetHandler(c fiber.Ctx) error {
	var payload struct {
		PublicID string `json:"public_id"`
	}
	if err := c.Bind().Body(&payload); err != nil || payload.PublicID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Не указан public_id изображения"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	if err := s.DestroyAsset(ctx, payload.PublicID); err != nil {
		log.Printf("Ошибка удаления изображения %s: %v", payload.PublicID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка удаления изображения"})
	}

	return c.JSON(fiber.Map{"success": true})
}
