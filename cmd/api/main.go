package main

import (
	"log"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/rajivgeraev/bookswap-api/internal/config"
	"github.com/rajivgeraev/bookswap-api/internal/db"
	"github.com/rajivgeraev/bookswap-api/internal/mockdata"
	"github.com/rajivgeraev/bookswap-api/internal/services/chat"
	"github.com/rajivgeraev/bookswap-api/internal/services/cloudinary"
	"github.com/rajivgeraev/bookswap-api/internal/services/listing"
	"github.com/rajivgeraev/bookswap-api/internal/services/saveditem"
	"github.com/rajivgeraev/bookswap-api/internal/services/user"
	"github.com/rajivgeraev/bookswap-api/internal/utils"
	"github.com/rajivgeraev/bookswap-api/internal/websocket"
)

func main() {
	// Загружаем конфигурацию
	cfg := config.LoadConfig()

	// Инициализируем базу данных. Отсутствие таблиц ошибкой не считается:
	// каждый сервис сам переключится на демо-данные при первом обращении
	if err := db.InitDB(cfg); err != nil {
		log.Fatalf("❌ Ошибка при инициализации базы данных: %v", err)
	}
	defer db.CloseDB()

	// Демо-хранилище, общее для всех сервисов
	mock := mockdata.NewStore(cfg.MockLatency)

	// Создаём экземпляр Fiber
	app := fiber.New(fiber.Config{
		AppName:      "BookSwap API (MVP)",
		ErrorHandler: errorHandler,
	})

	// Добавляем middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowCredentials: false,
	}))

	// Менеджер WebSocket соединений
	wsManager := websocket.NewManager()
	defer wsManager.Shutdown()

	// Создаём сервисы
	userService := user.NewUserService(cfg, db.Pool, mock)
	listingService := listing.NewListingService(cfg, db.Pool, mock)
	savedItemService := saveditem.NewSavedItemService(cfg, db.Pool, mock, listingService)
	chatService := chat.NewChatService(cfg, db.Pool, mock, wsManager)
	cloudinaryService := cloudinary.NewCloudinaryService(cfg)

	// Регистрируем маршруты
	userService.SetupRoutes(app)
	listingService.SetupRoutes(app)
	savedItemService.SetupRoutes(app)
	chatService.SetupRoutes(app)
	cloudinaryService.SetupRoutes(app)

	// WebSocket подключения обслуживаются отдельным HTTP-сервером
	go func() {
		jwtService := utils.NewJWTService(cfg.JWTSecret)
		log.Println("✅ WebSocket сервер запущен на порту 8081")
		if err := websocket.Serve(":8081", wsManager, jwtService); err != nil {
			log.Printf("❌ Ошибка WebSocket сервера: %v", err)
		}
	}()

	// Запускаем сервер
	log.Println("✅ BookSwap API запущен на порту 8080")
	log.Fatal(app.Listen(":8080"))
}

// errorHandler обрабатывает ошибки Fiber
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	// Проверяем, является ли ошибка из Fiber
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
