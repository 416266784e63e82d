package websocket

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/rajivgeraev/bookswap-api/internal/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Источник проверяется на уровне CORS основного API
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler возвращает HTTP-обработчик подключения WebSocket.
// Клиент передает JWT в query-параметре token, так как браузерный
// WebSocket API не позволяет выставить заголовок Authorization
func Handler(manager *Manager, jwtService *utils.JWTService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "Отсутствует токен авторизации", http.StatusUnauthorized)
			return
		}

		userID, err := jwtService.ExtractUserID(token)
		if err != nil {
			http.Error(w, "Недействительный токен", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("Ошибка обновления соединения до WebSocket: %v", err)
			return
		}

		client := NewClient(userID, conn, manager)
		client.Start()
	}
}

// Serve поднимает отдельный HTTP-сервер для WebSocket подключений
func Serve(addr string, manager *Manager, jwtService *utils.JWTService) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", Handler(manager, jwtService))
	return http.ListenAndServe(addr, mux)
}
