package mockdata

import (
	"time"

	"github.com/google/uuid"

	"github.com/rajivgeraev/bookswap-api/internal/models"
)

// DemoPassword — пароль всех посевных пользователей
const DemoPassword = "password123"

// Фиксированные ID посевных данных. Нужны тестам и мобильному клиенту
// в демо-режиме
var (
	UserEmma   = uuid.MustParse("3f2a8c1e-6b4d-4e9a-8f21-9c0d1e2a3b4c")
	UserLiam   = uuid.MustParse("58b0f7d2-91c3-4a6e-b5d4-7e8f9a0b1c2d")
	UserSophia = uuid.MustParse("9c4e1b6a-2d8f-4c3b-a7e6-5f4d3c2b1a09")
	UserNoah   = uuid.MustParse("c1d2e3f4-a5b6-4c7d-8e9f-0a1b2c3d4e5f")
	UserOlivia = uuid.MustParse("e7f8a9b0-c1d2-4e3f-a4b5-6c7d8e9f0a1b")

	ListingGatsby    = uuid.MustParse("a3b1c5d7-e9f2-4a6b-8c0d-2e4f6a8b0c1d")
	ListingCleanCode = uuid.MustParse("b4c2d6e8-f0a3-4b7c-9d1e-3f5a7b9c1d2e")
	ListingSapiens   = uuid.MustParse("c5d3e7f9-a1b4-4c8d-8e2f-4a6b8c0d2e3f")
	ListingOrwell    = uuid.MustParse("d6e4f8a0-b2c5-4d9e-9f30-5b7c9d1e3f4a")
	ListingPragmatic = uuid.MustParse("e7f5a9b1-c3d6-4eaf-8a41-6c8d0e2f4a5b")
	ListingAusten    = uuid.MustParse("f8a6b0c2-d4e7-4fb0-9b52-7d9e1f3a5b6c")

	ConvGatsby = uuid.MustParse("a9b7c1d3-e5f8-4a1b-8c63-8e0f2a4b6c7d")
	ConvAusten = uuid.MustParse("b0c8d2e4-f6a9-4b2c-9d74-9f1a3b5c7d8e")
)

// seed наполняет хранилище посевными данными
func (s *Store) seed() {
	now := time.Now()
	demoHash := hashPassword(DemoPassword)

	s.users = []models.User{
		{
			ID:       UserEmma,
			Email:    "emma@bookswap.demo",
			Name:     "Emma Wilson",
			JoinDate: now.AddDate(0, -8, 0),
			Rating:   4.8,
			Bio:      "Collector of classic fiction, happy to swap.",
			Location: "Berlin",
		},
		{
			ID:       UserLiam,
			Email:    "liam@bookswap.demo",
			Name:     "Liam Carter",
			JoinDate: now.AddDate(0, -6, 0),
			Rating:   4.5,
			Location: "Hamburg",
		},
		{
			ID:       UserSophia,
			Email:    "sophia@bookswap.demo",
			Name:     "Sophia Nguyen",
			JoinDate: now.AddDate(0, -5, -12),
			Rating:   5.0,
			Bio:      "Mostly tech books in near-mint condition.",
			Location: "Munich",
		},
		{
			ID:       UserNoah,
			Email:    "noah@bookswap.demo",
			Name:     "Noah Petrov",
			JoinDate: now.AddDate(0, -3, 0),
			Rating:   4.2,
		},
		{
			ID:       UserOlivia,
			Email:    "olivia@bookswap.demo",
			Name:     "Olivia Marsh",
			JoinDate: now.AddDate(0, -1, -20),
			Rating:   4.9,
			Location: "Leipzig",
		},
	}
	for _, u := range s.users {
		s.passwords[u.Email] = demoHash
	}

	s.listings = []models.BookListing{
		{
			ID:              ListingGatsby,
			SellerID:        UserLiam,
			Title:           "The Great Gatsby",
			Author:          "F. Scott Fitzgerald",
			Price:           8.50,
			Condition:       models.ConditionGood,
			Description:     "A few pencil notes in the margins, otherwise solid.",
			Category:        "Fiction",
			Publisher:       "Scribner",
			PublicationYear: 2004,
			IsNegotiable:    true,
			CreatedAt:       now.AddDate(0, 0, -14),
		},
		{
			ID:              ListingCleanCode,
			SellerID:        UserSophia,
			Title:           "Clean Code",
			Author:          "Robert C. Martin",
			Price:           25.00,
			Condition:       models.ConditionLikeNew,
			Description:     "Read once, no markings.",
			Category:        "Programming",
			ISBN:            "9780132350884",
			PublicationYear: 2008,
			ExchangeOption:  true,
			CreatedAt:       now.AddDate(0, 0, -10),
		},
		{
			ID:           ListingSapiens,
			SellerID:     UserLiam,
			Title:        "Sapiens: A Brief History of Humankind",
			Author:       "Yuval Noah Harari",
			Price:        12.00,
			Condition:    models.ConditionFair,
			Category:     "History",
			IsNegotiable: true,
			CreatedAt:    now.AddDate(0, 0, -7),
		},
		{
			ID:              ListingOrwell,
			SellerID:        UserNoah,
			Title:           "1984",
			Author:          "George Orwell",
			Price:           6.00,
			Condition:       models.ConditionAcceptable,
			Description:     "Well-loved paperback, spine creased.",
			Category:        "Fiction",
			Edition:         "Signet Classic",
			IsNegotiable:    true,
			ExchangeOption:  true,
			PublicationYear: 1961,
			CreatedAt:       now.AddDate(0, 0, -4),
		},
		{
			ID:              ListingPragmatic,
			SellerID:        UserOlivia,
			Title:           "The Pragmatic Programmer",
			Author:          "Andrew Hunt, David Thomas",
			Price:           30.00,
			Condition:       models.ConditionNew,
			Description:     "20th anniversary edition, still shrink-wrapped.",
			Category:        "Programming",
			ISBN:            "9780135957059",
			Publisher:       "Addison-Wesley",
			PublicationYear: 2019,
			CreatedAt:       now.AddDate(0, 0, -2),
		},
		{
			ID:           ListingAusten,
			SellerID:     UserEmma,
			Title:        "Pride and Prejudice",
			Author:       "Jane Austen",
			Price:        7.50,
			Condition:    models.ConditionGood,
			Category:     "Fiction",
			Edition:      "Penguin Classics",
			IsNegotiable: true,
			CreatedAt:    now.AddDate(0, 0, -1),
		},
	}

	// Переписка Эммы с Лиамом про «Гэтсби»: три сообщения,
	// последнее не прочитано Эммой
	s.convs = []models.Conversation{
		{
			ID:            ConvGatsby,
			ListingID:     ListingGatsby,
			BuyerID:       UserEmma,
			SellerID:      UserLiam,
			CreatedAt:     now.Add(-48 * time.Hour),
			LastMessageAt: now.Add(-2 * time.Hour),
			IsActive:      true,
		},
		{
			ID:            ConvAusten,
			ListingID:     ListingAusten,
			BuyerID:       UserNoah,
			SellerID:      UserEmma,
			CreatedAt:     now.Add(-20 * time.Hour),
			LastMessageAt: now.Add(-20 * time.Hour),
			IsActive:      true,
		},
	}

	s.messages = []models.Message{
		{
			ID:             uuid.MustParse("c1d9e3f5-a7b0-4c3d-8e85-0a2b4c6d8e9f"),
			ConversationID: ConvGatsby,
			SenderID:       UserEmma,
			ReceiverID:     UserLiam,
			Content:        "Hi! Is the Gatsby copy still available?",
			Read:           true,
			CreatedAt:      now.Add(-48 * time.Hour),
		},
		{
			ID:             uuid.MustParse("d2e0f4a6-b8c1-4d4e-9f96-1b3c5d7e9f0a"),
			ConversationID: ConvGatsby,
			SenderID:       UserLiam,
			ReceiverID:     UserEmma,
			Content:        "Yes, it is. Want to meet near the university?",
			Read:           true,
			CreatedAt:      now.Add(-36 * time.Hour),
		},
		{
			ID:             uuid.MustParse("e3f1a5b7-c9d2-4e5f-8aa7-2c4d6e8f0a1b"),
			ConversationID: ConvGatsby,
			SenderID:       UserLiam,
			ReceiverID:     UserEmma,
			Content:        "I could also do 7 euros if you pick it up today.",
			Read:           false,
			CreatedAt:      now.Add(-2 * time.Hour),
		},
		{
			ID:             uuid.MustParse("f4a2b6c8-d0e3-4f6a-9bb8-3d5e7f9a1b2c"),
			ConversationID: ConvAusten,
			SenderID:       UserNoah,
			ReceiverID:     UserEmma,
			Content:        "Would you swap the Austen for my copy of 1984?",
			Read:           false,
			CreatedAt:      now.Add(-20 * time.Hour),
		},
	}
}
