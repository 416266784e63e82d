package models

import (
	"time"

	"github.com/google/uuid"
)

// Состояния книги
const (
	ConditionNew        = "New"
	ConditionLikeNew    = "Like New"
	ConditionGood       = "Good"
	ConditionFair       = "Fair"
	ConditionAcceptable = "Acceptable"
)

// ValidConditions перечисляет допустимые состояния книги
var ValidConditions = map[string]bool{
	ConditionNew:        true,
	ConditionLikeNew:    true,
	ConditionGood:       true,
	ConditionFair:       true,
	ConditionAcceptable: true,
}

// BookListing представляет объявление о продаже книги
type BookListing struct {
	ID              uuid.UUID `json:"id"`
	SellerID        uuid.UUID `json:"seller_id"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	Price           float64   `json:"price"`
	Condition       string    `json:"condition"`
	Description     string    `json:"description,omitempty"`
	ImageURL        string    `json:"image_url,omitempty"`
	Category        string    `json:"category,omitempty"`
	Edition         string    `json:"edition,omitempty"`
	ISBN            string    `json:"isbn,omitempty"`
	Publisher       string    `json:"publisher,omitempty"`
	PublicationYear int       `json:"publication_year,omitempty"`
	IsNegotiable    bool      `json:"is_negotiable"`
	ExchangeOption  bool      `json:"exchange_option"`
	CreatedAt       time.Time `json:"created_at"`
}

// ListingInfo представляет минимальную информацию об объявлении для API
type ListingInfo struct {
	ID       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	ImageURL string    `json:"image_url,omitempty"`
	Price    float64   `json:"price"`
}

// ListingUpdate описывает частичное обновление объявления.
// nil-поля не изменяются
type ListingUpdate struct {
	Title           *string  `json:"title,omitempty"`
	Author          *string  `json:"author,omitempty"`
	Price           *float64 `json:"price,omitempty"`
	Condition       *string  `json:"condition,omitempty"`
	Description     *string  `json:"description,omitempty"`
	ImageURL        *string  `json:"image_url,omitempty"`
	Category        *string  `json:"category,omitempty"`
	Edition         *string  `json:"edition,omitempty"`
	ISBN            *string  `json:"isbn,omitempty"`
	Publisher       *string  `json:"publisher,omitempty"`
	PublicationYear *int     `json:"publication_year,omitempty"`
	IsNegotiable    *bool    `json:"is_negotiable,omitempty"`
	ExchangeOption  *bool    `json:"exchange_option,omitempty"`
}

// Apply накладывает заполненные поля обновления на объявление
func (u *ListingUpdate) Apply(listing *BookListing) {
	if u.Title != nil {
		listing.Title = *u.Title
	}
	if u.Author != nil {
		listing.Author = *u.Author
	}
	if u.Price != nil {
		listing.Price = *u.Price
	}
	if u.Condition != nil {
		listing.Condition = *u.Condition
	}
	if u.Description != nil {
		listing.Description = *u.Description
	}
	if u.ImageURL != nil {
		listing.ImageURL = *u.ImageURL
	}
	if u.Category != nil {
		listing.Category = *u.Category
	}
	if u.Edition != nil {
		listing.Edition = *u.Edition
	}
	if u.ISBN != nil {
		listing.ISBN = *u.ISBN
	}
	if u.Publisher != nil {
		listing.Publisher = *u.Publisher
	}
	if u.PublicationYear != nil {
		listing.PublicationYear = *u.PublicationYear
	}
	if u.IsNegotiable != nil {
		listing.IsNegotiable = *u.IsNegotiable
	}
	if u.ExchangeOption != nil {
		listing.ExchangeOption = *u.ExchangeOption
	}
}

// ListingFilters описывает набор независимых фильтров каталога.
// Пустое или nil-поле не накладывает ограничений
type ListingFilters struct {
	Categories     []string `json:"categories,omitempty"`
	Conditions     []string `json:"conditions,omitempty"`
	MinPrice       *float64 `json:"min_price,omitempty"`
	MaxPrice       *float64 `json:"max_price,omitempty"`
	IsNegotiable   *bool    `json:"is_negotiable,omitempty"`
	ExchangeOption *bool    `json:"exchange_option,omitempty"`
}

// Matches проверяет, проходит ли объявление все заданные фильтры
func (f *ListingFilters) Matches(l *BookListing) bool {
	if len(f.Categories) > 0 && !containsString(f.Categories, l.Category) {
		return false
	}
	if len(f.Conditions) > 0 && !containsString(f.Conditions, l.Condition) {
		return false
	}
	if f.MinPrice != nil && l.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && l.Price > *f.MaxPrice {
		return false
	}
	if f.IsNegotiable != nil && l.IsNegotiable != *f.IsNegotiable {
		return false
	}
	if f.ExchangeOption != nil && l.ExchangeOption != *f.ExchangeOption {
		return false
	}
	return true
}

func containsString(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
