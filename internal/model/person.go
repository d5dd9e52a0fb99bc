package model

import "time"

type Person struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Color       string    `json:"color"`
	Phone       string    `json:"phone,omitempty"`
	Carrier     string    `json:"carrier,omitempty"`
	DollarsOwed int       `json:"dollars_owed"`
	Paid        bool      `json:"paid"`
	SortOrder   int       `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
