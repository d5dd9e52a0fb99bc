package model

import "time"

// PushSubscription is one browser endpoint registered for web push reminders.
type PushSubscription struct {
	ID        int64     `json:"id"`
	Endpoint  string    `json:"endpoint"`
	P256dhKey string    `json:"p256dh_key"`
	AuthKey   string    `json:"auth_key"`
	PersonID  *int64    `json:"person_id"`
	CreatedAt time.Time `json:"created_at"`
}
