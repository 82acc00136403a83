package domain

import "time"

type User struct {
	ID          string
	Email       string // unique; the cross-provider merge key
	DisplayName string
	IsAdmin     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
