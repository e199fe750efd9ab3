package model

import "time"

// Account holds login credentials of a principal using the HTTP API.
type Account struct {
	Principal    Principal
	PasswordHash string
	CreatedAt    time.Time
}
