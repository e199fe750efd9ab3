package dto

// AuthRequest describes principal/password payload.
type AuthRequest struct {
	Principal string `json:"principal"`
	Password  string `json:"password"`
}
