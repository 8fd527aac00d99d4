package models

import "time"

// User is the operator as reported by the backend login.
type User struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Session binds a dashboard login to the backend bearer token.
type Session struct {
	ID           string    `json:"id"`
	BackendToken string    `json:"backend_token"`
	User         User      `json:"user"`
	CreatedAt    time.Time `json:"created_at"`
}
