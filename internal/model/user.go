package model

import (
	"encoding/json"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// PublicUser is the user shape returned to clients.
type PublicUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username, Email: u.Email}
}

// Identity is the caller attached to a request once its token has been verified.
type Identity struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
}

// Claims is the decoded token payload. On the wire iat and exp are JWT
// numeric dates (Unix seconds).
type Claims struct {
	UserID    int64
	Username  string
	IssuedAt  time.Time
	ExpiresAt *time.Time
	TokenID   string
}

type claimsJSON struct {
	UserID    int64            `json:"userId"`
	Username  string           `json:"username"`
	IssuedAt  *jwt.NumericDate `json:"iat,omitempty"`
	ExpiresAt *jwt.NumericDate `json:"exp,omitempty"`
	TokenID   string           `json:"jti,omitempty"`
}

func (c Claims) Identity() Identity {
	return Identity{UserID: c.UserID, Username: c.Username}
}

func (c Claims) MarshalJSON() ([]byte, error) {
	out := claimsJSON{UserID: c.UserID, Username: c.Username, TokenID: c.TokenID}
	if !c.IssuedAt.IsZero() {
		out.IssuedAt = jwt.NewNumericDate(c.IssuedAt)
	}
	if c.ExpiresAt != nil {
		out.ExpiresAt = jwt.NewNumericDate(*c.ExpiresAt)
	}
	return json.Marshal(out)
}

func (c *Claims) UnmarshalJSON(data []byte) error {
	var in claimsJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	*c = Claims{UserID: in.UserID, Username: in.Username, TokenID: in.TokenID}
	if in.IssuedAt != nil {
		c.IssuedAt = in.IssuedAt.UTC()
	}
	if in.ExpiresAt != nil {
		exp := in.ExpiresAt.UTC()
		c.ExpiresAt = &exp
	}
	return nil
}

type AuthResult struct {
	Message string     `json:"message"`
	Token   string     `json:"token"`
	User    PublicUser `json:"user"`
}

type AuditEntry struct {
	Action     string    `json:"action"`
	OccurredAt time.Time `json:"occurred_at"`
	UserID     *int64    `json:"user_id,omitempty"`
	Username   string    `json:"username,omitempty"`
	IP         string    `json:"ip,omitempty"`
	Status     string    `json:"status"`
}
