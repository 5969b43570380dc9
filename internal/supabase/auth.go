package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// OTP verification types accepted by /verify.
const (
	OTPTypeEmail  = "email"
	OTPTypeSignup = "signup"
)

type User struct {
	ID               string         `json:"id"`
	Email            string         `json:"email"`
	Role             string         `json:"role"`
	EmailConfirmedAt *time.Time     `json:"email_confirmed_at,omitempty"`
	LastSignInAt     *time.Time     `json:"last_sign_in_at,omitempty"`
	UserMetadata     map[string]any `json:"user_metadata,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
}

type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user,omitempty"`
}

// SignInWithPassword exchanges email/password for a session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	var s Session
	err := c.anon(ctx, http.MethodPost, "/token?grant_type=password", map[string]string{
		"email":    email,
		"password": password,
	}, &s)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// SendOTP mails a one-time code to an existing user. It never creates users.
func (c *Client) SendOTP(ctx context.Context, email string) error {
	return c.anon(ctx, http.MethodPost, "/otp", map[string]any{
		"email":       email,
		"create_user": false,
	}, nil)
}

// VerifyOTP checks a mailed code. otpType is OTPTypeEmail for login codes and
// OTPTypeSignup for address confirmation.
func (c *Client) VerifyOTP(ctx context.Context, email, token, otpType string) (*Session, error) {
	var s Session
	err := c.anon(ctx, http.MethodPost, "/verify", map[string]string{
		"email": email,
		"token": token,
		"type":  otpType,
	}, &s)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/user", c.anonKey, accessToken, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, "/logout", c.anonKey, accessToken, nil, nil)
}

// CreateUser registers a confirmed user through the admin API.
func (c *Client) CreateUser(ctx context.Context, email, password string) (*User, error) {
	var u User
	err := c.admin(ctx, http.MethodPost, "/admin/users", map[string]any{
		"email":         email,
		"password":      password,
		"email_confirm": true,
	}, &u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

const (
	usersPerPage = 100
	// maxUserPages bounds the scan when the server ignores page.
	maxUserPages = 200
)

// FindUserByEmail pages through the admin user list looking for email
// (case-insensitive). GoTrue may cap per_page below what was asked for, so
// only an empty page ends the list.
func (c *Client) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	if c.serviceKey == "" {
		return nil, ErrNoServiceKey
	}
	email = strings.ToLower(strings.TrimSpace(email))
	for page := 1; page <= maxUserPages; page++ {
		q := url.Values{}
		q.Set("page", fmt.Sprint(page))
		q.Set("per_page", fmt.Sprint(usersPerPage))

		var raw json.RawMessage
		if err := c.admin(ctx, http.MethodGet, "/admin/users?"+q.Encode(), nil, &raw); err != nil {
			return nil, err
		}

		users := gjson.GetBytes(raw, "users").Array()
		if len(users) == 0 {
			return nil, ErrUserNotFound
		}
		for _, u := range users {
			if strings.EqualFold(u.Get("email").String(), email) {
				var out User
				if err := json.Unmarshal([]byte(u.Raw), &out); err != nil {
					return nil, fmt.Errorf("unmarshal user: %w", err)
				}
				return &out, nil
			}
		}
	}
	return nil, ErrUserNotFound
}
