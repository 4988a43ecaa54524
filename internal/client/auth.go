package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/magabrotheeeer/waste-collection/internal/models"
)

type loginResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Login входит в систему; токен запоминается для следующих запросов.
func (c *Client) Login(ctx context.Context, username, password string) (*models.User, error) {
	const op = "client.Login"
	var res loginResult
	err := c.do(ctx, http.MethodPost, "/api/auth/login", models.LoginRequest{Username: username, Password: password}, &res)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	c.SetToken(res.Token)
	return res.User, nil
}

// Logout завершает сессию на сервере и забывает токен.
func (c *Client) Logout(ctx context.Context) error {
	const op = "client.Logout"
	defer c.SetToken("")
	if err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Check текущий пользователь; nil без ошибки, если сессии нет.
func (c *Client) Check(ctx context.Context) (*models.User, error) {
	const op = "client.Check"
	var u models.User
	if err := c.do(ctx, http.MethodGet, "/api/auth/check", nil, &u); err != nil {
		if IsStatus(err, http.StatusUnauthorized) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &u, nil
}

// UpdateProfile сохраняет профиль.
func (c *Client) UpdateProfile(ctx context.Context, req models.ProfileRequest) (*models.User, error) {
	const op = "client.UpdateProfile"
	var u models.User
	if err := c.do(ctx, http.MethodPut, "/api/auth/profile", req, &u); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &u, nil
}
