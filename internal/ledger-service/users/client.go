package users

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/radieske/wager-ledger/internal/ledger-service/engine"
)

// Client resolve user_id contra o diretório de usuários (subsistema externo
// de auth/usuários) via HTTP.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(base string) *Client {
	return &Client{
		BaseURL: base,
		HTTP:    &http.Client{Timeout: 2 * time.Second},
	}
}

// Resolve busca GET /users/{id}; 404 vira ErrUserNotFound.
func (c *Client) Resolve(ctx context.Context, userID string) (engine.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/users/"+userID, nil)
	if err != nil {
		return engine.User{}, err
	}
	res, err := c.HTTP.Do(req)
	if err != nil {
		return engine.User{}, err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return engine.User{}, engine.ErrUserNotFound
	}
	if res.StatusCode >= 300 {
		return engine.User{}, fmt.Errorf("user directory http %d", res.StatusCode)
	}

	var out struct {
		ID   string `json:"id"`
		Role string `json:"role"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return engine.User{}, err
	}
	return engine.User{ID: out.ID, Role: out.Role}, nil
}
