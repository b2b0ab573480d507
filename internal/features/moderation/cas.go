// Package moderation — cas.go опрашивает CAS (Combot Anti-Spam)
// о репутации новых участников.
package moderation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fallncrlss/comparty-bot/internal/metrics"
)

// Reputation — внешний сервис репутации/бан-листов.
type Reputation interface {
	Check(ctx context.Context, userID int64) (bool, error)
}

// CASClient — клиент api.cas.chat. Один запрос без ретраев:
// политика повторов — дело транспорта, не ядра.
type CASClient struct {
	baseURL string
	http    *http.Client
}

// NewCASClient создаёт клиент CAS.
func NewCASClient(baseURL string) *CASClient {
	return &CASClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type casResponse struct {
	OK bool `json:"ok"`
}

// Check возвращает true, если пользователь числится в бан-листе CAS.
func (c *CASClient) Check(ctx context.Context, userID int64) (bool, error) {
	url := fmt.Sprintf("%s/check?user_id=%d", c.baseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("создание запроса к CAS: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.CASRequestsTotal.WithLabelValues("error").Inc()
		return false, fmt.Errorf("запрос к CAS для пользователя %d: %w", userID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.CASRequestsTotal.WithLabelValues("error").Inc()
		return false, fmt.Errorf("CAS ответил статусом %d", resp.StatusCode)
	}

	var body casResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		metrics.CASRequestsTotal.WithLabelValues("error").Inc()
		return false, fmt.Errorf("разбор ответа CAS: %w", err)
	}

	metrics.CASRequestsTotal.WithLabelValues("ok").Inc()
	return body.OK, nil
}
