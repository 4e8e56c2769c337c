package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"assistant-voice-trigger/wake_word"
)

const requestTimeout = 5 * time.Second

type clientImpl struct {
	url        string
	httpClient *http.Client
}

type Config struct {
	URL string
	// HTTPClient overrides the default bounded-timeout client.
	HTTPClient *http.Client
}

func NewClient(cfg *Config) (Notifier, error) {
	if cfg == nil {
		return nil, errors.New("missing parameter: cfg")
	}

	if cfg.URL == "" {
		return nil, errors.New("missing parameter: cfg.URL")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}

	return &clientImpl{
		url:        cfg.URL,
		httpClient: httpClient,
	}, nil
}

type payload struct {
	ID      string    `json:"id"`
	Phrase  string    `json:"phrase"`
	Command string    `json:"command"`
	At      time.Time `json:"at"`
}

func (client *clientImpl) Notify(ctx context.Context, trigger wake_word.Trigger) error {
	body, err := json.Marshal(payload{
		ID:      trigger.ID.String(),
		Phrase:  trigger.Phrase,
		Command: trigger.Command,
		At:      trigger.At,
	})
	if err != nil {
		return fmt.Errorf("encoding trigger: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, client.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned %s", resp.Status)
	}

	return nil
}
