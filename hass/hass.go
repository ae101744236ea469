package hass

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/arturonaredo/homebalance-go/types/maybe"
)

const commandTimeout = 5 * time.Second

// SensorReader reads entity states from Home Assistant. A failed or
// timed out read yields None, never an error.
type SensorReader interface {
	ReadNumeric(ctx context.Context, ref string) maybe.Maybe[float64]
	ReadState(ctx context.Context, ref string) maybe.Maybe[string]
}

// CommandIssuer sends fire-and-forget device commands. The boolean
// result is informational only, there is no retry contract.
type CommandIssuer interface {
	TurnOn(ctx context.Context, ref string) bool
	TurnOff(ctx context.Context, ref string) bool
	SetNumber(ctx context.Context, ref string, value float64) bool
}

type Client struct {
	logger  *slog.Logger
	baseUrl string
	token   string
	client  *http.Client
}

func New(baseUrl, token string) *Client {
	return &Client{
		logger:  slog.Default().With("module", "hass"),
		baseUrl: strings.TrimRight(baseUrl, "/"),
		token:   token,
		client:  &http.Client{Timeout: commandTimeout},
	}
}

type stateResponse struct {
	EntityId string `json:"entity_id"`
	State    string `json:"state"`
}

func (c *Client) getState(ctx context.Context, ref string) (string, error) {
	url := fmt.Sprintf("%s/api/states/%s", c.baseUrl, ref)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch state for %s: %w", ref, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code %d for %s", resp.StatusCode, ref)
	}

	var sr stateResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", fmt.Errorf("failed to decode state for %s: %w", ref, err)
	}

	return sr.State, nil
}

func (c *Client) ReadNumeric(ctx context.Context, ref string) maybe.Maybe[float64] {
	if ref == "" {
		return maybe.None[float64]()
	}
	state, err := c.getState(ctx, ref)
	if err != nil {
		c.logger.Warn("numeric read failed", slog.String("ref", ref), slog.Any("error", err))
		return maybe.None[float64]()
	}
	value, err := strconv.ParseFloat(state, 64)
	if err != nil {
		// "unavailable" and "unknown" land here as well
		c.logger.Warn("numeric read returned non-numeric state", slog.String("ref", ref), slog.String("state", state))
		return maybe.None[float64]()
	}
	return maybe.Some(value)
}

func (c *Client) ReadState(ctx context.Context, ref string) maybe.Maybe[string] {
	if ref == "" {
		return maybe.None[string]()
	}
	state, err := c.getState(ctx, ref)
	if err != nil {
		c.logger.Warn("state read failed", slog.String("ref", ref), slog.Any("error", err))
		return maybe.None[string]()
	}
	return maybe.Some(state)
}

func (c *Client) callService(ctx context.Context, domain, service string, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal service payload: %w", err)
	}

	url := fmt.Sprintf("%s/api/services/%s/%s", c.baseUrl, domain, service)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s.%s: %w", domain, service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code %d from %s.%s", resp.StatusCode, domain, service)
	}

	return nil
}

// refDomain extracts the service domain from an entity reference,
// e.g. "switch.pool_pump" -> "switch".
func refDomain(ref string) string {
	if i := strings.IndexByte(ref, '.'); i > 0 {
		return ref[:i]
	}
	return ""
}

func (c *Client) TurnOn(ctx context.Context, ref string) bool {
	domain := refDomain(ref)
	if domain == "" {
		return false
	}
	if err := c.callService(ctx, domain, "turn_on", map[string]any{"entity_id": ref}); err != nil {
		c.logger.Warn("turn on failed", slog.String("ref", ref), slog.Any("error", err))
		return false
	}
	return true
}

func (c *Client) TurnOff(ctx context.Context, ref string) bool {
	domain := refDomain(ref)
	if domain == "" {
		return false
	}
	if err := c.callService(ctx, domain, "turn_off", map[string]any{"entity_id": ref}); err != nil {
		c.logger.Warn("turn off failed", slog.String("ref", ref), slog.Any("error", err))
		return false
	}
	return true
}

func (c *Client) SetNumber(ctx context.Context, ref string, value float64) bool {
	if err := c.callService(ctx, "number", "set_value", map[string]any{
		"entity_id": ref,
		"value":     value,
	}); err != nil {
		c.logger.Warn("set number failed", slog.String("ref", ref), slog.Float64("value", value), slog.Any("error", err))
		return false
	}
	return true
}
