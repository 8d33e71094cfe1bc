package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/existflow/habitgrid/internal/calendar"
	"github.com/existflow/habitgrid/internal/logger"
	"github.com/existflow/habitgrid/internal/model"
)

// RequestIDHeader is sent with every request and echoed by habitgrid-server
const RequestIDHeader = "X-Request-ID"

const defaultTimeout = 15 * time.Second

// Client talks to the habits REST API
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string
}

// NewClient creates a client for baseURL, e.g. http://localhost:8080/api
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
		UserAgent:  "habitgrid",
	}
}

// ListHabits fetches the habits of a user, entries included
func (c *Client) ListHabits(ctx context.Context, userID int64) ([]model.Habit, error) {
	const op = "list habits"
	body, err := c.do(ctx, op, http.MethodGet, fmt.Sprintf("/users/%d/habits", userID), nil)
	if err != nil {
		return nil, err
	}
	habits, err := decodeHabits(op, body)
	if err != nil {
		logger.Error("Invalid response", logger.F("op", op), logger.F("error", err))
		return nil, err
	}
	logger.Debug("Fetched habits", logger.F("userID", userID), logger.F("count", len(habits)))
	return habits, nil
}

// CreateHabit creates a habit from a validated form and returns it with its server id
func (c *Client) CreateHabit(ctx context.Context, userID int64, form model.HabitForm) (model.Habit, error) {
	const op = "create habit"
	form = form.Normalize()
	payload := map[string]string{"name": form.Name, "colour": form.Colour}

	body, err := c.do(ctx, op, http.MethodPost, fmt.Sprintf("/users/%d/habits", userID), payload)
	if err != nil {
		return model.Habit{}, err
	}
	h, err := decodeHabit(op, body)
	if err != nil {
		logger.Error("Invalid response", logger.F("op", op), logger.F("error", err))
		return model.Habit{}, err
	}
	logger.Info("Habit created", logger.F("id", h.ID), logger.F("name", h.Name))
	return h, nil
}

// UpdateHabit replaces a habit's name, colour, index and active flag
func (c *Client) UpdateHabit(ctx context.Context, habit model.Habit) error {
	_, err := c.do(ctx, "update habit", http.MethodPut, fmt.Sprintf("/habits/%d", habit.ID), habit)
	return err
}

// DeleteHabit removes a habit and its entries for good
func (c *Client) DeleteHabit(ctx context.Context, habitID int64) error {
	_, err := c.do(ctx, "delete habit", http.MethodDelete, fmt.Sprintf("/habits/%d", habitID), nil)
	return err
}

// CreateEntry marks habitID done on the calendar day of date
func (c *Client) CreateEntry(ctx context.Context, habitID int64, date time.Time) (model.HabitEntry, error) {
	const op = "create entry"
	payload := createEntryRequest{HabitID: habitID, Date: calendar.UTCMidnight(date)}

	body, err := c.do(ctx, op, http.MethodPost, "/habitEntries", payload)
	if err != nil {
		return model.HabitEntry{}, err
	}
	e, err := decodeEntry(op, body)
	if err != nil {
		logger.Error("Invalid response", logger.F("op", op), logger.F("error", err))
		return model.HabitEntry{}, err
	}
	return e, nil
}

// DeleteEntry unmarks a day
func (c *Client) DeleteEntry(ctx context.Context, entryID int64) error {
	_, err := c.do(ctx, "delete entry", http.MethodDelete, fmt.Sprintf("/habitEntries/%d", entryID), nil)
	return err
}

// BulkUpdateHabits persists a reordered set of habits in one request
func (c *Client) BulkUpdateHabits(ctx context.Context, userID int64, habits []model.Habit) error {
	if habits == nil {
		habits = []model.Habit{}
	}
	_, err := c.do(ctx, "reorder habits", http.MethodPut, fmt.Sprintf("/users/%d/habits", userID), habits)
	return err
}

// do sends one request and returns the response body of a 2xx answer
func (c *Client) do(ctx context.Context, op, method, path string, payload any) ([]byte, error) {
	url := c.BaseURL + path

	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to encode request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, &TransportError{Op: op, URL: url, Err: err}
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	logger.Debug("HTTP Request",
		logger.F("method", method),
		logger.F("url", url),
		logger.F("requestID", requestID))

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		logger.Error("HTTP request failed", logger.F("error", err), logger.F("url", url), logger.F("requestID", requestID))
		return nil, &TransportError{Op: op, URL: url, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: op, URL: url, StatusCode: resp.StatusCode, Err: err}
	}

	logger.Debug("HTTP Response",
		logger.F("status", resp.StatusCode),
		logger.F("requestID", requestID),
		logger.F("bodySize", len(body)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(body))
		logger.Error("Request failed",
			logger.F("op", op),
			logger.F("status", resp.StatusCode),
			logger.F("response", msg),
			logger.F("requestID", requestID))
		return nil, &TransportError{
			Op:         op,
			URL:        url,
			StatusCode: resp.StatusCode,
			Body:       msg,
			Err:        errors.New(resp.Status),
		}
	}

	return body, nil
}
