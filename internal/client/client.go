// Copyright (c) 2026 SafHub. All rights reserved.

/*
Package client talks to the SafHub identity backend.

It is the client-library half of the session lifecycle: it calls the auth and
row-store endpoints, persists the session in a namespaced [Storage], and
publishes auth-state changes to subscribers.

# Concurrency

A [Client] is safe for concurrent use. Subscribers receive events on their own
goroutine, in emission order.
*/
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/safhub/safhub/internal/platform/config"
	"github.com/safhub/safhub/internal/platform/constants"
)

// # Definitions & Constructors

// Options configures a [Client].
type Options struct {
	BaseURL    string
	AnonKey    string
	StorageKey string
	Storage    Storage
	Timeout    time.Duration
	Logger     *slog.Logger
}

// Client is the backend client.
type Client struct {
	http       *resty.Client
	storage    Storage
	storageKey string
	logger     *slog.Logger
	now        func() time.Time

	// refreshMu serializes refresh-token rotation; a rotated token is single use.
	refreshMu sync.Mutex

	// lastSession mirrors the last persisted session so SignOut can still
	// revoke it after a caller swept the storage namespace.
	lastMu      sync.Mutex
	lastSession *Session

	subscribersMu sync.Mutex
	subscribers   map[int]*subscriber
	nextID        int
}

// New constructs a [Client]. Zero-valued options fall back to an in-memory
// store, the default storage key and the default logger.
func New(options Options) *Client {
	if options.Storage == nil {
		options.Storage = NewMemoryStorage()
	}
	if options.StorageKey == "" {
		options.StorageKey = constants.AuthStorageKey
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	httpClient := resty.New().
		SetBaseURL(options.BaseURL).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetLogger(restyLogger{logger: options.Logger})

	if options.AnonKey != "" {
		httpClient.SetHeader(constants.HeaderAPIKey, options.AnonKey)
	}
	if options.Timeout > 0 {
		httpClient.SetTimeout(options.Timeout)
	}

	return &Client{
		http:        httpClient,
		storage:     options.Storage,
		storageKey:  options.StorageKey,
		logger:      options.Logger,
		now:         time.Now,
		subscribers: make(map[int]*subscriber),
	}
}

// NewFromConfig builds a [Client] from environment configuration.
func NewFromConfig(cfg *config.ClientConfig, storage Storage, logger *slog.Logger) *Client {
	return New(Options{
		BaseURL:    cfg.BackendURL,
		AnonKey:    cfg.AnonKey,
		StorageKey: cfg.StorageKey,
		Storage:    storage,
		Timeout:    cfg.RequestTimeout,
		Logger:     logger,
	})
}

// Storage returns the store the session is persisted in.
func (client *Client) Storage() Storage {
	return client.storage
}

// # Transport

// call describes one backend request.
type call struct {
	method string
	path   string
	token  string
	query  map[string]string
	body   any
	// meta receives the list metadata block, when the endpoint sends one.
	meta any
}

type successEnvelope struct {
	Data json.RawMessage `json:"data"`
	Meta json.RawMessage `json:"meta"`
}

/*
do executes a request and decodes the "data" envelope into out.

Returns:
  - *APIError for any non-2xx response, with the backend message verbatim
  - wrapped transport errors otherwise
*/
func (client *Client) do(context context.Context, request call, out any) error {
	var (
		success  successEnvelope
		failure  APIError
		response *resty.Response
		err      error
	)

	req := client.http.R().
		SetContext(context).
		SetResult(&success).
		SetError(&failure)

	if request.token != "" {
		req.SetAuthToken(request.token)
	}
	if len(request.query) > 0 {
		req.SetQueryParams(request.query)
	}
	if request.body != nil {
		req.SetBody(request.body)
	}

	response, err = req.Execute(request.method, request.path)
	if err != nil {
		return fmt.Errorf("client_request_failed: %s %s: %w", request.method, request.path, err)
	}

	if response.IsError() {
		failure.Status = response.StatusCode()
		if failure.Message == "" {
			failure.Message = http.StatusText(response.StatusCode())
		}
		client.logger.DebugContext(context, "backend_request_rejected",
			slog.String("method", request.method),
			slog.String("path", request.path),
			slog.Int("status", failure.Status),
			slog.String("code", failure.Code),
		)
		return &failure
	}

	if response.StatusCode() == http.StatusNoContent {
		return nil
	}
	if out != nil && len(success.Data) > 0 {
		if err := json.Unmarshal(success.Data, out); err != nil {
			return fmt.Errorf("client_decode_failed: %s %s: %w", request.method, request.path, err)
		}
	}
	if request.meta != nil && len(success.Meta) > 0 {
		if err := json.Unmarshal(success.Meta, request.meta); err != nil {
			return fmt.Errorf("client_decode_meta_failed: %s %s: %w", request.method, request.path, err)
		}
	}
	return nil
}

// restyLogger routes resty diagnostics into slog.
type restyLogger struct {
	logger *slog.Logger
}

func (l restyLogger) Errorf(format string, v ...any) {
	l.logger.Error("http_client_error", slog.String("detail", fmt.Sprintf(format, v...)))
}

func (l restyLogger) Warnf(format string, v ...any) {
	l.logger.Warn("http_client_warning", slog.String("detail", fmt.Sprintf(format, v...)))
}

func (l restyLogger) Debugf(format string, v ...any) {
	l.logger.Debug("http_client_debug", slog.String("detail", fmt.Sprintf(format, v...)))
}
