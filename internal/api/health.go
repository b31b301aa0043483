// Copyright (c) 2026 SafHub. All rights reserved.

package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/safhub/safhub/internal/platform/constants"
	"github.com/safhub/safhub/internal/platform/respond"
)

// readinessCheckTimeout bounds every dependency ping of a /ready call.
const readinessCheckTimeout = 2 * time.Second

// HealthDependencies are the pings behind /ready. A nil check is skipped.
type HealthDependencies struct {
	CheckDatabase func(context.Context) error
	CheckCache    func(context.Context) error
}

type healthHandler struct {
	checks []namedCheck
	logger *slog.Logger
}

type namedCheck struct {
	name  string
	check func(context.Context) error
}

// checkResult never carries the raw error; it goes to the log instead.
type checkResult struct {
	Name string `json:"name"`
	IsOK bool   `json:"ok"`
}

// NewHealthHandlers returns the /health and /ready handlers.
func NewHealthHandlers(deps HealthDependencies, logger *slog.Logger) (liveness, readiness http.HandlerFunc) {
	handler := &healthHandler{logger: logger}
	for _, candidate := range []namedCheck{
		{name: "postgres", check: deps.CheckDatabase},
		{name: "redis", check: deps.CheckCache},
	} {
		if candidate.check != nil {
			handler.checks = append(handler.checks, candidate)
		}
	}
	return handler.liveness, handler.readiness
}

func (handler *healthHandler) liveness(writer http.ResponseWriter, _ *http.Request) {
	respond.OK(writer, map[string]string{
		constants.FieldStatus: "ok",
		"version":             constants.AppVersion,
	})
}

/*
readiness pings every dependency in parallel under one deadline.

Description: Any failed ping turns the answer into 503 "degraded", which
takes the instance out of the load balancer until Postgres and Redis both
answer again.
*/
func (handler *healthHandler) readiness(writer http.ResponseWriter, request *http.Request) {
	ctx, cancel := context.WithTimeout(request.Context(), readinessCheckTimeout)
	defer cancel()

	results := make([]checkResult, len(handler.checks))
	var group errgroup.Group
	for index, dependency := range handler.checks {
		group.Go(func() error {
			err := dependency.check(ctx)
			results[index] = checkResult{Name: dependency.name, IsOK: err == nil}
			if err != nil {
				handler.logger.ErrorContext(ctx, "readiness_check_failed",
					slog.String("dependency", dependency.name),
					slog.Any("error", err),
				)
			}
			return err
		})
	}

	status, code := "ready", http.StatusOK
	if group.Wait() != nil {
		status, code = "degraded", http.StatusServiceUnavailable
	}

	respond.Status(writer, code, map[string]any{
		constants.FieldStatus: status,
		constants.FieldChecks: results,
	})
}
