package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-portal-sync/internal/dto"
	"github.com/noah-isme/sma-portal-sync/internal/middleware"
	"github.com/noah-isme/sma-portal-sync/internal/service"
	appErrors "github.com/noah-isme/sma-portal-sync/pkg/errors"
	"github.com/noah-isme/sma-portal-sync/pkg/response"
)

func workspaceFromContext(c *gin.Context) (*service.Workspace, bool) {
	w, ok := middleware.WorkspaceFrom(c)
	if !ok {
		response.Error(c, appErrors.ErrInternal)
		return nil, false
	}
	return w, true
}

// wantsRefresh reports whether the caller asked for a reload or nothing has
// been loaded yet.
func wantsRefresh(c *gin.Context, loaded bool) bool {
	if raw := c.Query("refresh"); raw != "" {
		v, err := strconv.ParseBool(raw)
		return err == nil && v
	}
	return !loaded
}

// respondSnapshot optionally refreshes a container and writes its snapshot.
func respondSnapshot[T any](c *gin.Context, refresh func(context.Context) error, snapshot func() service.Snapshot[T]) {
	start := time.Now()
	if wantsRefresh(c, snapshot().Loaded) {
		if err := refresh(c.Request.Context()); err != nil {
			response.Error(c, err)
			return
		}
	}
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, snapshot(), meta)
}

func parseMonthQuery(c *gin.Context, fallback service.MonthRef) (dto.MonthQuery, error) {
	q := dto.MonthQuery{Month: fallback.Month, Year: fallback.Year}
	if raw := strings.TrimSpace(c.Query("month")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return q, appErrors.Clone(appErrors.ErrValidation, "month must be a number")
		}
		q.Month = v
	}
	if raw := strings.TrimSpace(c.Query("year")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return q, appErrors.Clone(appErrors.ErrValidation, "year must be a number")
		}
		q.Year = v
	}
	if raw := c.Query("force"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return q, appErrors.Clone(appErrors.ErrValidation, "force must be a boolean")
		}
		q.Force = v
	}
	return q, nil
}

func parseMonthRefs(raw []string) ([]service.MonthRef, error) {
	var refs []service.MonthRef
	for _, item := range raw {
		for _, part := range strings.Split(item, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			t, err := time.Parse("2006-01", part)
			if err != nil {
				return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("month %q must be YYYY-MM", part))
			}
			refs = append(refs, service.MonthRef{Year: t.Year(), Month: int(t.Month())})
		}
	}
	return refs, nil
}
