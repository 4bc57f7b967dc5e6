// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package server exposes the admission API over HTTP. Every handler
// is a thin shim over pkg/core; tenancy comes from a configurable
// request header.
package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AMD-AGI/voyant/pkg/config"
	"github.com/AMD-AGI/voyant/pkg/core"
	"github.com/AMD-AGI/voyant/pkg/errors"
	"github.com/AMD-AGI/voyant/pkg/logger/log"
	"github.com/AMD-AGI/voyant/pkg/metrics"
)

var (
	requestCounter = metrics.NewCounterVec("http_requests", "http requests by route and status", []string{"method", "route", "status"})
	requestTimer   = metrics.NewTimer("http_request_duration_seconds", "http request latency", []string{"method", "route"})
)

type Server struct {
	core *core.Core
}

// InitServer builds the gin engine with all routes registered.
func InitServer(c *core.Core) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(requestLogger(), gin.Recovery(), metricsMiddleware())
	engine.NoRoute(func(ctx *gin.Context) {
		AbortWithApiError(ctx, errors.NewNotFoundError("route", ctx.Request.URL.Path))
	})

	s := &Server{core: c}
	v1 := engine.Group("/v1")
	{
		v1.POST("/jobs", s.submitJob)
		v1.GET("/jobs/:id", s.getJob)
		v1.DELETE("/jobs/:id", s.cancelJob)
		v1.GET("/jobs/:id/artifacts", s.listArtifacts)
		v1.GET("/events/recent", s.recentEvents)
		v1.GET("/tenants/:id/usage", s.tenantUsage)
	}
	engine.GET("/metrics", s.promMetrics)
	engine.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return engine
}

func requestLogger() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()
		log.Infof("%s %s -> %d (%v)",
			ctx.Request.Method, ctx.Request.URL.Path, ctx.Writer.Status(), time.Since(start))
	}
}

func metricsMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		stop := requestTimer.Timer()
		ctx.Next()
		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		stop(ctx.Request.Method, route)
		requestCounter.Inc(ctx.Request.Method, route, strconv.Itoa(ctx.Writer.Status()))
	}
}

type submitBody struct {
	JobType  string                 `json:"job_type"`
	TenantID string                 `json:"tenant_id"`
	Priority int                    `json:"priority"`
	Params   map[string]interface{} `json:"params"`
}

func (s *Server) submitJob(ctx *gin.Context) {
	var body submitBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		AbortWithApiError(ctx, errors.NewValidationError("malformed request body"))
		return
	}
	tenantID := ctx.GetHeader(config.GetTenantHeaderName())
	if tenantID == "" {
		tenantID = body.TenantID
	}
	res, err := s.core.Submit(ctx.Request.Context(), &core.SubmitRequest{
		JobType:  body.JobType,
		TenantID: tenantID,
		Priority: body.Priority,
		Params:   body.Params,
	})
	if err != nil {
		AbortWithApiError(ctx, err)
		return
	}
	ctx.JSON(http.StatusAccepted, res)
}

func (s *Server) getJob(ctx *gin.Context) {
	snap, err := s.core.Status(ctx.Param("id"))
	if err != nil {
		AbortWithApiError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, snap)
}

func (s *Server) cancelJob(ctx *gin.Context) {
	jobID := ctx.Param("id")
	if !s.core.Cancel(ctx.Request.Context(), jobID) {
		AbortWithApiError(ctx, errors.NewNotFoundError("job", jobID))
		return
	}
	ctx.JSON(http.StatusAccepted, gin.H{"job_id": jobID, "cancelled": true})
}

func (s *Server) listArtifacts(ctx *gin.Context) {
	refs, err := s.core.ListArtifacts(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		AbortWithApiError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"artifacts": refs})
}

func (s *Server) recentEvents(ctx *gin.Context) {
	limit := 50
	if raw := ctx.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			AbortWithApiError(ctx, errors.NewValidationError("limit must be a non-negative integer"))
			return
		}
		limit = parsed
	}
	ctx.JSON(http.StatusOK, gin.H{"events": s.core.RecentEvents(limit)})
}

func (s *Server) tenantUsage(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, s.core.Usage(ctx.Param("id")))
}

func (s *Server) promMetrics(ctx *gin.Context) {
	text, err := metrics.GetPromethuesAsFmtText()
	if err != nil {
		AbortWithApiError(ctx, errors.WrapError(err, "gather metrics", errors.CodeInternalError))
		return
	}
	ctx.String(http.StatusOK, text)
}
