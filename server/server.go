// Copyright 2025 The CrowdMap Authors
// SPDX-License-Identifier: Apache-2.0

// Package server exposes the orchestrator to a map renderer over HTTP and
// serves the sites backend.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jcodagnone/crowdmap/metrics"
	"github.com/jcodagnone/crowdmap/pipeline"
)

// DefaultSearchTimeout bounds one resolver call issued through the API.
const DefaultSearchTimeout = 30 * time.Second

// Server is the renderer API over one orchestrator.
type Server struct {
	orch          *pipeline.Orchestrator
	searchTimeout time.Duration
}

// New returns the renderer API over orch.
func New(orch *pipeline.Orchestrator) *Server {
	return &Server{orch: orch, searchTimeout: DefaultSearchTimeout}
}

// Register mounts the renderer API on r.
func (s *Server) Register(r gin.IRouter) {
	r.GET("/api/view", s.getView)
	r.POST("/api/search", s.search)
	r.POST("/api/select/:id", s.selectPlace)
	r.DELETE("/api/select", s.clearSelection)
	r.POST("/api/map/click", s.mapClick)
	r.GET("/api/heatmap", s.heatmap)
	r.GET("/api/clusters", s.clusters)
}

// RegisterOps mounts /healthz and /metrics.
func RegisterOps(r gin.IRouter) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
}

// NewEngine returns a gin engine in release mode unless debug is set.
func NewEngine(debug bool) *gin.Engine {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	return gin.Default()
}

func (s *Server) getView(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, s.orch.View())
}

type searchRequest struct {
	City string `json:"city" form:"city"`
}

type searchResponse struct {
	Outcome pipeline.Outcome `json:"outcome"`
	pipeline.View
}

func (s *Server) search(ctx *gin.Context) {
	var req searchRequest

	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})

			return
		}
	}

	if strings.TrimSpace(req.City) == "" {
		req.City = ctx.Query("city")
	}

	// The search outlives a disconnecting client: its result is published
	// for everyone reading the view.
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx.Request.Context()), s.searchTimeout)
	defer cancel()

	outcome, err := s.orch.Search(rctx, req.City)
	if err != nil {
		log.Printf("search %q: %v", req.City, err)
	}

	ctx.JSON(http.StatusOK, searchResponse{Outcome: outcome, View: s.orch.View()})
}

func (s *Server) selectPlace(ctx *gin.Context) {
	if err := s.orch.Select(ctx.Param("id")); err != nil {
		if errors.Is(err, pipeline.ErrUnknownPlace) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

			return
		}

		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, s.orch.View())
}

func (s *Server) clearSelection(ctx *gin.Context) {
	s.orch.ClearSelection()
	ctx.JSON(http.StatusOK, s.orch.View())
}

func (s *Server) mapClick(ctx *gin.Context) {
	s.orch.MapClick()
	ctx.JSON(http.StatusOK, s.orch.View())
}

func (s *Server) heatmap(ctx *gin.Context) {
	res, err := strconv.Atoi(ctx.DefaultQuery("res", strconv.Itoa(pipeline.DefaultHeatmapResolution)))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "res must be an integer"})

		return
	}

	cells, err := s.orch.Heatmap(res)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, gin.H{"resolution": res, "cells": cells})
}

func (s *Server) clusters(ctx *gin.Context) {
	distance, err := strconv.ParseFloat(ctx.DefaultQuery("distance", strconv.Itoa(pipeline.DefaultClusterDistance)), 64)
	if err != nil || distance <= 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "distance must be a positive number of meters"})

		return
	}

	ctx.JSON(http.StatusOK, gin.H{"distance": distance, "clusters": s.orch.Clusters(distance)})
}

// Run serves handler on addr until ctx is done, then shuts down gracefully.
func Run(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)

	go func() {
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("listening on %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}

	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
