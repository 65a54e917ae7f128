// Copyright 2025 The CrowdMap Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jcodagnone/crowdmap/metrics"
	"github.com/jcodagnone/crowdmap/resolver"
)

// ResolverFactory builds the resolver for one request's search parameters.
type ResolverFactory func(resolver.Options) resolver.Resolver

// SitesHandler is the sites backend: geocode a city and list the points of
// interest around it.
type SitesHandler struct {
	newResolver ResolverFactory
}

// NewSitesHandler returns the sites backend; f is called once per request.
func NewSitesHandler(f ResolverFactory) *SitesHandler {
	return &SitesHandler{newResolver: f}
}

// Register mounts GET /get_sites on r.
func (h *SitesHandler) Register(r gin.IRouter) {
	r.GET(resolver.SitesPath, h.getSites)
}

func (h *SitesHandler) getSites(ctx *gin.Context) {
	code, body := h.sites(ctx)
	metrics.SitesRequestsTotal.WithLabelValues(strconv.Itoa(code)).Inc()
	ctx.JSON(code, body)
}

func (h *SitesHandler) sites(ctx *gin.Context) (int, any) {
	city := strings.TrimSpace(ctx.Query("city"))
	if city == "" {
		return http.StatusBadRequest, gin.H{"error": "city query parameter is required"}
	}

	radius, err := strconv.Atoi(ctx.DefaultQuery("radius", strconv.Itoa(resolver.DefaultRadius)))
	if err != nil || radius <= 0 {
		return http.StatusBadRequest, gin.H{"error": "radius must be a positive integer"}
	}

	limit, err := strconv.Atoi(ctx.DefaultQuery("limit", strconv.Itoa(resolver.DefaultLimit)))
	if err != nil {
		return http.StatusBadRequest, gin.H{"error": "limit must be an integer"}
	}

	limit = max(1, min(limit, resolver.MaxLimit))

	res, err := h.newResolver(resolver.Options{Radius: radius, Limit: limit}).Resolve(ctx.Request.Context(), city)
	if err != nil {
		log.Printf("get_sites %q: %v", city, err)

		switch {
		case resolver.IsNotFound(err):
			return http.StatusNotFound, gin.H{"error": "city not found"}
		case resolver.IsRateLimited(err):
			return http.StatusTooManyRequests, gin.H{"error": "rate limited, try again later"}
		default:
			return http.StatusBadGateway, gin.H{"error": "upstream service failed"}
		}
	}

	return http.StatusOK, resolver.NewSitesPayload(res.City, res.Center, resolver.FlattenRecords(res.Places))
}
