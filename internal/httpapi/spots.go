package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/bft-labs/fishdiary/internal/domain"
	"github.com/bft-labs/fishdiary/internal/ports"
)

// createRequest is the body of POST /api/spots. An id of 0 asks the
// server to assign one.
type createRequest struct {
	ID          int64              `json:"id"`
	Coordinate  *domain.Coordinate `json:"coordinate" binding:"required"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Images      []domain.Image     `json:"images"`
}

// updateRequest is the body of PUT /api/spots/:id. Absent members keep
// their stored value. A coordinate may be sent but must match.
type updateRequest struct {
	Coordinate  *domain.Coordinate `json:"coordinate"`
	Title       *string            `json:"title"`
	Description *string            `json:"description"`
	Images      *[]domain.Image    `json:"images"`
}

type nearbyQuery struct {
	Lat    *float64 `form:"lat" binding:"required"`
	Lng    *float64 `form:"lng" binding:"required"`
	Radius float64  `form:"radius"`
	Limit  int      `form:"limit"`
}

func (s *Server) listSpots(c *gin.Context) {
	spots := s.svc.Spots()
	c.JSON(http.StatusOK, gin.H{"spots": spots, "count": len(spots)})
}

func (s *Server) getSpot(c *gin.Context) {
	id, ok := spotID(c)
	if !ok {
		return
	}
	spot, found := s.svc.Spot(id)
	if !found {
		abortWithError(c, fmt.Errorf("spot %d: %w", id, domain.ErrNotFound))
		return
	}
	c.JSON(http.StatusOK, spot)
}

func (s *Server) createSpot(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if !req.Coordinate.Valid() {
		abortWithError(c, &domain.ValidationError{Field: "coordinate", Reason: "out of range"})
		return
	}

	if req.ID == 0 {
		req.ID = s.svc.NextID()
	}

	spot := domain.Spot{
		ID:          req.ID,
		Coordinate:  *req.Coordinate,
		Title:       req.Title,
		Description: req.Description,
		Images:      req.Images,
	}
	spots, err := s.svc.Insert(c.Request.Context(), spot)
	if err != nil {
		abortWithError(c, err)
		return
	}
	saved, _ := domain.FindSpot(spots, spot.ID)
	c.JSON(http.StatusCreated, saved)
}

func (s *Server) updateSpot(c *gin.Context) {
	id, ok := spotID(c)
	if !ok {
		return
	}
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	spot, found := s.svc.Spot(id)
	if !found {
		abortWithError(c, fmt.Errorf("spot %d: %w", id, domain.ErrNotFound))
		return
	}
	if req.Coordinate != nil &&
		(req.Coordinate.Latitude != spot.Coordinate.Latitude || req.Coordinate.Longitude != spot.Coordinate.Longitude) {
		abortWithError(c, &domain.ValidationError{Field: "coordinate", Reason: "cannot be changed"})
		return
	}
	if req.Title != nil {
		spot.Title = *req.Title
	}
	if req.Description != nil {
		spot.Description = *req.Description
	}
	if req.Images != nil {
		spot.Images = *req.Images
	}

	spots, err := s.svc.Upsert(c.Request.Context(), spot)
	if err != nil {
		abortWithError(c, err)
		return
	}
	saved, _ := domain.FindSpot(spots, id)
	c.JSON(http.StatusOK, saved)
}

func (s *Server) deleteSpot(c *gin.Context) {
	id, ok := spotID(c)
	if !ok {
		return
	}
	if _, err := s.svc.Remove(c.Request.Context(), id); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) nearbySpots(c *gin.Context) {
	var q nearbyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err.Error())
		return
	}
	from := domain.Coordinate{Latitude: *q.Lat, Longitude: *q.Lng}
	if !from.Valid() {
		abortWithError(c, &domain.ValidationError{Field: "coordinate", Reason: "out of range"})
		return
	}

	results := domain.Nearby(s.svc.Spots(), from, q.Radius)
	if q.Limit > 0 && len(results) > q.Limit {
		results = results[:q.Limit]
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}

// refreshSpots reloads from the store. Corrupt data still yields the
// (empty) list with a warning.
func (s *Server) refreshSpots(c *gin.Context) {
	spots, err := s.svc.Refresh(c.Request.Context())
	if err != nil && !errors.Is(err, domain.ErrCorruptData) {
		abortWithError(c, err)
		return
	}
	body := gin.H{"spots": spots, "count": len(spots)}
	if err != nil {
		body["warning"] = err.Error()
	}
	c.JSON(http.StatusOK, body)
}

// spotEvents streams the list as "spots" events: the current value first,
// then every change until the client goes away.
func (s *Server) spotEvents(c *gin.Context) {
	spots, updates, cancel := s.svc.Subscribe()
	defer cancel()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("spots", spots)
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case next, ok := <-updates:
			if !ok {
				return false
			}
			c.SSEvent("spots", next)
			return true
		}
	})
	s.logger.Debug("event stream closed", ports.String("request_id", c.GetString(requestIDKey)))
}

func spotID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "invalid spot id")
		return 0, false
	}
	return id, true
}
