package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"presensi/internal/cloudinary"
	"presensi/internal/lecturer"
	"presensi/internal/presence"
	"presensi/internal/schedule"
)

// registerAdminRoutes wires the administration CRUD surface: lecturers, the
// weekday catalog, presence corrections, and photo upload.
func registerAdminRoutes(g *gin.RouterGroup, lecturers *lecturer.Repository, days *schedule.Repository, presences *presence.Repository, cdn *cloudinary.Client, loc *time.Location) {
	// Lecturers
	g.GET("/lecturers", func(c *gin.Context) {
		res, err := lecturers.List(c.Request.Context())
		if err != nil {
			internalError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"lecturers": res})
	})

	g.GET("/lecturers/:id", func(c *gin.Context) {
		l, err := lecturers.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			internalError(c, err)
			return
		}
		if l == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "lecturer not found"})
			return
		}
		c.JSON(http.StatusOK, l)
	})

	g.POST("/lecturers", func(c *gin.Context) {
		var req lecturerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		l, err := lecturers.Create(c.Request.Context(), lecturer.Lecturer{
			Name:  req.Name,
			Code:  req.Code,
			TagID: req.TagID,
			Photo: req.Photo,
		}, req.DayIDs)
		if err != nil {
			if errors.Is(err, lecturer.ErrConflict) {
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			internalError(c, err)
			return
		}
		c.JSON(http.StatusCreated, l)
	})

	g.PUT("/lecturers/:id", func(c *gin.Context) {
		var req lecturerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		l, err := lecturers.Update(c.Request.Context(), lecturer.Lecturer{
			ID:    c.Param("id"),
			Name:  req.Name,
			Code:  req.Code,
			TagID: req.TagID,
			Photo: req.Photo,
		}, req.DayIDs)
		if err != nil {
			if errors.Is(err, lecturer.ErrConflict) {
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			internalError(c, err)
			return
		}
		if l == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "lecturer not found"})
			return
		}
		c.JSON(http.StatusOK, l)
	})

	g.DELETE("/lecturers/:id", func(c *gin.Context) {
		ok, err := lecturers.Delete(c.Request.Context(), c.Param("id"))
		if err != nil {
			internalError(c, err)
			return
		}
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "lecturer not found"})
			return
		}
		c.Status(http.StatusNoContent)
	})

	// Weekday catalog
	g.GET("/days", func(c *gin.Context) {
		res, err := days.List(c.Request.Context())
		if err != nil {
			internalError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"days": res})
	})

	g.POST("/days", func(c *gin.Context) {
		var req struct {
			Name string `json:"name" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		d, err := days.Create(c.Request.Context(), req.Name)
		if err != nil {
			if errors.Is(err, schedule.ErrNameTaken) {
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			internalError(c, err)
			return
		}
		c.JSON(http.StatusCreated, d)
	})

	g.PUT("/days/:id", func(c *gin.Context) {
		var req struct {
			Name string `json:"name" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		d, err := days.Rename(c.Request.Context(), c.Param("id"), req.Name)
		if err != nil {
			if errors.Is(err, schedule.ErrNameTaken) {
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			internalError(c, err)
			return
		}
		if d == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "day not found"})
			return
		}
		c.JSON(http.StatusOK, d)
	})

	g.DELETE("/days/:id", func(c *gin.Context) {
		ok, err := days.Delete(c.Request.Context(), c.Param("id"))
		if err != nil {
			if errors.Is(err, schedule.ErrDayInUse) {
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			internalError(c, err)
			return
		}
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "day not found"})
			return
		}
		c.Status(http.StatusNoContent)
	})

	// Presences
	g.GET("/presences", func(c *gin.Context) {
		var date time.Time
		if v := c.Query("date"); v != "" {
			parsed, err := time.ParseInLocation("2006-01-02", v, loc)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
				return
			}
			date = parsed
		}
		res, err := presences.List(c.Request.Context(), c.Query("lecture_id"), date, intQuery(c, "limit", 100))
		if err != nil {
			internalError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"presences": res})
	})

	g.GET("/stats/today", func(c *gin.Context) {
		n, err := presences.CountToday(c.Request.Context(), time.Now())
		if err != nil {
			internalError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"count": n})
	})

	g.GET("/presences/:id", func(c *gin.Context) {
		rec, err := presences.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			internalError(c, err)
			return
		}
		if rec == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "presence not found"})
			return
		}
		c.JSON(http.StatusOK, rec)
	})

	// Manual entry: the administrator can file any status directly. The
	// daily uniqueness rule still applies.
	g.POST("/presences", func(c *gin.Context) {
		var req struct {
			LectureID string `json:"lecture_id" binding:"required"`
			DayID     string `json:"day_id" binding:"required"`
			Status    string `json:"status" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if !presence.ValidStatus(req.Status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		rec, err := presences.Insert(c.Request.Context(), req.LectureID, req.DayID, req.Status)
		if err != nil {
			if errors.Is(err, presence.ErrDuplicateToday) {
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			internalError(c, err)
			return
		}
		c.JSON(http.StatusCreated, rec)
	})

	g.PUT("/presences/:id", func(c *gin.Context) {
		var req struct {
			Status string `json:"status" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if !presence.ValidStatus(req.Status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		rec, err := presences.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
		if err != nil {
			internalError(c, err)
			return
		}
		if rec == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "presence not found"})
			return
		}
		c.JSON(http.StatusOK, rec)
	})

	g.DELETE("/presences/:id", func(c *gin.Context) {
		ok, err := presences.Delete(c.Request.Context(), c.Param("id"))
		if err != nil {
			internalError(c, err)
			return
		}
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "presence not found"})
			return
		}
		c.Status(http.StatusNoContent)
	})

	// Photo upload — returns the public URL to use as a lecturer's photo.
	g.POST("/upload", func(c *gin.Context) {
		if cdn == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image storage not configured"})
			return
		}
		var req struct {
			Data string `json:"data" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "provide {\"data\": \"<base64 data URL>\"}"})
			return
		}
		result, err := cdn.UploadBase64(req.Data)
		if err != nil {
			log.Printf("cloudinary upload failed: %v", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "image upload failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"url":       result.SecureURL,
			"public_id": result.PublicID,
			"bytes":     result.Bytes,
		})
	})
}

type lecturerRequest struct {
	Name   string   `json:"name" binding:"required"`
	Code   string   `json:"code" binding:"required"`
	TagID  string   `json:"rfid_id" binding:"required"`
	Photo  *string  `json:"photo"`
	DayIDs []string `json:"day_ids"`
}

func internalError(c *gin.Context, err error) {
	log.Printf("admin request failed: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal failure"})
}

func intQuery(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		var parsed int
		if _, err := fmt.Sscanf(v, "%d", &parsed); err == nil {
			return parsed
		}
	}
	return fallback
}
