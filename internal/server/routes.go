package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dmaher/corkboard/internal/board"
	"github.com/dmaher/corkboard/internal/item"
	"github.com/dmaher/corkboard/internal/models"
	"github.com/dmaher/corkboard/internal/placement"
	"github.com/dmaher/corkboard/internal/project"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// registerRoutes sets up all API routes on the gin router.
func registerRoutes(router *gin.Engine, db *gorm.DB, moveTimeout time.Duration) {
	router.GET("/healthz", handleHealth(db))

	api := router.Group("/api")
	api.GET("/projects", handleProjectList(db))
	api.POST("/projects", handleProjectCreate(db))
	api.POST("/boards", handleBoardCreate(db))
	api.GET("/boards/:id", handleBoardSnapshot(db))
	api.POST("/boards/:id/columns", handleColumnCreate(db))
	api.POST("/columns/:id/items", handleItemCreate(db))
	api.GET("/items/:id", handleItemGet(db))
	api.POST("/items/:id/move", handleItemMove(db, moveTimeout))
	api.POST("/items/:id/convert", handleItemConvert(db))
}

func handleHealth(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.Ping()
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func handleProjectList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		projects, err := project.List(db, c.Query("status"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, projects)
	}
}

func handleProjectCreate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name        string `json:"name"`
			Description string `json:"description"`
			Status      string `json:"status"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		p, err := project.Create(db, project.CreateOpts{
			Name:        req.Name,
			Description: req.Description,
			Status:      req.Status,
		})
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, p)
	}
}

func handleBoardCreate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			ProjectID   uint   `json:"project_id"`
			Name        string `json:"name"`
			Kind        string `json:"kind"`
			MakeDefault bool   `json:"make_default"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		b, err := board.CreateBoard(db, board.CreateBoardOpts{
			ProjectID: req.ProjectID,
			Name:      req.Name,
			Kind:      req.Kind,
			IsDefault: req.MakeDefault,
		})
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, b)
	}
}

// boardSnapshot is the ordered read model of one board: columns in position
// order, each with its items in position order.
type boardSnapshot struct {
	Board   *models.Board    `json:"board"`
	Columns []columnSnapshot `json:"columns"`
}

type columnSnapshot struct {
	Column models.Column `json:"column"`
	Items  []models.Item `json:"items"`
}

func handleBoardSnapshot(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramID(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid board id"})
			return
		}
		b, err := board.Get(db, id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}

		snap := boardSnapshot{Board: b, Columns: make([]columnSnapshot, 0, len(b.Columns))}
		for _, col := range b.Columns {
			items, err := item.List(db, item.ListFilters{ColumnID: col.ID})
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			snap.Columns = append(snap.Columns, columnSnapshot{Column: col, Items: items})
		}
		c.JSON(http.StatusOK, snap)
	}
}

func handleColumnCreate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramID(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid board id"})
			return
		}
		var req struct {
			Name     string `json:"name"`
			WIPLimit *int   `json:"wip_limit"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		col, err := board.CreateColumn(db, board.CreateColumnOpts{
			BoardID:  id,
			Name:     req.Name,
			WIPLimit: req.WIPLimit,
		})
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, col)
	}
}

func handleItemCreate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		columnID, err := paramID(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid column id"})
			return
		}
		var req struct {
			Kind        string `json:"kind"`
			Title       string `json:"title"`
			Description string `json:"description"`
			Status      string `json:"status"`
			Priority    *int   `json:"priority"`
			Assignee    string `json:"assignee"`
			Impact      *int   `json:"impact"`
			Confidence  *int   `json:"confidence"`
			Ease        *int   `json:"ease"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		it, res, err := item.Create(c.Request.Context(), db, item.CreateOpts{
			Actor:       actor(c),
			ColumnID:    columnID,
			Kind:        req.Kind,
			Title:       req.Title,
			Description: req.Description,
			Status:      req.Status,
			Priority:    req.Priority,
			Assignee:    req.Assignee,
			Impact:      req.Impact,
			Confidence:  req.Confidence,
			Ease:        req.Ease,
		})
		if err != nil {
			writePlacementError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"item": it, "placement": res})
	}
}

func handleItemGet(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramID(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
			return
		}
		it, err := item.Get(db, id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, it)
	}
}

func handleItemMove(db *gorm.DB, moveTimeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramID(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
			return
		}
		var req struct {
			TargetColumnID uint `json:"target_column_id"`
			TargetIndex    int  `json:"target_index"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), moveTimeout)
		defer cancel()

		res, err := placement.Move(ctx, db, placement.MoveRequest{
			Actor:          actor(c),
			ItemID:         id,
			TargetColumnID: req.TargetColumnID,
			TargetIndex:    req.TargetIndex,
		})
		if err != nil {
			writePlacementError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func handleItemConvert(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramID(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
			return
		}
		it, err := item.Convert(db, id)
		if err != nil {
			writePlacementError(c, err)
			return
		}
		c.JSON(http.StatusOK, it)
	}
}

// writePlacementError maps the placement package's error taxonomy onto
// HTTP statuses: missing records are 404, admission failures 422,
// contention 409.
func writePlacementError(c *gin.Context, err error) {
	var missing *placement.MissingFieldsError
	switch {
	case errors.Is(err, placement.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &missing):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":          missing.Error(),
			"missing_fields": missing.Fields,
		})
	case errors.Is(err, placement.ErrWIPExceeded),
		errors.Is(err, placement.ErrInvalidTarget):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, placement.ErrConflict),
		errors.Is(err, placement.ErrBusy):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

func actor(c *gin.Context) string {
	if a := c.GetHeader("X-Actor"); a != "" {
		return a
	}
	return "api"
}

func paramID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	return uint(id), err
}
