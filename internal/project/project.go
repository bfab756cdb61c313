// Package project manages the top-level project records that own boards
// and items.
package project

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/dmaher/corkboard/internal/models"
	"gorm.io/gorm"
)

// CreateOpts holds parameters for creating a project.
type CreateOpts struct {
	Name        string
	Description string
	Status      string
}

// Create inserts a new project with a unique slug derived from its name.
// Slug collisions get a numeric suffix, so "Atlas" twice yields atlas and
// atlas-2.
func Create(db *gorm.DB, opts CreateOpts) (*models.Project, error) {
	if opts.Name == "" {
		return nil, fmt.Errorf("project: name is required")
	}
	if opts.Status == "" {
		opts.Status = models.ProjectDraft
	}
	if err := validStatus(opts.Status); err != nil {
		return nil, err
	}

	p := &models.Project{
		Name:        opts.Name,
		Description: opts.Description,
		Status:      opts.Status,
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		slug, err := uniqueSlug(tx, opts.Name)
		if err != nil {
			return err
		}
		p.Slug = slug
		if err := tx.Create(p).Error; err != nil {
			return fmt.Errorf("project: create: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Get retrieves a project by ID.
func Get(db *gorm.DB, id uint) (*models.Project, error) {
	var p models.Project
	if err := db.First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("project: not found: %d", id)
		}
		return nil, fmt.Errorf("project: get %d: %w", id, err)
	}
	return &p, nil
}

// GetBySlug retrieves a project by its slug.
func GetBySlug(db *gorm.DB, slug string) (*models.Project, error) {
	var p models.Project
	if err := db.Where("slug = ?", slug).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("project: not found: %s", slug)
		}
		return nil, fmt.Errorf("project: get %s: %w", slug, err)
	}
	return &p, nil
}

// List returns projects, optionally filtered by status, newest first.
func List(db *gorm.DB, status string) ([]models.Project, error) {
	q := db.Model(&models.Project{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var projects []models.Project
	if err := q.Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("project: list: %w", err)
	}
	return projects, nil
}

// SetStatus moves a project through its lifecycle and keeps ArchivedAt in
// step: set when entering archived, cleared when leaving it.
func SetStatus(db *gorm.DB, id uint, status string) (*models.Project, error) {
	if err := validStatus(status); err != nil {
		return nil, err
	}
	p, err := Get(db, id)
	if err != nil {
		return nil, err
	}

	p.Status = status
	switch {
	case status == models.ProjectArchived && p.ArchivedAt == nil:
		now := time.Now()
		p.ArchivedAt = &now
	case status != models.ProjectArchived:
		p.ArchivedAt = nil
	}
	if err := db.Save(p).Error; err != nil {
		return nil, fmt.Errorf("project: set status %d: %w", id, err)
	}
	return p, nil
}

func validStatus(status string) error {
	switch status {
	case models.ProjectDraft, models.ProjectActive, models.ProjectPaused, models.ProjectArchived:
		return nil
	}
	return fmt.Errorf("project: status %q is not draft, active, paused, or archived", status)
}

// uniqueSlug slugifies name and appends -2, -3, ... until the slug is free.
func uniqueSlug(tx *gorm.DB, name string) (string, error) {
	base := slugify(name)
	if base == "" {
		base = "project"
	}
	slug := base
	for n := 2; ; n++ {
		var count int64
		if err := tx.Model(&models.Project{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
			return "", fmt.Errorf("project: slug check: %w", err)
		}
		if count == 0 {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, n)
	}
}

// slugify lowercases name and collapses runs of non-alphanumerics into
// single hyphens.
func slugify(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.Trim(b.String(), "-")
}
