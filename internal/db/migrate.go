package db

import (
	"fmt"

	"github.com/dmaher/corkboard/internal/models"
	"gorm.io/gorm"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.Project{},
		&models.Board{},
		&models.Column{},
		&models.Item{},
		&models.ActivityEntry{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// SeedDemo creates a demo project with a default task board and three
// columns, for `cb db seed`. Idempotent on the project slug.
func SeedDemo(db *gorm.DB) (*models.Project, error) {
	var existing models.Project
	if err := db.Where("slug = ?", "demo").First(&existing).Error; err == nil {
		return &existing, nil
	}

	project := models.Project{Name: "Demo", Slug: "demo", Status: models.ProjectActive}
	if err := db.Create(&project).Error; err != nil {
		return nil, fmt.Errorf("db: seed project: %w", err)
	}

	board := models.Board{
		ProjectID: project.ID,
		Name:      "Delivery",
		Kind:      models.BoardKindTask,
		IsDefault: true,
		Position:  100,
	}
	if err := db.Create(&board).Error; err != nil {
		return nil, fmt.Errorf("db: seed board: %w", err)
	}

	wip := 3
	columns := []models.Column{
		{BoardID: board.ID, Name: "To Do", Position: 100},
		{BoardID: board.ID, Name: "Doing", Position: 200, WIPLimit: &wip},
		{BoardID: board.ID, Name: "Done", Position: 300},
	}
	for i := range columns {
		if err := db.Create(&columns[i]).Error; err != nil {
			return nil, fmt.Errorf("db: seed column %q: %w", columns[i].Name, err)
		}
	}

	return &project, nil
}
