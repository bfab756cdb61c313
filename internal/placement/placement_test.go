package placement

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dmaher/corkboard/internal/db"
	"github.com/dmaher/corkboard/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openPlacementTestDB opens a file-backed SQLite database so concurrent
// transactions from multiple goroutines contend the way the engine expects.
func openPlacementTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "placement.db") + "?_busy_timeout=5000"
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return gdb
}

// fixture is a seeded project with one task board and its columns.
type fixture struct {
	project models.Project
	board   models.Board
	todo    models.Column
	doing   models.Column
	done    models.Column
}

func seedBoard(t *testing.T, gdb *gorm.DB) *fixture {
	t.Helper()
	f := &fixture{
		project: models.Project{Name: "Test", Slug: "test", Status: models.ProjectActive},
	}
	if err := gdb.Create(&f.project).Error; err != nil {
		t.Fatalf("seed project: %v", err)
	}
	f.board = models.Board{ProjectID: f.project.ID, Name: "Delivery", Kind: models.BoardKindTask, Position: 100}
	if err := gdb.Create(&f.board).Error; err != nil {
		t.Fatalf("seed board: %v", err)
	}
	cols := []*models.Column{&f.todo, &f.doing, &f.done}
	names := []string{"To Do", "Doing", "Done"}
	for i, c := range cols {
		*c = models.Column{BoardID: f.board.ID, Name: names[i], Position: int64(100 * (i + 1))}
		if err := gdb.Create(c).Error; err != nil {
			t.Fatalf("seed column %s: %v", names[i], err)
		}
	}
	return f
}

// seedItem inserts a task item directly at an explicit position, bypassing
// the engine, for arranging scenarios.
func seedItem(t *testing.T, gdb *gorm.DB, f *fixture, col *models.Column, title string, pos int64) *models.Item {
	t.Helper()
	prio := 3
	item := &models.Item{
		ProjectID: f.project.ID,
		BoardID:   f.board.ID,
		ColumnID:  col.ID,
		Kind:      models.ItemKindTask,
		Title:     title,
		Status:    models.StatusTodo,
		Priority:  &prio,
		Position:  pos,
	}
	if err := gdb.Create(item).Error; err != nil {
		t.Fatalf("seed item %s: %v", title, err)
	}
	return item
}

// newTaskItem builds an unsaved task item valid for a task board.
func newTaskItem(title string) *models.Item {
	prio := 3
	return &models.Item{
		Kind:     models.ItemKindTask,
		Title:    title,
		Status:   models.StatusTodo,
		Priority: &prio,
	}
}

// columnTitles reads back a column's items in position order.
func columnTitles(t *testing.T, gdb *gorm.DB, columnID uint) []string {
	t.Helper()
	var items []models.Item
	if err := gdb.Where("column_id = ?", columnID).Order("position ASC").Find(&items).Error; err != nil {
		t.Fatalf("read column %d: %v", columnID, err)
	}
	titles := make([]string, len(items))
	for i := range items {
		titles[i] = items[i].Title
	}
	return titles
}

// columnPositions reads back a column's positions in ascending order.
func columnPositions(t *testing.T, gdb *gorm.DB, columnID uint) []int64 {
	t.Helper()
	var items []models.Item
	if err := gdb.Where("column_id = ?", columnID).Order("position ASC").Find(&items).Error; err != nil {
		t.Fatalf("read column %d: %v", columnID, err)
	}
	positions := make([]int64, len(items))
	for i := range items {
		positions[i] = items[i].Position
	}
	return positions
}

// assertNoDuplicatePositions checks the uniqueness property across all columns.
func assertNoDuplicatePositions(t *testing.T, gdb *gorm.DB) {
	t.Helper()
	type pair struct {
		ColumnID uint
		Position int64
		N        int
	}
	var dups []pair
	if err := gdb.Model(&models.Item{}).
		Select("column_id, position, count(*) as n").
		Group("column_id, position").
		Having("count(*) > 1").
		Find(&dups).Error; err != nil {
		t.Fatalf("check duplicates: %v", err)
	}
	for _, d := range dups {
		t.Errorf("column %d has %d items at position %d", d.ColumnID, d.N, d.Position)
	}
}

func ctx() context.Context { return context.Background() }
