package maintenance

import (
	"context"
	"testing"

	"github.com/dmaher/corkboard/internal/db"
	"github.com/dmaher/corkboard/internal/models"
	"github.com/dmaher/corkboard/internal/position"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openMaintenanceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
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

func seedColumn(t *testing.T, gdb *gorm.DB, positions []int64) *models.Column {
	t.Helper()
	p := &models.Project{Name: "Test", Slug: "test", Status: models.ProjectActive}
	if err := gdb.Create(p).Error; err != nil {
		t.Fatalf("seed project: %v", err)
	}
	b := &models.Board{ProjectID: p.ID, Name: "Delivery", Kind: models.BoardKindTask, Position: 100}
	if err := gdb.Create(b).Error; err != nil {
		t.Fatalf("seed board: %v", err)
	}
	col := &models.Column{BoardID: b.ID, Name: "Todo", Position: 100}
	if err := gdb.Create(col).Error; err != nil {
		t.Fatalf("seed column: %v", err)
	}
	three := 3
	for i, pos := range positions {
		it := &models.Item{
			ProjectID: p.ID, BoardID: b.ID, ColumnID: col.ID,
			Kind: models.ItemKindTask, Title: "item",
			Status: models.StatusTodo, Priority: &three,
			Position: pos,
		}
		if err := gdb.Create(it).Error; err != nil {
			t.Fatalf("seed item %d: %v", i, err)
		}
	}
	return col
}

func columnPositions(t *testing.T, gdb *gorm.DB, columnID uint) []int64 {
	t.Helper()
	var positions []int64
	if err := gdb.Model(&models.Item{}).
		Where("column_id = ?", columnID).
		Order("position ASC").
		Pluck("position", &positions).Error; err != nil {
		t.Fatalf("read positions: %v", err)
	}
	return positions
}

func TestSweep_HealthyColumnUntouched(t *testing.T) {
	gdb := openMaintenanceTestDB(t)
	seedColumn(t, gdb, []int64{100, 200, 300})

	report, err := Sweep(context.Background(), gdb)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if report.ColumnsChecked != 1 {
		t.Errorf("checked = %d, want 1", report.ColumnsChecked)
	}
	if report.ColumnsRebalanced != 0 {
		t.Errorf("rebalanced = %d, want 0", report.ColumnsRebalanced)
	}
}

func TestSweep_TightGapRebalanced(t *testing.T) {
	gdb := openMaintenanceTestDB(t)
	col := seedColumn(t, gdb, []int64{100, 101, 300})

	report, err := Sweep(context.Background(), gdb)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if report.ColumnsRebalanced != 1 {
		t.Fatalf("rebalanced = %d, want 1", report.ColumnsRebalanced)
	}
	if report.RowsTouched != 3 {
		t.Errorf("rows touched = %d, want 3", report.RowsTouched)
	}

	got := columnPositions(t, gdb, col.ID)
	want := []int64{100, 200, 300}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("positions = %v, want %v", got, want)
			break
		}
	}
}

func TestSweep_HighMagnitudeRebalanced(t *testing.T) {
	gdb := openMaintenanceTestDB(t)
	col := seedColumn(t, gdb, []int64{100, position.MaxMagnitude / 2})

	report, err := Sweep(context.Background(), gdb)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if report.ColumnsRebalanced != 1 {
		t.Fatalf("rebalanced = %d, want 1", report.ColumnsRebalanced)
	}

	got := columnPositions(t, gdb, col.ID)
	if len(got) != 2 || got[0] != 100 || got[1] != 200 {
		t.Errorf("positions = %v, want [100 200]", got)
	}
}

func TestSweep_RecordsActivity(t *testing.T) {
	gdb := openMaintenanceTestDB(t)
	seedColumn(t, gdb, []int64{100, 101})

	if _, err := Sweep(context.Background(), gdb); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	var entries []models.ActivityEntry
	if err := gdb.Where("verb = ?", models.ActivityRebalance).Find(&entries).Error; err != nil {
		t.Fatalf("read activity: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].Actor != "maintenance" {
		t.Errorf("actor = %q, want maintenance", entries[0].Actor)
	}
	if entries[0].RowsTouched != 2 {
		t.Errorf("rows touched = %d, want 2", entries[0].RowsTouched)
	}
}

func TestSweep_EmptyDatabase(t *testing.T) {
	gdb := openMaintenanceTestDB(t)

	report, err := Sweep(context.Background(), gdb)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if report.ColumnsChecked != 0 {
		t.Errorf("checked = %d, want 0", report.ColumnsChecked)
	}
}

func TestNewScheduler_ValidatesExpression(t *testing.T) {
	gdb := openMaintenanceTestDB(t)
	ctx := context.Background()

	if _, err := NewScheduler(ctx, gdb, "not a cron"); err == nil {
		t.Error("invalid expression should fail")
	}

	s, err := NewScheduler(ctx, gdb, "0 3 * * *")
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	s.Start()
	s.Stop()
}
