package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/dmaher/corkboard/internal/db"
	"github.com/dmaher/corkboard/internal/item"
	"github.com/dmaher/corkboard/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openServerTestDB(t *testing.T) *gorm.DB {
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

func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	gdb := openServerTestDB(t)
	return newRouter(gdb, 5*time.Second), gdb
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor", "tester")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, into any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), into); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

type boardFixture struct {
	board *models.Board
	todo  *models.Column
	doing *models.Column
}

func seedTaskBoard(t *testing.T, gdb *gorm.DB) boardFixture {
	t.Helper()
	p := &models.Project{Name: "Test", Slug: "test", Status: models.ProjectActive}
	if err := gdb.Create(p).Error; err != nil {
		t.Fatalf("seed project: %v", err)
	}
	b := &models.Board{ProjectID: p.ID, Name: "Delivery", Kind: models.BoardKindTask, Position: 100}
	if err := gdb.Create(b).Error; err != nil {
		t.Fatalf("seed board: %v", err)
	}
	todo := &models.Column{BoardID: b.ID, Name: "Todo", Position: 100}
	doing := &models.Column{BoardID: b.ID, Name: "Doing", Position: 200}
	if err := gdb.Create(todo).Error; err != nil {
		t.Fatalf("seed column: %v", err)
	}
	if err := gdb.Create(doing).Error; err != nil {
		t.Fatalf("seed column: %v", err)
	}
	return boardFixture{board: b, todo: todo, doing: doing}
}

func TestStart_NilDB(t *testing.T) {
	err := Start(context.Background(), StartOpts{DB: nil})
	if err == nil || !strings.Contains(err.Error(), "db is required") {
		t.Errorf("err = %v, want db is required", err)
	}
}

func TestHealthz(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/healthz", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body map[string]string
	decode(t, w, &body)
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want ok", body["status"])
	}
}

func TestProjectCreateAndList(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/projects", gin.H{"name": "Atlas", "status": "active"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", w.Code, w.Body.String())
	}
	var created models.Project
	decode(t, w, &created)
	if created.Slug != "atlas" {
		t.Errorf("slug = %q, want atlas", created.Slug)
	}

	w = doJSON(t, router, http.MethodGet, "/api/projects?status=active", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var projects []models.Project
	decode(t, w, &projects)
	if len(projects) != 1 {
		t.Errorf("len(projects) = %d, want 1", len(projects))
	}
}

func TestItemCreate_QuickAdd(t *testing.T) {
	router, gdb := newTestRouter(t)
	fx := seedTaskBoard(t, gdb)

	w := doJSON(t, router, http.MethodPost, "/api/columns/"+itoa(fx.todo.ID)+"/items",
		gin.H{"title": "Ship it"})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var body struct {
		Item      models.Item `json:"item"`
		Placement struct {
			Position int64 `json:"position"`
		} `json:"placement"`
	}
	decode(t, w, &body)
	if body.Item.Status != models.StatusTodo {
		t.Errorf("status = %q, want todo", body.Item.Status)
	}
	if body.Placement.Position != 100 {
		t.Errorf("position = %d, want 100", body.Placement.Position)
	}
	if body.Item.CreatedBy != "tester" {
		t.Errorf("created by = %q, want tester from X-Actor", body.Item.CreatedBy)
	}
}

func TestItemCreate_ColumnNotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/columns/999/items", gin.H{"title": "x"})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404, body %s", w.Code, w.Body.String())
	}
}

func TestItemCreate_MissingFields(t *testing.T) {
	router, gdb := newTestRouter(t)
	fx := seedTaskBoard(t, gdb)

	roadmap := &models.Board{ProjectID: fx.board.ProjectID, Name: "Roadmap", Kind: models.BoardKindRoadmap, Position: 200}
	if err := gdb.Create(roadmap).Error; err != nil {
		t.Fatalf("seed roadmap: %v", err)
	}
	ideas := &models.Column{BoardID: roadmap.ID, Name: "Ideas", Position: 100}
	if err := gdb.Create(ideas).Error; err != nil {
		t.Fatalf("seed ideas: %v", err)
	}

	// A task on a roadmap board lacks ICE fields.
	w := doJSON(t, router, http.MethodPost, "/api/columns/"+itoa(ideas.ID)+"/items",
		gin.H{"title": "x", "kind": "task"})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422, body %s", w.Code, w.Body.String())
	}
	var body struct {
		MissingFields []string `json:"missing_fields"`
	}
	decode(t, w, &body)
	if len(body.MissingFields) != 3 {
		t.Errorf("missing_fields = %v, want impact, confidence, ease", body.MissingFields)
	}
}

func TestItemMove(t *testing.T) {
	router, gdb := newTestRouter(t)
	fx := seedTaskBoard(t, gdb)

	var created struct {
		Item models.Item `json:"item"`
	}
	w := doJSON(t, router, http.MethodPost, "/api/columns/"+itoa(fx.todo.ID)+"/items", gin.H{"title": "a"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d", w.Code)
	}
	decode(t, w, &created)

	w = doJSON(t, router, http.MethodPost, "/api/items/"+itoa(created.Item.ID)+"/move",
		gin.H{"target_column_id": fx.doing.ID, "target_index": 0})
	if w.Code != http.StatusOK {
		t.Fatalf("move status = %d, body %s", w.Code, w.Body.String())
	}
	var res struct {
		ToColumnID uint  `json:"toColumnId"`
		Position   int64 `json:"position"`
	}
	decode(t, w, &res)
	if res.ToColumnID != fx.doing.ID {
		t.Errorf("to_column_id = %d, want %d", res.ToColumnID, fx.doing.ID)
	}
	if res.Position != 100 {
		t.Errorf("position = %d, want 100", res.Position)
	}
}

func TestItemMove_NotFound(t *testing.T) {
	router, gdb := newTestRouter(t)
	fx := seedTaskBoard(t, gdb)

	w := doJSON(t, router, http.MethodPost, "/api/items/999/move",
		gin.H{"target_column_id": fx.doing.ID, "target_index": 0})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404, body %s", w.Code, w.Body.String())
	}
}

func TestItemMove_WIPExceeded(t *testing.T) {
	router, gdb := newTestRouter(t)
	fx := seedTaskBoard(t, gdb)

	one := 1
	if err := gdb.Model(fx.doing).Update("wip_limit", &one).Error; err != nil {
		t.Fatalf("set wip limit: %v", err)
	}
	ctx := context.Background()
	if _, _, err := item.Create(ctx, gdb, item.CreateOpts{ColumnID: fx.doing.ID, Title: "occupant"}); err != nil {
		t.Fatalf("seed occupant: %v", err)
	}
	mover, _, err := item.Create(ctx, gdb, item.CreateOpts{ColumnID: fx.todo.ID, Title: "mover"})
	if err != nil {
		t.Fatalf("seed mover: %v", err)
	}

	w := doJSON(t, router, http.MethodPost, "/api/items/"+itoa(mover.ID)+"/move",
		gin.H{"target_column_id": fx.doing.ID, "target_index": 0})
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422, body %s", w.Code, w.Body.String())
	}
}

func TestBoardSnapshot_Ordered(t *testing.T) {
	router, gdb := newTestRouter(t)
	fx := seedTaskBoard(t, gdb)

	ctx := context.Background()
	for _, title := range []string{"a", "b"} {
		if _, _, err := item.Create(ctx, gdb, item.CreateOpts{ColumnID: fx.todo.ID, Title: title}); err != nil {
			t.Fatalf("seed item %s: %v", title, err)
		}
	}

	w := doJSON(t, router, http.MethodGet, "/api/boards/"+itoa(fx.board.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var snap struct {
		Columns []struct {
			Column models.Column `json:"column"`
			Items  []models.Item `json:"items"`
		} `json:"columns"`
	}
	decode(t, w, &snap)
	if len(snap.Columns) != 2 {
		t.Fatalf("len(columns) = %d, want 2", len(snap.Columns))
	}
	if snap.Columns[0].Column.Name != "Todo" || snap.Columns[1].Column.Name != "Doing" {
		t.Errorf("column order = %q, %q", snap.Columns[0].Column.Name, snap.Columns[1].Column.Name)
	}
	got := []string{}
	for _, it := range snap.Columns[0].Items {
		got = append(got, it.Title)
	}
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("todo items = %v, want [a b]", got)
	}
}

func TestItemConvert(t *testing.T) {
	router, gdb := newTestRouter(t)
	fx := seedTaskBoard(t, gdb)

	task, _, err := item.Create(context.Background(), gdb, item.CreateOpts{ColumnID: fx.todo.ID, Title: "t"})
	if err != nil {
		t.Fatalf("seed task: %v", err)
	}

	w := doJSON(t, router, http.MethodPost, "/api/items/"+itoa(task.ID)+"/convert", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var got models.Item
	decode(t, w, &got)
	if got.Kind != models.ItemKindIdea {
		t.Errorf("kind = %q, want idea", got.Kind)
	}

	w = doJSON(t, router, http.MethodPost, "/api/items/999/convert", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
