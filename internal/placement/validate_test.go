package placement

import (
	"errors"
	"strings"
	"testing"

	"github.com/dmaher/corkboard/internal/models"
)

func TestClampIndex(t *testing.T) {
	tests := []struct {
		name       string
		idx, count int
		want       int
	}{
		{name: "in range", idx: 1, count: 3, want: 1},
		{name: "zero", idx: 0, count: 3, want: 0},
		{name: "at count", idx: 3, count: 3, want: 3},
		{name: "past end", idx: 10, count: 3, want: 3},
		{name: "negative", idx: -2, count: 3, want: 0},
		{name: "empty column", idx: 5, count: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := clampIndex(tt.idx, tt.count); got != tt.want {
				t.Errorf("clampIndex(%d, %d) = %d, want %d", tt.idx, tt.count, got, tt.want)
			}
		})
	}
}

func TestCheckRequiredFields(t *testing.T) {
	prio := 2
	three := 3

	tests := []struct {
		name      string
		item      models.Item
		boardKind string
		missing   []string
	}{
		{
			name:      "task complete",
			item:      models.Item{Status: models.StatusTodo, Priority: &prio},
			boardKind: models.BoardKindTask,
		},
		{
			name:      "task missing both",
			item:      models.Item{},
			boardKind: models.BoardKindTask,
			missing:   []string{"status", "priority"},
		},
		{
			name:      "task missing priority",
			item:      models.Item{Status: models.StatusDoing},
			boardKind: models.BoardKindTask,
			missing:   []string{"priority"},
		},
		{
			name:      "roadmap complete",
			item:      models.Item{Impact: &three, Confidence: &three, Ease: &three},
			boardKind: models.BoardKindRoadmap,
		},
		{
			name:      "roadmap missing ease",
			item:      models.Item{Impact: &three, Confidence: &three},
			boardKind: models.BoardKindRoadmap,
			missing:   []string{"ease"},
		},
		{
			name:      "unknown kind requires nothing",
			item:      models.Item{},
			boardKind: "retro",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkRequiredFields(&tt.item, tt.boardKind)
			if len(tt.missing) == 0 {
				if err != nil {
					t.Fatalf("err = %v, want nil", err)
				}
				return
			}
			var mf *MissingFieldsError
			if !errors.As(err, &mf) {
				t.Fatalf("err = %v, want MissingFieldsError", err)
			}
			if len(mf.Fields) != len(tt.missing) {
				t.Fatalf("Fields = %v, want %v", mf.Fields, tt.missing)
			}
			for i := range tt.missing {
				if mf.Fields[i] != tt.missing[i] {
					t.Errorf("Fields[%d] = %q, want %q", i, mf.Fields[i], tt.missing[i])
				}
			}
		})
	}
}

func TestMissingFieldsError_Message(t *testing.T) {
	err := &MissingFieldsError{BoardKind: "roadmap", Fields: []string{"impact", "ease"}}
	msg := err.Error()
	if !strings.Contains(msg, "roadmap") || !strings.Contains(msg, "impact, ease") {
		t.Errorf("message = %q", msg)
	}
}

func TestCheckWIP_NoLimit(t *testing.T) {
	gdb := openPlacementTestDB(t)
	f := seedBoard(t, gdb)
	for i := 0; i < 10; i++ {
		seedItem(t, gdb, f, &f.todo, string(rune('a'+i)), int64(100*(i+1)))
	}

	if err := checkWIP(gdb, &f.todo, 0); err != nil {
		t.Errorf("unlimited column rejected: %v", err)
	}
}

func TestIsBusy(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "mysql lock wait", err: errors.New("Error 1205: Lock wait timeout exceeded"), want: true},
		{name: "sqlite locked", err: errors.New("database is locked"), want: true},
		{name: "other", err: errors.New("syntax error"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isBusy(tt.err); got != tt.want {
				t.Errorf("isBusy(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
