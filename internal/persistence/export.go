package persistence

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/talgya/willow-creek/internal/engine"
)

// MilestoneExport is the standalone milestone history document.
type MilestoneExport struct {
	Total      int            `json:"total_milestones"`
	Day        int            `json:"simulation_day"`
	Milestones []MilestoneDoc `json:"milestones"`
}

// ExportMilestones writes every milestone of w, oldest first, as indented
// JSON.
func ExportMilestones(w *engine.World, out io.Writer) error {
	st := w.Export()
	doc := MilestoneExport{
		Total:      len(st.Milestones),
		Day:        st.Clock.TotalDays,
		Milestones: make([]MilestoneDoc, 0, len(st.Milestones)),
	}
	for _, m := range st.Milestones {
		doc.Milestones = append(doc.Milestones, milestoneDoc(m))
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("export milestones: %w", err)
	}
	return nil
}

// ExportMilestonesFile writes the milestone history of w to path.
func ExportMilestonesFile(w *engine.World, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export milestones: %w", err)
	}
	if err := ExportMilestones(w, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
