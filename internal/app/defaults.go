package app

import "github.com/evanschultz/tavla/internal/domain"

var sampleTitles = []string{"Buy groceries", "Build example", "Write tests"}

// SampleTasks returns the starter tasks for a fresh board, one per column in
// order. Extra titles land in the last column.
func SampleTasks(columns []domain.Column, idGen IDGenerator) []domain.Task {
	if len(columns) == 0 || idGen == nil {
		return nil
	}
	out := make([]domain.Task, 0, len(sampleTitles))
	for idx, title := range sampleTitles {
		col := columns[min(idx, len(columns)-1)]
		out = append(out, domain.Task{
			ID:       idGen(),
			Title:    title,
			Status:   col.ID,
			Priority: domain.PriorityMedium,
		})
	}
	return out
}
