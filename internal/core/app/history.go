package app

import (
	"sort"

	"importcycles/internal/core/errors"
	"importcycles/internal/data/history"
	"importcycles/internal/engine/graph"
	"importcycles/internal/shared/util"
)

// HistoryReport is the recorded run history, newest run first, together with
// the files most often reported inside a cycle.
type HistoryReport struct {
	Runs      []history.Run
	Recurring []history.Recurrence
}

// History loads up to limit recorded runs. A limit <= 0 loads every run.
func (a *App) History(limit int) (*HistoryReport, error) {
	if a.history == nil {
		return nil, errors.New(errors.CodeValidationError, "no history database configured")
	}
	runs, err := a.history.LoadRuns(limit)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeIO, "load run history"), errors.CtxPath, a.history.Path())
	}

	members := make(map[string]bool)
	for _, run := range runs {
		for _, cycle := range run.Cycles {
			for _, path := range cycle {
				members[path] = true
			}
		}
	}
	counts, err := a.occurrences(util.SortedStringKeys(members))
	if err != nil {
		return nil, err
	}

	report := &HistoryReport{Runs: runs, Recurring: make([]history.Recurrence, 0, len(counts))}
	for _, path := range util.SortedStringKeys(counts) {
		report.Recurring = append(report.Recurring, history.Recurrence{Path: path, Runs: counts[path]})
	}
	sort.SliceStable(report.Recurring, func(i, j int) bool {
		return report.Recurring[i].Runs > report.Recurring[j].Runs
	})
	return report, nil
}

// CycleRecurrence returns, per cycle, the largest number of recorded runs in
// which one of its files was reported in a cycle. It returns nil without a
// history database.
func (a *App) CycleRecurrence(cycles []graph.Cycle) ([]int, error) {
	if a.history == nil {
		return nil, nil
	}
	out := make([]int, len(cycles))
	for i, cycle := range cycles {
		counts, err := a.occurrences(cycle)
		if err != nil {
			return nil, err
		}
		for _, n := range counts {
			if n > out[i] {
				out[i] = n
			}
		}
	}
	return out, nil
}

func (a *App) occurrences(paths []string) (map[string]int, error) {
	counts := make(map[string]int, len(paths))
	for _, path := range paths {
		n, err := a.history.CycleOccurrences(path)
		if err != nil {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeIO, "count cycle occurrences"), errors.CtxPath, path)
		}
		counts[path] = n
	}
	return counts, nil
}
