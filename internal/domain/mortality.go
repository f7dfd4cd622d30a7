package domain

// CellOutcome summarizes the mortality applied to one cell by one event.
type CellOutcome struct {
	Severity      uint8
	CohortsKilled int
}

// MortalityEvaluator applies the severity table to a cell's cohorts.
type MortalityEvaluator struct {
	table SeverityTable
}

func NewMortalityEvaluator(table SeverityTable) *MortalityEvaluator {
	return &MortalityEvaluator{table: table}
}

// Evaluate marks for removal every cohort whose tier threshold is exceeded by
// intensity and returns the highest tier number that killed. Only the first
// tier matching a cohort's age fraction is consulted.
func (m *MortalityEvaluator) Evaluate(cohorts CohortRemover, cell Cell, intensity float64) CellOutcome {
	var out CellOutcome
	cohorts.RemoveMarkedCohorts(cell, func(c Cohort) bool {
		tier, ok := m.table.Lookup(AgeFraction(c))
		if !ok || intensity <= tier.MortalityThreshold {
			return false
		}
		out.CohortsKilled++
		out.Severity = max(out.Severity, tier.Number)
		return true
	})
	return out
}
