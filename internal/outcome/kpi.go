package outcome

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// KpiStrategy selects how a CLO's KPI percentage is computed from raw marks.
// The two rules are intentionally distinct: lab sheets score a plain ratio of
// sums, regular sheets weight each field's ratio. The strategy is persisted on
// the sheet, never inferred from the call site.
type KpiStrategy string

const (
	// RatioOfSums: round(100 * sum(obtained) / sum(max)).
	RatioOfSums KpiStrategy = "ratio_of_sums"
	// WeightedAverageOfRatios: round(sum((obtained/max) * weightage)).
	WeightedAverageOfRatios KpiStrategy = "weighted_average"
)

func (s KpiStrategy) Valid() bool {
	return s == RatioOfSums || s == WeightedAverageOfRatios
}

// ComputeKPI turns one student's raw marks for one CLO into a percentage string
// ("{int}%"), or "" when no KPI is computable. Inputs are permissive: blank or
// unparseable marks count as 0, a field missing from marks/maxMarks contributes
// 0 to the numerator and its configured max (or 0) to the denominator.
func ComputeKPI(strategy KpiStrategy, marks, maxMarks map[string]string, fields []Field) string {
	switch strategy {
	case WeightedAverageOfRatios:
		return kpiWeighted(marks, maxMarks, fields)
	default:
		return kpiRatioOfSums(marks, maxMarks, fields)
	}
}

// kpiRatioOfSums sums obtained and max across all fields. A zero max total
// means the sheet is not configured yet, so the KPI is empty rather than 0%.
func kpiRatioOfSums(marks, maxMarks map[string]string, fields []Field) string {
	var sumObtained, sumMax float64
	for _, f := range fields {
		sumObtained += parseNum(marks[f.Name])
		sumMax += parseNum(maxMarks[f.Name])
	}
	if sumMax == 0 {
		return ""
	}
	return formatPercent(math.Round(sumObtained / sumMax * 100))
}

// kpiWeighted averages per-field ratios weighted by the field's share. Fields
// with no weightage or no max marks are skipped entirely. A rounded total of
// zero is suppressed to "" so the cell renders blank, not "0%".
func kpiWeighted(marks, maxMarks map[string]string, fields []Field) string {
	total := 0.0
	for _, f := range fields {
		if f.Weightage <= 0 {
			continue
		}
		max := parseNum(maxMarks[f.Name])
		if max <= 0 {
			continue
		}
		obtained := parseNum(marks[f.Name])
		total += (obtained / max) * (f.Weightage / 100) * 100
	}
	rounded := math.Round(total)
	if rounded == 0 {
		return ""
	}
	return formatPercent(rounded)
}

// RecomputeKPIs refreshes the stored KPI of every student/CLO pair on the
// sheet. Called after a marks save so persisted KPIs never drift from the raw
// marks they were derived from.
func RecomputeKPIs(s *Sheet) {
	for i := range s.Students {
		for cloKey, cm := range s.Students[i].Marks {
			detail, ok := s.CloDetails[cloKey]
			if !ok {
				continue
			}
			cm.KPI = ComputeKPI(s.Strategy, cm.Fields, detail.TotalMarks, detail.Fields)
			s.Students[i].Marks[cloKey] = cm
		}
	}
}

// parseNum is the permissive numeric coercion used throughout marks handling:
// best-effort parse, default 0. Teachers leave fields blank all the time.
func parseNum(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

// ParsePercent strips a trailing "%" and parses the remainder. The second
// return is false for blank or unparseable values.
func ParsePercent(s string) (float64, bool) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%d%%", int(v))
}
