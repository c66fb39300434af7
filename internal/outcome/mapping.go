package outcome

import "fmt"

// CloKey builds the canonical map key for a CLO number, e.g. "clo1".
func CloKey(n int) string { return fmt.Sprintf("clo%d", n) }

// BuildMapping derives a sheet's CLO→PLO mapping and CLO details from a
// subject's catalog-level CLO definitions. Subjects with no CLOs on record get
// the fixed 3-CLO default (clo1..3 → PLO 1..3) so a sheet can always be opened.
func BuildMapping(defs []CLODef) (map[string]string, map[string]CloDetail) {
	if len(defs) == 0 {
		return DefaultMapping()
	}
	mapping := make(map[string]string, len(defs))
	details := make(map[string]CloDetail, len(defs))
	for _, d := range defs {
		key := CloKey(d.CloNumber)
		ploNumber := d.PloNumber
		if ploNumber < 1 || ploNumber > NumPLOs {
			// catalog rows with a bad PLO slot stay unmapped
			continue
		}
		mapping[key] = PLOLabel(ploNumber)
		details[key] = CloDetail{
			CloNumber:  d.CloNumber,
			PloNumber:  ploNumber,
			Fields:     []Field{},
			TotalMarks: map[string]string{},
		}
	}
	if len(mapping) == 0 {
		return DefaultMapping()
	}
	return mapping, details
}

// DefaultMapping is the fallback used when a subject has no CLO definitions.
func DefaultMapping() (map[string]string, map[string]CloDetail) {
	mapping := make(map[string]string, 3)
	details := make(map[string]CloDetail, 3)
	for i := 1; i <= 3; i++ {
		key := CloKey(i)
		mapping[key] = PLOLabel(i)
		details[key] = CloDetail{
			CloNumber:  i,
			PloNumber:  i,
			Fields:     []Field{},
			TotalMarks: map[string]string{},
		}
	}
	return mapping, details
}
