package outcome

import "testing"

func TestBuildMapping_FromCatalogDefs(t *testing.T) {
	defs := []CLODef{
		{CloNumber: 1, PloNumber: 1},
		{CloNumber: 2, PloNumber: 2},
	}
	mapping, details := BuildMapping(defs)
	if mapping["clo1"] != "PLO 1" || mapping["clo2"] != "PLO 2" {
		t.Fatalf("unexpected mapping: %v", mapping)
	}
	if details["clo1"].CloNumber != 1 {
		t.Fatalf("expected cloDetails.clo1.cloNumber == 1, got %+v", details["clo1"])
	}
}

func TestBuildMapping_DefaultFallback(t *testing.T) {
	mapping, details := BuildMapping(nil)
	if len(mapping) != 3 {
		t.Fatalf("expected 3-CLO default, got %v", mapping)
	}
	for i := 1; i <= 3; i++ {
		key := CloKey(i)
		if mapping[key] != PLOLabel(i) {
			t.Fatalf("default slot %s wrong: %v", key, mapping)
		}
		if details[key].PloNumber != i {
			t.Fatalf("default detail %s wrong: %+v", key, details[key])
		}
	}
}

func TestBuildMapping_SkipsBadPLOSlots(t *testing.T) {
	defs := []CLODef{
		{CloNumber: 1, PloNumber: 0},  // unmapped
		{CloNumber: 2, PloNumber: 13}, // out of range
		{CloNumber: 3, PloNumber: 4},
	}
	mapping, _ := BuildMapping(defs)
	if len(mapping) != 1 || mapping["clo3"] != "PLO 4" {
		t.Fatalf("expected only clo3 mapped, got %v", mapping)
	}
}

func TestBuildMapping_AllBadFallsBackToDefault(t *testing.T) {
	mapping, _ := BuildMapping([]CLODef{{CloNumber: 1, PloNumber: 0}})
	if len(mapping) != 3 {
		t.Fatalf("expected default fallback, got %v", mapping)
	}
}
