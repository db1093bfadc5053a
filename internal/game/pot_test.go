package game

import "testing"

func TestPotManager(t *testing.T) {
	t.Parallel()
	pm := NewPotManager()

	pm.Add(30)
	pm.Add(20)
	pm.Add(0)
	pm.Add(-5) // ignored

	if pm.Total() != 50 {
		t.Errorf("total = %d, want 50", pm.Total())
	}

	pots := pm.Pots()
	if len(pots) != 1 || pots[0] != 50 {
		t.Errorf("pots = %v, want [50]", pots)
	}

	// Returned slice is a copy.
	pots[0] = 999
	if pm.Total() != 50 {
		t.Error("mutating the returned slice changed the pot")
	}

	pm.Reset()
	if pm.Total() != 0 {
		t.Errorf("total after reset = %d, want 0", pm.Total())
	}
}
