package game

// PotManager tracks the chips wagered in the current hand. It holds a list
// of pot totals so side-pot splitting can be layered on later, but today
// every chip goes into the main pot at index 0.
type PotManager struct {
	pots []int
}

// NewPotManager creates a pot manager with an empty main pot.
func NewPotManager() *PotManager {
	return &PotManager{pots: []int{0}}
}

// Add moves chips into the main pot.
func (pm *PotManager) Add(amount int) {
	if amount > 0 {
		pm.pots[0] += amount
	}
}

// Total returns the sum across all pots.
func (pm *PotManager) Total() int {
	total := 0
	for _, pot := range pm.pots {
		total += pot
	}
	return total
}

// Pots returns a copy of the per-pot totals.
func (pm *PotManager) Pots() []int {
	out := make([]int, len(pm.pots))
	copy(out, pm.pots)
	return out
}

// Reset clears all pots back to a single empty main pot.
func (pm *PotManager) Reset() {
	pm.pots = pm.pots[:0]
	pm.pots = append(pm.pots, 0)
}
