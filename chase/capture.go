package chase

// Detect removes every adversary whose Manhattan distance to the closest
// agent is at most catchDistance. Survivors keep their order. The input
// slices are not modified.
func Detect(agents, adversaries []Position, catchDistance float64) ([]Position, int) {
	survivors := make([]Position, 0, len(adversaries))
	for _, adv := range adversaries {
		caught := false
		for _, a := range agents {
			if Manhattan(adv, a) <= catchDistance {
				caught = true
				break
			}
		}
		if !caught {
			survivors = append(survivors, adv)
		}
	}
	return survivors, len(adversaries) - len(survivors)
}
