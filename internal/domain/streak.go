package domain

// PrevLossStreaks devuelve, para cada trade, la longitud de la racha de pérdidas
// consecutivas que terminó en el trade ANTERIOR. El primer trade recibe 0, y también
// cualquier trade cuyo anterior no fue una pérdida.
//
//	pl:      -1  -1  -1  +1  -1
//	racha:    1   2   3   0   1
//	result:   0   1   2   3   0
func PrevLossStreaks(trades []Trade) []int {
	out := make([]int, len(trades))
	run := 0
	for i, t := range trades {
		out[i] = run
		if t.IsLoss() {
			run++
		} else {
			run = 0
		}
	}
	return out
}

// LossStreaks devuelve la longitud de cada racha máxima de pérdidas, en orden.
func LossStreaks(trades []Trade) []int {
	var streaks []int
	run := 0
	for _, t := range trades {
		if t.IsLoss() {
			run++
			continue
		}
		if run > 0 {
			streaks = append(streaks, run)
		}
		run = 0
	}
	if run > 0 {
		streaks = append(streaks, run)
	}
	return streaks
}
