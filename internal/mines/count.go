package mines

// ComputeCounts stores the number of neighbouring mines in every non-mine
// cell. Mine cells keep [CountUnset].
func ComputeCounts(grid *Grid) {
	for i := range grid.cells {
		if grid.cells[i].Mine {
			continue
		}
		var v int8
		for _, q := range grid.Neighbors(grid.point(i)) {
			if grid.at(q).Mine {
				v++
			}
		}
		grid.cells[i].Count = v
	}
}
