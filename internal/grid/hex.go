package grid

import "math"

// Odd-r offset neighbor stencils for pointy-top hexagons: odd rows are
// shifted half a hex to the right, so the diagonal offsets depend on row
// parity.
var (
	hexOffsetsEvenRow = [6][2]int{
		{1, 0}, {-1, 0},
		{0, 1}, {-1, 1},
		{0, -1}, {-1, -1},
	}
	hexOffsetsOddRow = [6][2]int{
		{1, 0}, {-1, 0},
		{1, 1}, {0, 1},
		{1, -1}, {0, -1},
	}
)

// hexSide returns the side length of a pointy-top hexagon with the
// configured cell area: area = (3*sqrt(3)/2) * side^2.
func (g *Grid) hexSide() float64 {
	return math.Sqrt(2 * g.cfg.CellArea / (3 * math.Sqrt(3)))
}

func (g *Grid) buildHex() {
	side := g.hexSide()
	width := math.Sqrt(3) * side
	rowStep := 1.5 * side
	n := g.CellCount()

	g.centroids = make([][2]float64, n)
	g.neighbors = make([][]int, n)

	for cellID := 0; cellID < n; cellID++ {
		x, y := g.xy(cellID)

		cx := g.cfg.XOff + (float64(x)+0.5)*width
		if y%2 == 1 {
			cx += width / 2
		}
		cy := g.cfg.YOff + side + float64(y)*rowStep
		g.centroids[cellID] = [2]float64{cx, cy}

		offsets := hexOffsetsEvenRow
		if y%2 == 1 {
			offsets = hexOffsetsOddRow
		}
		for _, off := range offsets {
			if nb := g.id(x+off[0], y+off[1]); nb >= 0 {
				g.neighbors[cellID] = append(g.neighbors[cellID], nb)
			}
		}
	}
}

// hexCorners returns the boundary polygon of a pointy-top hex cell, closed
// (first corner repeated last).
func (g *Grid) hexCorners(cellID int) [][2]float64 {
	side := g.hexSide()
	cx := g.centroids[cellID][0]
	cy := g.centroids[cellID][1]

	corners := make([][2]float64, 0, 7)
	for i := 0; i < 6; i++ {
		// Pointy-top: first corner at 30 degrees.
		angle := math.Pi / 180 * (60*float64(i) + 30)
		corners = append(corners, [2]float64{
			cx + side*math.Cos(angle),
			cy + side*math.Sin(angle),
		})
	}
	return append(corners, corners[0])
}
