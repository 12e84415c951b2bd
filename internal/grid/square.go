package grid

import "math"

// squareNeighborOffsets is the 4-connectivity stencil for square cells.
var squareNeighborOffsets = [4][2]int{
	{1, 0},
	{-1, 0},
	{0, 1},
	{0, -1},
}

func (g *Grid) buildSquare() {
	side := math.Sqrt(g.cfg.CellArea)
	n := g.CellCount()

	g.centroids = make([][2]float64, n)
	g.neighbors = make([][]int, n)

	for cellID := 0; cellID < n; cellID++ {
		x, y := g.xy(cellID)
		g.centroids[cellID] = [2]float64{
			g.cfg.XOff + (float64(x)+0.5)*side,
			g.cfg.YOff + (float64(y)+0.5)*side,
		}
		for _, off := range squareNeighborOffsets {
			if nb := g.id(x+off[0], y+off[1]); nb >= 0 {
				g.neighbors[cellID] = append(g.neighbors[cellID], nb)
			}
		}
	}
}

// squareCorners returns the boundary polygon of a square cell, closed
// (first corner repeated last).
func (g *Grid) squareCorners(cellID int) [][2]float64 {
	side := math.Sqrt(g.cfg.CellArea)
	x, y := g.xy(cellID)
	x0 := g.cfg.XOff + float64(x)*side
	y0 := g.cfg.YOff + float64(y)*side
	return [][2]float64{
		{x0, y0},
		{x0 + side, y0},
		{x0 + side, y0 + side},
		{x0, y0 + side},
		{x0, y0},
	}
}
