package blur

import "sync"

// DefaultTileRows is the tile height used when a Filter does not set one.
const DefaultTileRows = 64

// Tile is a horizontal band of rows handed to one worker.
type Tile struct {
	Y    int
	Rows int
}

// runTiles calls fn for every band of rows in [0, height). With more than
// one worker the bands are processed concurrently and runTiles returns once
// all of them are done.
func runTiles(height, workers, tileRows int, fn func(y0, y1 int)) {
	if workers < 2 || height <= 1 {
		fn(0, height)
		return
	}
	if tileRows <= 0 {
		tileRows = DefaultTileRows
	}

	tileQueue := make(chan Tile, workers)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for tile := range tileQueue {
				fn(tile.Y, tile.Y+tile.Rows)
			}
		}()
	}

	for y := 0; y < height; y += tileRows {
		rows := tileRows
		if y+rows > height {
			rows = height - y
		}
		tileQueue <- Tile{Y: y, Rows: rows}
	}
	close(tileQueue)

	wg.Wait()
}
