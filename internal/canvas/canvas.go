// Package canvas implements the global composited bitmap B (spec §3, §4.5,
// §4.6): space-transparent blitting of per-worker fragments, and the
// top-to-bottom render used at completion.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package canvas

import "strings"

const space = ' '

// Canvas is the CANVAS_WIDTH x CANVAS_HEIGHT character grid, row-major,
// indexed [y][x], initialized to space.
type Canvas struct {
	W, H uint16
	rows [][]byte
}

func New(w, h uint16) *Canvas {
	rows := make([][]byte, h)
	for y := range rows {
		row := make([]byte, w)
		for x := range row {
			row[x] = space
		}
		rows[y] = row
	}
	return &Canvas{W: w, H: h, rows: rows}
}

// Blit writes pixels (row_count x total_width, row-major) into the canvas
// at (xOff+x, yOff+rowStart+y), applying the space-transparency rule: a
// non-space pixel replaces the current cell, a space pixel leaves it
// untouched. Any coordinate outside the canvas is silently dropped.
func (c *Canvas) Blit(xOff, yOff, rowStart, totalWidth, rowCount uint16, pixels []byte) {
	for y := uint16(0); y < rowCount; y++ {
		gy := int(yOff) + int(rowStart) + int(y)
		if gy < 0 || gy >= int(c.H) {
			continue
		}
		rowBase := int(y) * int(totalWidth)
		for x := uint16(0); x < totalWidth; x++ {
			gx := int(xOff) + int(x)
			if gx < 0 || gx >= int(c.W) {
				continue
			}
			idx := rowBase + int(x)
			if idx >= len(pixels) {
				continue
			}
			p := pixels[idx]
			if p == space {
				continue
			}
			c.rows[gy][gx] = p
		}
	}
}

// Cell returns the character at a global coordinate; out-of-bounds
// coordinates return space.
func (c *Canvas) Cell(x, y uint16) byte {
	if int(y) >= len(c.rows) || int(x) >= len(c.rows[y]) {
		return space
	}
	return c.rows[y][x]
}

// Render renders B scanning rows from highest Y to lowest Y, so the
// canvas's Y-up coordinate system matches visual top-to-bottom output
// (spec §4.6).
func (c *Canvas) Render() string {
	var sb strings.Builder
	for y := int(c.H) - 1; y >= 0; y-- {
		sb.Write(c.rows[y])
		sb.WriteByte('\n')
	}
	return sb.String()
}
