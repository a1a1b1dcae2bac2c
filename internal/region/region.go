// Package region implements the fixed 2x2 quadrant allocator (spec §4.3).
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package region

// Bounds is a worker's assigned rectangle on the global canvas.
type Bounds struct {
	XMin, XMax uint16
	YMin, YMax uint16
}

// Assign returns W[i]'s rectangle given the canvas dimensions. Assignment
// is pure and total over i in {0,1,2,3}: left/right by i mod 2, top/bottom
// by i < 2 (top = higher Y).
func Assign(i int, canvasW, canvasH uint16) Bounds {
	halfW := canvasW / 2
	halfH := canvasH / 2
	b := Bounds{}
	if i%2 == 0 {
		b.XMin, b.XMax = 0, halfW
	} else {
		b.XMin, b.XMax = halfW, halfW+halfW
	}
	if i < 2 {
		b.YMin, b.YMax = halfH, halfH+halfH
	} else {
		b.YMin, b.YMax = 0, halfH
	}
	return b
}

// AllFour returns the four regions in registration-index order, for
// tiling/partition checks.
func AllFour(canvasW, canvasH uint16) [4]Bounds {
	var out [4]Bounds
	for i := 0; i < 4; i++ {
		out[i] = Assign(i, canvasW, canvasH)
	}
	return out
}
