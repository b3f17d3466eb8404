// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package parallel

import (
	"image"
	"slices"
	"sync"
	"testing"
)

func TestNewDirtyRegion_Invalid(t *testing.T) {
	if NewDirtyRegion(0, 5) != nil || NewDirtyRegion(5, -1) != nil {
		t.Error("NewDirtyRegion() with invalid size should return nil")
	}
}

func TestDirtyRegion_Mark(t *testing.T) {
	d := NewDirtyRegion(10, 10)
	if !d.IsEmpty() {
		t.Fatal("new region is not empty")
	}

	d.Mark(3, 7)
	d.Mark(-1, 0)
	d.Mark(10, 0)

	if !d.IsDirty(3, 7) {
		t.Error("IsDirty(3, 7) = false, want true")
	}
	if d.IsDirty(7, 3) {
		t.Error("IsDirty(7, 3) = true, want false")
	}
	if got := d.Count(); got != 1 {
		t.Errorf("Count() = %d, want 1", got)
	}
}

func TestDirtyRegion_MarkRangeClamps(t *testing.T) {
	d := NewDirtyRegion(4, 4)
	d.MarkRange(-2, 2, 10, 10)
	if got := d.Count(); got != 8 {
		t.Errorf("Count() = %d, want 8", got)
	}
}

func TestDirtyRegion_MarkAllPartialWord(t *testing.T) {
	// 100 cells span two words, the second one partially.
	d := NewDirtyRegion(10, 10)
	d.MarkAll()
	if got := d.Count(); got != 100 {
		t.Errorf("Count() = %d, want 100", got)
	}
}

func TestDirtyRegion_GetAndClear(t *testing.T) {
	d := NewDirtyRegion(70, 2)
	d.Mark(69, 1)
	d.Mark(1, 0)
	d.Mark(65, 0)

	got := d.GetAndClear()
	want := []image.Point{{1, 0}, {65, 0}, {69, 1}}
	if !slices.Equal(got, want) {
		t.Errorf("GetAndClear() = %v, want %v", got, want)
	}
	if !d.IsEmpty() {
		t.Error("region not empty after GetAndClear")
	}
}

func TestDirtyRegion_ConcurrentMark(t *testing.T) {
	d := NewDirtyRegion(64, 64)
	var wg sync.WaitGroup
	for y := range 64 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for x := range 64 {
				d.Mark(x, y)
			}
		}()
	}
	wg.Wait()
	if got := d.Count(); got != 64*64 {
		t.Errorf("Count() = %d, want %d", got, 64*64)
	}
}
