// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package raster

import (
	"context"
	"fmt"
	"image"
	"sync/atomic"

	"github.com/gogpu/compositor/gfx"
	"github.com/gogpu/compositor/resource"
)

// TaskState is the lifecycle stage of a Task.
type TaskState int32

const (
	TaskPending TaskState = iota
	TaskRunning
	TaskFinished
)

// String returns the state name.
func (s TaskState) String() string {
	switch s {
	case TaskPending:
		return "pending"
	case TaskRunning:
		return "running"
	case TaskFinished:
		return "finished"
	default:
		return fmt.Sprintf("TaskState(%d)", int32(s))
	}
}

// TaskSpec describes the work of one raster task.
type TaskSpec struct {
	// TileKey identifies the requesting tile to the completion handler.
	TileKey uint64

	// Rect is the tile rectangle in scaled content space.
	Rect image.Rectangle

	// Scale is the contents scale the tile is rasterized at.
	Scale float64

	// Priority orders queued tasks; lower values run first.
	Priority int

	// Source is the content to rasterize.
	Source Source
}

var taskIDs atomic.Uint64

// Task rasterizes one tile into a resource.
//
// The task holds its resource from submission until its Result is
// delivered; the completion handler then owns it. A task is run at most once.
type Task struct {
	id       uint64
	spec     TaskSpec
	resource *resource.Resource
	state    atomic.Int32
}

// NewTask creates a task writing into res. res may be nil only when the
// source can prove the tile solid without rasterizing.
func NewTask(spec TaskSpec, res *resource.Resource) *Task {
	return &Task{
		id:       taskIDs.Add(1),
		spec:     spec,
		resource: res,
	}
}

// ID returns a process-unique task identifier.
func (t *Task) ID() uint64 { return t.id }

// TileKey returns the key of the tile the task rasterizes.
func (t *Task) TileKey() uint64 { return t.spec.TileKey }

// Rect returns the tile rectangle in scaled content space.
func (t *Task) Rect() image.Rectangle { return t.spec.Rect }

// Priority returns the scheduling priority; lower runs first.
func (t *Task) Priority() int { return t.spec.Priority }

// Resource returns the resource the task writes into.
func (t *Task) Resource() *resource.Resource { return t.resource }

// State returns the current lifecycle stage.
func (t *Task) State() TaskState { return TaskState(t.state.Load()) }

// Result is the outcome of a task, delivered exactly once.
type Result struct {
	Task    *Task
	TileKey uint64

	// Resource is the task's resource, handed back to the completion
	// handler in every outcome so it can be kept or recycled.
	Resource *resource.Resource

	// IsSolidColor reports the tile is a single flat SolidColor; the
	// resource content is then irrelevant.
	IsSolidColor bool
	SolidColor   gfx.Color

	// Err is non-nil when rasterization failed.
	Err error
}

// Run rasterizes the tile. It is called by a Scheduler on a worker
// goroutine; running a task twice panics.
func (t *Task) Run(ctx context.Context) Result {
	if !t.state.CompareAndSwap(int32(TaskPending), int32(TaskRunning)) {
		panic(fmt.Sprintf("raster: task %d run twice", t.id))
	}
	defer t.state.Store(int32(TaskFinished))

	res := Result{Task: t, TileKey: t.spec.TileKey, Resource: t.resource}

	rect := t.spec.Rect
	if rect.Empty() {
		res.Err = ErrEmptyRect
		return res
	}

	if a, ok := t.spec.Source.(SolidColorAnalyzer); ok {
		if c, solid := a.SolidColorIn(rect, t.spec.Scale); solid {
			res.IsSolidColor = true
			res.SolidColor = c
			return res
		}
	}

	if t.resource == nil || t.resource.Pixels() == nil {
		res.Err = ErrNoBacking
		return res
	}
	pix := t.resource.Pixels()
	if pix.Bounds().Size() != rect.Size() {
		res.Err = fmt.Errorf("%w: resource %v, tile %v", ErrSizeMismatch, pix.Bounds().Size(), rect.Size())
		return res
	}

	if err := t.spec.Source.Raster(ctx, pix, rect, t.spec.Scale); err != nil {
		res.Err = fmt.Errorf("raster: tile %v: %w", rect, err)
		return res
	}

	if c, solid := AnalyzeSolidColor(pix); solid {
		res.IsSolidColor = true
		res.SolidColor = c
		return res
	}

	if resource.OrderOf(t.resource.Format()) == resource.OrderBGRA {
		resource.SwapRedBlue(pix)
	}
	return res
}
