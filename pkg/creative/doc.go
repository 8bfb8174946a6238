// Package creative defines the in-memory model of a retail-media creative as the
// compliance engine sees it: the current output format, the ordered drawing elements
// and the evaluation context supplied by the host editor.
//
// The model is a read-only snapshot. Hosts build a Snapshot (directly, from JSON, or
// through FromHostObjects), validate it with Snapshot.Validate and hand it to the
// engine. Nothing in this package or its consumers mutates a snapshot after it has
// been handed over; Normalize returns a copy with defaults filled in.
//
// # Geometry
//
// Element coordinates are canvas pixels with the origin at the top-left corner.
// Bounds returns the axis-aligned rectangle of the scaled element; rotated elements
// use the bounding box of the rotated rectangle. Overlap tests use strict inequality,
// so touching edges never overlap and zero-sized rectangles never overlap anything.
package creative
