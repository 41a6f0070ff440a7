// Package retouch is a non-destructive photo editing engine.
//
// # Overview
//
// A Session owns one source image and the edits layered on top of it: a
// color filter, free-hand strokes, text overlays and a geometric transform.
// The source is never modified. Every committed edit recomposites a preview
// and records a snapshot in a linear undo history.
//
//	s, _ := retouch.NewSession()
//	defer s.Close()
//
//	img, _, _ := retouch.Decode(f)
//	s.LoadImage(img)
//
//	task, _ := s.ApplyFilter(ctx, retouch.FilterSepia)
//	task.Wait(ctx)
//
//	s.AddStroke([]retouch.Point{{X: 10, Y: 10}, {X: 80, Y: 40}}, retouch.Red, 4)
//	s.EndStroke()
//	s.AddText("Hello", retouch.FontDescriptor{Family: "Helvetica", Size: 32}, retouch.White)
//
//	s.Undo()
//	out, _ := s.ExportFlattened()
//
// # Filters
//
// Filters run in the background on a FilterEngine. Requests are last wins:
// a result that completes after a newer request is dropped. Filters always
// apply to the source image, so switching filters never stacks them.
//
// # History
//
// The history is linear. Committing after an undo discards the redo branch.
// Commits that do not change the state, as judged by the session's EqualFunc,
// are skipped. The default CoarseEqual compares overlay counts rather than
// content; use WithHistoryEquality(StrictEqual) to record every change.
//
// # Coordinate System
//
// Overlay coordinates are image pixels with the origin at the top-left and
// y growing down. The transform is applied to the composited image at render
// time, so overlay coordinates are not affected by it.
package retouch
