package ui

import (
	"context"
	"errors"
	"testing"
)

func TestReplaysSupersededFinish(t *testing.T) {
	var r replays
	oldCtx, oldGen := r.start()
	newCtx, newGen := r.start()

	if !errors.Is(oldCtx.Err(), context.Canceled) {
		t.Error("starting a replay left the previous one running")
	}
	// The old goroutine returns after the new replay began.
	if r.finish(oldGen) {
		t.Error("finish of a superseded replay reported current")
	}
	if !r.running() || newCtx.Err() != nil {
		t.Error("superseded finish stopped the new replay")
	}
	if r.current(oldGen) || !r.current(newGen) {
		t.Errorf("current(old)=%v current(new)=%v", r.current(oldGen), r.current(newGen))
	}

	if !r.finish(newGen) {
		t.Error("finish of the latest replay reported stale")
	}
	if r.running() {
		t.Error("running after the latest replay finished")
	}
}

func TestReplaysStop(t *testing.T) {
	var r replays
	ctx, gen := r.start()
	r.stop()
	if !errors.Is(ctx.Err(), context.Canceled) {
		t.Error("stop did not cancel the replay")
	}
	if r.running() {
		t.Error("running after stop")
	}
	if !r.finish(gen) {
		t.Error("a stopped replay should still own its final status")
	}
	r.stop() // no replay: no-op
}
