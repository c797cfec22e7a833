package character

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// timeline plays a 0..1 curve over a fixed duration, optionally after a
// start delay and optionally looping.
type timeline struct {
	tween *gween.Tween
	delay float32
	loop  bool
	shape func(float32) float32
}

// newTransitionTimeline ramps from 0 to 1 along the configured easing.
func newTransitionTimeline(s TransitionSettings) *timeline {
	fn, err := Easing(s.Easing)
	if err != nil {
		fn = ease.Linear
	}
	return &timeline{
		tween: gween.New(0, 1, s.Duration, fn),
		delay: s.StartDelay,
		shape: func(v float32) float32 { return v },
	}
}

// newEmotionTimeline rises from 0 to 1 at the midpoint and falls back to 0,
// easing each half.
func newEmotionTimeline(s EmotionSettings) *timeline {
	fn, err := Easing(s.Easing)
	if err != nil {
		fn = ease.Linear
	}
	return &timeline{
		tween: gween.New(0, 1, s.Duration, ease.Linear),
		loop:  s.Loop,
		shape: func(t float32) float32 {
			if t <= 0.5 {
				return fn(t*2, 0, 1, 1)
			}
			return fn((1-t)*2, 0, 1, 1)
		},
	}
}

// advance moves the timeline by dt. started is false while the start
// delay is pending. finished is true when a pass completed; looping
// timelines rewind and keep going.
func (tl *timeline) advance(dt float32) (value float32, started, finished bool) {
	if tl.delay > 0 {
		tl.delay -= dt
		if tl.delay > 0 {
			return 0, false, false
		}
		dt = -tl.delay
		tl.delay = 0
	}

	cur, done := tl.tween.Update(dt)
	value = tl.shape(cur)
	if done && tl.loop {
		tl.tween.Reset()
	}
	return value, true, done
}
