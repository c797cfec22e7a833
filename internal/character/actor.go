package character

import (
	"math/rand"

	"go.uber.org/zap"

	"github.com/Faultbox/character2d/internal/logger"
	"github.com/Faultbox/character2d/pkg/math"
)

// Effect constants.
const (
	minScale       = 0.001
	shakeAmplitude = 10
	pulseAmount    = 0.2
	bounceHeight   = 50
	doubleBlink    = 0.25
	// skeletal parts are hidden below this opacity; they have no fade.
	skeletalCutoff = 0.1
)

var (
	white = math.Vec4{X: 1, Y: 1, Z: 1, W: 1}
	black = math.Vec4{W: 1}
)

// FlipbookState is the visible state of a flipbook component.
type FlipbookState struct {
	Visible bool
	Frame   int
}

// Visual is a snapshot of everything a renderer needs to draw the actor.
type Visual struct {
	Hidden   bool
	Location math.Vec3
	Scale    math.Vec3
	// Tint is the sprite color; W is the sprite opacity.
	Tint math.Vec4

	SpritesVisible  bool
	SkeletalVisible bool

	// StaticEyelids and StaticMouth report whether the still sprite is
	// shown in place of its flipbook.
	StaticEyelids bool
	StaticMouth   bool
	Eyelids       FlipbookState
	Mouth         FlipbookState
}

type transitionRun struct {
	kind      TransitionType
	tl        *timeline
	slideFrom math.Vec3
	slideTo   math.Vec3
}

type emotionRun struct {
	kind       EmotionType
	settings   EmotionSettings
	tl         *timeline
	shakeTimer float32
}

type blinkState struct {
	active  bool // requested by EnableBlinking
	running bool
	playing bool
	wait    float32
	elapsed float32
	rate    float32
	length  float32
}

type talkState struct {
	active  bool
	running bool
	elapsed float32
}

// Actor is the runtime state machine of one character. It has no clock of
// its own: Advance moves every running animation forward.
type Actor struct {
	asset *Asset
	rng   *rand.Rand
	log   *zap.Logger

	hidden          bool
	location        math.Vec3
	scale           math.Vec3
	tint            math.Vec4
	skeletalOpacity float32
	spritesVisible  bool
	skeletalVisible bool

	origLocation math.Vec3
	origScale    math.Vec3
	origTint     math.Vec4

	transition *transitionRun
	emotion    *emotionRun
	blink      blinkState
	talk       talkState

	// OnTransitionFinished is called with the type of each transition
	// that completes.
	OnTransitionFinished func(TransitionType)
	// OnEmotionFinished is called when an emotion ends or is stopped.
	OnEmotionFinished func(EmotionType)
}

// NewActor places an actor for asset at location. rng drives shake, blink
// timing and double blinks; pass a seeded source for reproducible runs.
func NewActor(asset *Asset, location math.Vec3, rng *rand.Rand) *Actor {
	if asset == nil {
		asset = DefaultAsset()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	a := &Actor{
		asset:           asset,
		rng:             rng,
		log:             logger.Named("actor").With(zap.String("character", asset.Name)),
		location:        location,
		scale:           math.Splat(1),
		tint:            white,
		skeletalOpacity: 1,
	}
	a.storeOriginalValues()
	// Without dual rendering the skeletal mesh wins when both exist.
	a.SetSpritesVisible(asset.DualRendering || !asset.HasSkeletal())
	a.SetSkeletalVisible(asset.DualRendering || asset.HasSkeletal())
	return a
}

// Begin starts the asset's automatic behaviour: the entrance transition
// and blinking or talking when enabled.
func (a *Actor) Begin() {
	if a.asset.VisualNovel.AutoPlayEntrance {
		a.PlayTransitionWithDefaults(a.asset.VisualNovel.EntranceType)
	}
	a.EnableBlinking(a.asset.AutoBlink)
	a.EnableTalking(a.asset.AutoTalk)
}

// SetLocation moves the actor and makes the location its rest position.
func (a *Actor) SetLocation(v math.Vec3) {
	a.location = v
	a.origLocation = v
}

// InTransition reports whether a transition is running.
func (a *Actor) InTransition() bool { return a.transition != nil }

// PlayingEmotion reports whether an emotion is running.
func (a *Actor) PlayingEmotion() bool { return a.emotion != nil }

// IsBlinking reports whether the blink scheduler runs.
func (a *Actor) IsBlinking() bool { return a.blink.running }

// IsTalking reports whether the mouth flipbook plays.
func (a *Actor) IsTalking() bool { return a.talk.running }

// Hidden reports whether the actor is hidden in game.
func (a *Actor) Hidden() bool { return a.hidden }

// PlayTransition starts a transition. A transition already running is
// abandoned and the rest values are restored first.
func (a *Actor) PlayTransition(kind TransitionType, s TransitionSettings) {
	if a.transition != nil {
		a.transition = nil
		a.restoreOriginalValues()
	}
	s.Sanitize()

	run := &transitionRun{kind: kind, tl: newTransitionTimeline(s)}
	switch kind {
	case TransitionFadeIn:
		a.setOpacity(0)
		a.skeletalOpacity = 0
		a.hidden = false
	case TransitionFadeOut:
	case TransitionSlideInLeft, TransitionSlideInRight:
		run.slideFrom = a.origLocation.Add(slideOffset(kind, s.SlideDistance))
		a.location = run.slideFrom
		a.hidden = false
	case TransitionSlideOutLeft, TransitionSlideOutRight:
		run.slideTo = a.origLocation.Add(slideOffset(kind, s.SlideDistance))
	case TransitionScaleIn:
		a.scale = math.Splat(minScale)
		a.hidden = false
	case TransitionScaleOut:
	default:
		return
	}

	a.transition = run
	a.log.Debug("transition started",
		zap.String("type", string(kind)),
		zap.Float32("duration", s.Duration),
		zap.Float32("delay", s.StartDelay))
}

// slideOffset moves along Y: left slides come from or go to negative Y.
func slideOffset(kind TransitionType, distance float32) math.Vec3 {
	if kind == TransitionSlideInLeft || kind == TransitionSlideOutLeft {
		return math.Vec3{Y: -distance}
	}
	return math.Vec3{Y: distance}
}

// PlayTransitionWithDefaults plays kind with the asset's appearance or
// disappearance settings.
func (a *Actor) PlayTransitionWithDefaults(kind TransitionType) {
	s := a.asset.VisualNovel.Appearance
	if kind.Disappears() {
		s = a.asset.VisualNovel.Disappearance
	}
	a.PlayTransition(kind, s)
}

// PlayFadeIn fades the actor in over duration seconds.
func (a *Actor) PlayFadeIn(duration float32) {
	s := DefaultTransitionSettings()
	s.Duration = duration
	a.PlayTransition(TransitionFadeIn, s)
}

// PlayFadeOut fades the actor out over duration seconds.
func (a *Actor) PlayFadeOut(duration float32) {
	s := DefaultTransitionSettings()
	s.Duration = duration
	a.PlayTransition(TransitionFadeOut, s)
}

func (a *Actor) updateTransition(v float32) {
	run := a.transition
	switch run.kind {
	case TransitionFadeIn:
		a.hidden = false
		a.setOpacity(v)
		a.skeletalOpacity = v
	case TransitionFadeOut:
		a.setOpacity(1 - v)
		a.skeletalOpacity = 1 - v
		if v >= 1 {
			a.hidden = true
		}
	case TransitionSlideInLeft, TransitionSlideInRight:
		a.hidden = false
		a.location = run.slideFrom.Lerp(a.origLocation, v)
	case TransitionSlideOutLeft, TransitionSlideOutRight:
		a.location = a.origLocation.Lerp(run.slideTo, v)
		if v >= 1 {
			a.hidden = true
		}
	case TransitionScaleIn:
		a.hidden = false
		a.scale = math.Splat(max(v, minScale))
	case TransitionScaleOut:
		a.scale = math.Splat(max(1-v, minScale))
		if v >= 1 {
			a.hidden = true
		}
	}
}

func (a *Actor) finishTransition() {
	kind := a.transition.kind
	a.transition = nil

	if kind.Disappears() {
		a.hidden = true
	} else {
		a.hidden = false
		a.setOpacity(1)
		a.skeletalOpacity = 1
		a.location = a.origLocation
		a.scale = a.origScale
	}

	a.log.Debug("transition finished", zap.String("type", string(kind)))
	if a.OnTransitionFinished != nil {
		a.OnTransitionFinished(kind)
	}
}

// PlayEmotion starts an emotion effect, stopping the current one first.
// EmotionNone only stops.
func (a *Actor) PlayEmotion(kind EmotionType, s EmotionSettings) {
	if a.emotion != nil {
		a.StopCurrentEmotion()
	}
	if kind == EmotionNone || kind == "" {
		return
	}
	if _, err := ParseEmotion(string(kind)); err != nil {
		a.log.Warn("ignoring emotion", zap.Error(err))
		return
	}
	s.Sanitize()

	a.emotion = &emotionRun{kind: kind, settings: s, tl: newEmotionTimeline(s)}
	a.log.Debug("emotion started",
		zap.String("type", string(kind)),
		zap.Float32("intensity", s.Intensity),
		zap.Bool("loop", s.Loop))
}

// PlayEmotionWithDefaults plays kind with the asset's emotion settings.
func (a *Actor) PlayEmotionWithDefaults(kind EmotionType) {
	a.PlayEmotion(kind, a.asset.VisualNovel.Emotion)
}

// StopCurrentEmotion aborts the running emotion, restores the rest values
// and reports the emotion as finished.
func (a *Actor) StopCurrentEmotion() {
	if a.emotion == nil {
		return
	}
	kind := a.emotion.kind
	a.emotion = nil
	a.restoreOriginalValues()

	a.log.Debug("emotion finished", zap.String("type", string(kind)))
	if a.OnEmotionFinished != nil {
		a.OnEmotionFinished(kind)
	}
}

func (a *Actor) updateEmotion(v, dt float32) {
	run := a.emotion
	i := run.settings.Intensity

	switch run.kind {
	case EmotionShake:
		// A new offset is picked ShakeFrequency times per second.
		run.shakeTimer -= dt
		if run.shakeTimer > 0 {
			return
		}
		run.shakeTimer = 1 / run.settings.ShakeFrequency
		amount := v * i * shakeAmplitude
		a.location = a.origLocation.Add(math.Vec3{
			X: a.randRange(-amount, amount),
			Y: a.randRange(-amount, amount),
			Z: a.randRange(-amount, amount),
		})
	case EmotionPulse:
		a.scale = a.origScale.Scale(1 + v*i*pulseAmount)
	case EmotionColorShift:
		c := run.settings.TargetColor
		a.tint = white.Lerp(math.Vec4{X: c[0], Y: c[1], Z: c[2], W: c[3]}, v*i)
	case EmotionBounce:
		a.location = a.origLocation.Add(math.Vec3{Z: v * i * bounceHeight})
	case EmotionFlash:
		if v > 0.5 {
			a.setOpacity(1)
		} else {
			a.setOpacity(0.3 + 0.7*i)
		}
	case EmotionDarken:
		a.setColor(a.origTint.Lerp(black, v*i))
	case EmotionBrighten:
		// Over-bright tint: channels may exceed 1.
		a.setColor(a.origTint.Lerp(white, v*i).Scale(1 + v*i))
	}
}

// SetSpritesVisible shows or hides the sprite presentation. Flipbooks stay
// hidden while their animation is not running.
func (a *Actor) SetSpritesVisible(visible bool) {
	a.spritesVisible = visible
}

// SetSkeletalVisible shows or hides the skeletal presentation.
func (a *Actor) SetSkeletalVisible(visible bool) {
	a.skeletalVisible = visible
}

// SetBothVisible sets both presentations at once.
func (a *Actor) SetBothVisible(sprites, skeletal bool) {
	a.SetSpritesVisible(sprites)
	a.SetSkeletalVisible(skeletal)
}

// AppearInstantly cancels any transition and shows the actor at rest.
func (a *Actor) AppearInstantly() {
	a.transition = nil
	a.hidden = false
	a.skeletalOpacity = 1
	a.location = a.origLocation
	a.scale = a.origScale
	a.restoreOriginalValues()
}

// DisappearInstantly cancels transitions and emotions and hides the actor.
func (a *Actor) DisappearInstantly() {
	a.transition = nil
	a.StopCurrentEmotion()
	a.hidden = true
}

// AppearWithDefaultTransition plays the asset's entrance transition.
func (a *Actor) AppearWithDefaultTransition() {
	a.PlayTransitionWithDefaults(a.asset.VisualNovel.EntranceType)
}

// DisappearWithDefaultTransition fades out with the disappearance settings.
func (a *Actor) DisappearWithDefaultTransition() {
	a.PlayTransitionWithDefaults(TransitionFadeOut)
}

// EnableBlinking turns the blink scheduler on or off. The change only
// takes effect while sprites are visible.
func (a *Actor) EnableBlinking(enable bool) {
	a.blink.active = enable
	if !a.spritesVisible {
		return
	}
	if enable && !a.blink.running {
		a.startBlinking()
	} else if !enable && a.blink.running {
		a.stopBlinking()
	}
}

// EnableTalking turns the looping mouth flipbook on or off. The change
// only takes effect while sprites are visible.
func (a *Actor) EnableTalking(enable bool) {
	a.talk.active = enable
	if !a.spritesVisible {
		return
	}
	if enable && !a.talk.running {
		a.startTalking()
	} else if !enable && a.talk.running {
		a.stopTalking()
	}
}

func (a *Actor) startBlinking() {
	if !a.asset.Blink.Flipbook.Valid() {
		a.log.Debug("blinking unavailable: no blink flipbook")
		return
	}
	a.blink.running = true
	a.scheduleBlink()
}

func (a *Actor) stopBlinking() {
	a.blink = blinkState{active: a.blink.active}
}

func (a *Actor) scheduleBlink() {
	s := a.asset.Blink
	a.blink.playing = false
	a.blink.wait = a.randRange(s.IntervalMin, s.IntervalMax)
}

func (a *Actor) playBlink() {
	s := a.asset.Blink
	a.blink.playing = true
	a.blink.elapsed = 0
	a.blink.rate = a.randRange(s.PlayRateMin, s.PlayRateMax)
	a.blink.length = s.Flipbook.TotalDuration() / a.blink.rate
}

func (a *Actor) updateBlink(dt float32) {
	b := &a.blink
	if !b.running {
		return
	}
	if !b.playing {
		b.wait -= dt
		if b.wait <= 0 {
			a.playBlink()
		}
		return
	}
	b.elapsed += dt
	if b.elapsed < b.length {
		return
	}
	if a.rng.Float32() < doubleBlink {
		a.playBlink()
		return
	}
	a.scheduleBlink()
}

func (a *Actor) startTalking() {
	if !a.asset.Talk.Flipbook.Valid() {
		a.log.Debug("talking unavailable: no talk flipbook")
		return
	}
	a.talk.running = true
	a.talk.elapsed = 0
}

func (a *Actor) stopTalking() {
	a.talk.running = false
	a.talk.elapsed = 0
}

// Advance moves every running animation forward by dt seconds and returns
// the resulting visual state.
func (a *Actor) Advance(dt float32) Visual {
	if dt < 0 {
		dt = 0
	}

	if a.transition != nil {
		if v, started, done := a.transition.tl.advance(dt); started {
			a.updateTransition(v)
			if done {
				a.finishTransition()
			}
		}
	}

	if a.emotion != nil {
		v, _, done := a.emotion.tl.advance(dt)
		a.updateEmotion(v, dt)
		if done && !a.emotion.settings.Loop {
			a.StopCurrentEmotion()
		}
	}

	a.updateBlink(dt)
	if a.talk.running {
		a.talk.elapsed += dt * a.asset.Talk.PlayRate
	}

	return a.Visual()
}

// Visual returns the current visual state without advancing time.
func (a *Actor) Visual() Visual {
	v := Visual{
		Hidden:          a.hidden,
		Location:        a.location,
		Scale:           a.scale,
		Tint:            a.tint,
		SpritesVisible:  a.spritesVisible,
		SkeletalVisible: a.skeletalVisible && a.skeletalOpacity > skeletalCutoff,
		StaticEyelids:   a.spritesVisible && !a.blink.playing,
		StaticMouth:     a.spritesVisible && !a.talk.running,
	}
	if a.blink.playing {
		v.Eyelids = FlipbookState{
			Visible: a.spritesVisible,
			Frame:   a.asset.Blink.Flipbook.FrameAt(a.blink.elapsed*a.blink.rate, false),
		}
	}
	if a.talk.running {
		v.Mouth = FlipbookState{
			Visible: a.spritesVisible,
			Frame:   a.asset.Talk.Flipbook.FrameAt(a.talk.elapsed, true),
		}
	}
	return v
}

func (a *Actor) storeOriginalValues() {
	a.origLocation = a.location
	a.origScale = a.scale
	a.origTint = a.tint
}

// restoreOriginalValues puts back the rest tint and, outside transitions,
// the rest location and scale.
func (a *Actor) restoreOriginalValues() {
	if a.transition == nil {
		a.location = a.origLocation
		a.scale = a.origScale
	}
	a.tint = a.origTint
}

func (a *Actor) setOpacity(o float32) {
	a.tint.W = math.Clamp(o, 0, 1)
}

func (a *Actor) setColor(c math.Vec4) {
	a.tint = math.Vec4{X: c.X, Y: c.Y, Z: c.Z, W: a.tint.W}
}

func (a *Actor) randRange(lo, hi float32) float32 {
	return lo + a.rng.Float32()*(hi-lo)
}
