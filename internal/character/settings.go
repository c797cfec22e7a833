// Package character drives a baked 2D character at runtime: entrance and
// exit transitions, emotion effects, and the blink and talk flipbooks.
package character

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/tanema/gween/ease"
	"gopkg.in/yaml.v3"
)

// Setting errors.
var (
	ErrUnknownTransition = errors.New("unknown transition")
	ErrUnknownEmotion    = errors.New("unknown emotion")
	ErrUnknownEasing     = errors.New("unknown easing")
)

// TransitionType is an appearance or disappearance animation.
type TransitionType string

// Transition types.
const (
	TransitionNone          TransitionType = "none"
	TransitionFadeIn        TransitionType = "fade_in"
	TransitionFadeOut       TransitionType = "fade_out"
	TransitionSlideInLeft   TransitionType = "slide_in_left"
	TransitionSlideInRight  TransitionType = "slide_in_right"
	TransitionSlideOutLeft  TransitionType = "slide_out_left"
	TransitionSlideOutRight TransitionType = "slide_out_right"
	TransitionScaleIn       TransitionType = "scale_in"
	TransitionScaleOut      TransitionType = "scale_out"
)

var transitionTypes = []TransitionType{
	TransitionNone, TransitionFadeIn, TransitionFadeOut,
	TransitionSlideInLeft, TransitionSlideInRight,
	TransitionSlideOutLeft, TransitionSlideOutRight,
	TransitionScaleIn, TransitionScaleOut,
}

// ParseTransition parses a transition name.
func ParseTransition(s string) (TransitionType, error) {
	t := TransitionType(normalizeName(s))
	for _, known := range transitionTypes {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTransition, s)
}

// Disappears reports whether the transition ends with the actor hidden.
func (t TransitionType) Disappears() bool {
	switch t {
	case TransitionFadeOut, TransitionSlideOutLeft, TransitionSlideOutRight, TransitionScaleOut:
		return true
	}
	return false
}

// EmotionType is a short expressive effect layered over the actor.
type EmotionType string

// Emotion effects.
const (
	EmotionNone       EmotionType = "none"
	EmotionShake      EmotionType = "shake"
	EmotionPulse      EmotionType = "pulse"
	EmotionColorShift EmotionType = "color_shift"
	EmotionBounce     EmotionType = "bounce"
	EmotionFlash      EmotionType = "flash"
	EmotionDarken     EmotionType = "darken"
	EmotionBrighten   EmotionType = "brighten"
)

var emotionTypes = []EmotionType{
	EmotionNone, EmotionShake, EmotionPulse, EmotionColorShift,
	EmotionBounce, EmotionFlash, EmotionDarken, EmotionBrighten,
}

// ParseEmotion parses an emotion name.
func ParseEmotion(s string) (EmotionType, error) {
	e := EmotionType(normalizeName(s))
	for _, known := range emotionTypes {
		if e == known {
			return e, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEmotion, s)
}

func normalizeName(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
}

var easings = map[string]ease.TweenFunc{
	"linear":       ease.Linear,
	"in_quad":      ease.InQuad,
	"out_quad":     ease.OutQuad,
	"in_out_quad":  ease.InOutQuad,
	"in_cubic":     ease.InCubic,
	"out_cubic":    ease.OutCubic,
	"in_out_cubic": ease.InOutCubic,
	"in_sine":      ease.InSine,
	"out_sine":     ease.OutSine,
	"in_out_sine":  ease.InOutSine,
	"out_back":     ease.OutBack,
	"out_bounce":   ease.OutBounce,
	"out_elastic":  ease.OutElastic,
}

// Easing returns the tween function registered under name. An empty name
// is linear.
func Easing(name string) (ease.TweenFunc, error) {
	if name == "" {
		return ease.Linear, nil
	}
	fn, ok := easings[normalizeName(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEasing, name)
	}
	return fn, nil
}

// Lower bounds applied by Sanitize.
const (
	MinDuration       = 0.1
	MinShakeFrequency = 1
	MinPlayRate       = 0.1
)

// TransitionSettings configure one transition run.
type TransitionSettings struct {
	Duration      float32 `yaml:"duration"`
	Easing        string  `yaml:"easing,omitempty"`
	StartDelay    float32 `yaml:"start_delay,omitempty"`
	SlideDistance float32 `yaml:"slide_distance"`
}

// DefaultTransitionSettings returns one second, linear, 500 unit slides.
func DefaultTransitionSettings() TransitionSettings {
	return TransitionSettings{Duration: 1, Easing: "linear", SlideDistance: 500}
}

// Sanitize clamps the settings to their valid ranges.
func (s *TransitionSettings) Sanitize() {
	s.Duration = max(s.Duration, MinDuration)
	s.StartDelay = max(s.StartDelay, 0)
}

// EmotionSettings configure one emotion run.
type EmotionSettings struct {
	Duration       float32    `yaml:"duration"`
	Intensity      float32    `yaml:"intensity"`
	ShakeFrequency float32    `yaml:"shake_frequency"`
	TargetColor    [4]float32 `yaml:"target_color,flow"`
	Loop           bool       `yaml:"loop,omitempty"`
	Easing         string     `yaml:"easing,omitempty"`
}

// DefaultEmotionSettings returns two seconds at half intensity, shifting
// toward red.
func DefaultEmotionSettings() EmotionSettings {
	return EmotionSettings{
		Duration:       2,
		Intensity:      0.5,
		ShakeFrequency: 10,
		TargetColor:    [4]float32{1, 0, 0, 1},
		Easing:         "linear",
	}
}

// Sanitize clamps the settings to their valid ranges.
func (s *EmotionSettings) Sanitize() {
	s.Duration = max(s.Duration, MinDuration)
	s.Intensity = min(max(s.Intensity, 0), 1)
	s.ShakeFrequency = max(s.ShakeFrequency, MinShakeFrequency)
}

// Flipbook is a frame sequence played at a fixed rate.
type Flipbook struct {
	Frames []string `yaml:"frames"`
	FPS    float32  `yaml:"fps"`
}

// Valid reports whether the flipbook can be played.
func (f *Flipbook) Valid() bool {
	return f != nil && len(f.Frames) > 0 && f.FPS > 0
}

// TotalDuration returns the length of one pass in seconds.
func (f *Flipbook) TotalDuration() float32 {
	if !f.Valid() {
		return 0
	}
	return float32(len(f.Frames)) / f.FPS
}

// FrameAt returns the frame index shown t seconds into playback.
func (f *Flipbook) FrameAt(t float32, loop bool) int {
	if !f.Valid() || t < 0 {
		return 0
	}
	i := int(t * f.FPS)
	if loop {
		return i % len(f.Frames)
	}
	return min(i, len(f.Frames)-1)
}

// BlinkSettings drive the eyelid flipbook.
type BlinkSettings struct {
	Flipbook    *Flipbook `yaml:"flipbook,omitempty"`
	IntervalMin float32   `yaml:"interval_min"`
	IntervalMax float32   `yaml:"interval_max"`
	PlayRateMin float32   `yaml:"play_rate_min"`
	PlayRateMax float32   `yaml:"play_rate_max"`
}

// Sanitize clamps the ranges and orders their bounds.
func (s *BlinkSettings) Sanitize() {
	s.IntervalMin = max(s.IntervalMin, MinDuration)
	s.IntervalMax = max(s.IntervalMax, s.IntervalMin)
	s.PlayRateMin = max(s.PlayRateMin, MinPlayRate)
	s.PlayRateMax = max(s.PlayRateMax, s.PlayRateMin)
}

// TalkSettings drive the mouth flipbook.
type TalkSettings struct {
	Flipbook *Flipbook `yaml:"flipbook,omitempty"`
	PlayRate float32   `yaml:"play_rate"`
}

// VisualNovelSettings are the asset-wide transition and emotion defaults.
type VisualNovelSettings struct {
	Appearance       TransitionSettings `yaml:"appearance"`
	Disappearance    TransitionSettings `yaml:"disappearance"`
	Emotion          EmotionSettings    `yaml:"emotion"`
	AutoPlayEntrance bool               `yaml:"auto_play_entrance,omitempty"`
	EntranceType     TransitionType     `yaml:"entrance"`
}

// Asset describes a character for the runtime actor.
type Asset struct {
	Name string `yaml:"name"`
	// Layers is the layer document the sprite presentation is baked from.
	Layers string `yaml:"layers,omitempty"`
	// SkeletalMesh is the baked skeletal mesh asset, if any.
	SkeletalMesh string `yaml:"skeletal_mesh,omitempty"`

	Blink       BlinkSettings       `yaml:"blink"`
	Talk        TalkSettings        `yaml:"talk"`
	VisualNovel VisualNovelSettings `yaml:"visual_novel"`

	AutoBlink     bool `yaml:"auto_blink,omitempty"`
	AutoTalk      bool `yaml:"auto_talk,omitempty"`
	DualRendering bool `yaml:"dual_rendering,omitempty"`
}

// DefaultAsset returns an asset with every setting at its default.
func DefaultAsset() *Asset {
	return &Asset{
		Name: "Character",
		Blink: BlinkSettings{
			IntervalMin: 2,
			IntervalMax: 5,
			PlayRateMin: 1,
			PlayRateMax: 2,
		},
		Talk: TalkSettings{PlayRate: 1},
		VisualNovel: VisualNovelSettings{
			Appearance:    DefaultTransitionSettings(),
			Disappearance: DefaultTransitionSettings(),
			Emotion:       DefaultEmotionSettings(),
			EntranceType:  TransitionFadeIn,
		},
	}
}

// HasSprites reports whether the asset has a sprite presentation.
func (a *Asset) HasSprites() bool { return a.Layers != "" }

// HasSkeletal reports whether the asset has a skeletal presentation.
func (a *Asset) HasSkeletal() bool { return a.SkeletalMesh != "" }

// Sanitize clamps every setting and validates names.
func (a *Asset) Sanitize() error {
	a.Blink.Sanitize()
	a.Talk.PlayRate = max(a.Talk.PlayRate, MinPlayRate)
	a.VisualNovel.Appearance.Sanitize()
	a.VisualNovel.Disappearance.Sanitize()
	a.VisualNovel.Emotion.Sanitize()

	if a.VisualNovel.EntranceType == "" {
		a.VisualNovel.EntranceType = TransitionFadeIn
	}
	t, err := ParseTransition(string(a.VisualNovel.EntranceType))
	if err != nil {
		return err
	}
	a.VisualNovel.EntranceType = t

	for _, name := range []string{
		a.VisualNovel.Appearance.Easing,
		a.VisualNovel.Disappearance.Easing,
		a.VisualNovel.Emotion.Easing,
	} {
		if _, err := Easing(name); err != nil {
			return err
		}
	}
	return nil
}

// LoadAsset reads a YAML character asset. Missing fields keep their
// defaults.
func LoadAsset(path string) (*Asset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading asset: %w", err)
	}
	a := DefaultAsset()
	if err := yaml.Unmarshal(data, a); err != nil {
		return nil, fmt.Errorf("parsing asset: %w", err)
	}
	if err := a.Sanitize(); err != nil {
		return nil, fmt.Errorf("asset %s: %w", path, err)
	}
	return a, nil
}
