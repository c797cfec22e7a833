package main

import (
	"flag"
	"fmt"
	"math/rand"

	"github.com/Faultbox/character2d/internal/character"
	"github.com/Faultbox/character2d/pkg/math"
)

func cmdSimulate(args []string) error {
	fs := flag.NewFlagSet("simulate", flag.ExitOnError)
	transition := fs.String("transition", "", "Transition to play (fade_in, slide_in_left, scale_out, ...)")
	emotion := fs.String("emotion", "", "Emotion to play (shake, pulse, color_shift, bounce, flash, darken, brighten)")
	dt := fs.Float64("dt", 1.0/30, "Seconds per tick")
	duration := fs.Float64("duration", 2, "Seconds to simulate")
	every := fs.Int("every", 3, "Print every Nth tick")
	seed := fs.Int64("seed", 1, "Random seed for shake and blink timing")
	if _, _, err := setup(fs, args); err != nil {
		return err
	}

	asset := character.DefaultAsset()
	if fs.NArg() > 0 {
		var err error
		if asset, err = character.LoadAsset(fs.Arg(0)); err != nil {
			return err
		}
	}

	actor := character.NewActor(asset, math.Vec3{}, rand.New(rand.NewSource(*seed)))
	actor.OnTransitionFinished = func(t character.TransitionType) {
		fmt.Printf("-- transition %s finished\n", t)
	}
	actor.OnEmotionFinished = func(e character.EmotionType) {
		fmt.Printf("-- emotion %s finished\n", e)
	}
	actor.Begin()

	if *transition != "" {
		t, err := character.ParseTransition(*transition)
		if err != nil {
			return err
		}
		actor.PlayTransitionWithDefaults(t)
	}
	if *emotion != "" {
		e, err := character.ParseEmotion(*emotion)
		if err != nil {
			return err
		}
		actor.PlayEmotionWithDefaults(e)
	}

	step := float32(*dt)
	if step <= 0 {
		return fmt.Errorf("dt must be positive (got %g)", *dt)
	}
	ticks := int(*duration / *dt)
	if *every < 1 {
		*every = 1
	}

	fmt.Printf("%-7s %-6s %-26s %-20s %-26s %s\n", "time", "hidden", "location", "scale", "tint", "parts")
	printVisual(0, actor.Visual())
	for i := 1; i <= ticks; i++ {
		v := actor.Advance(step)
		if i%*every == 0 || i == ticks {
			printVisual(float32(i)*step, v)
		}
	}
	return nil
}

func printVisual(t float32, v character.Visual) {
	parts := ""
	if v.SpritesVisible {
		parts += "sprites "
	}
	if v.SkeletalVisible {
		parts += "skeletal "
	}
	if v.Eyelids.Visible {
		parts += fmt.Sprintf("blink[%d] ", v.Eyelids.Frame)
	}
	if v.Mouth.Visible {
		parts += fmt.Sprintf("talk[%d] ", v.Mouth.Frame)
	}
	fmt.Printf("%-7.3f %-6v %-26s %-20s %-26s %s\n", t, v.Hidden,
		fmt.Sprintf("(%.1f, %.1f, %.1f)", v.Location.X, v.Location.Y, v.Location.Z),
		fmt.Sprintf("(%.3f, %.3f, %.3f)", v.Scale.X, v.Scale.Y, v.Scale.Z),
		fmt.Sprintf("(%.2f, %.2f, %.2f, %.2f)", v.Tint.X, v.Tint.Y, v.Tint.Z, v.Tint.W),
		parts)
}
