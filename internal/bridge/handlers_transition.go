package bridge

import (
	"context"
	"fmt"
	"math"

	"github.com/nerrad567/obs-osc-bridge/internal/obsws"
)

// instantTransitions take no duration.
var instantTransitions = map[string]bool{
	"Cut":     true,
	"Stinger": true,
}

// durationTransitions accept an optional duration in milliseconds. Names use
// "_" for spaces on the wire.
var durationTransitions = map[string]bool{
	"Fade":          true,
	"Move":          true,
	"Luma_Wipe":     true,
	"Fade_to_Color": true,
	"Slide":         true,
	"Swipe":         true,
}

// handleTransition handles /transition <name> [duration].
func handleTransition(ctx context.Context, b *Bridge, msg InboundMessage) error {
	name, ok := msg.String(0)
	if !ok {
		return fmt.Errorf("%w: missing transition name", ErrInvalidTransition)
	}

	switch {
	case instantTransitions[name]:
		b.logInfo("setting transition", "transition", name)
		return b.call(ctx, obsws.RequestSetCurrentTransition, obsws.TransitionParams{TransitionName: name}, nil)

	case durationTransitions[name]:
		var duration *float64
		if a, present := msg.Arg(1); present {
			if a.Kind != KindNumber {
				return fmt.Errorf("%w: transition duration must be a number", ErrInvalidSyntax)
			}
			duration = &a.Num
		}

		obsName := decodeName(name)
		b.logInfo("setting transition", "transition", obsName)
		if err := b.call(ctx, obsws.RequestSetCurrentTransition, obsws.TransitionParams{TransitionName: obsName}, nil); err != nil {
			return err
		}

		if duration != nil {
			return b.call(ctx, obsws.RequestSetTransitionDuration, obsws.DurationParams{Duration: *duration}, nil)
		}

		var current obsws.TransitionDuration
		if err := b.call(ctx, obsws.RequestGetTransitionDuration, nil, &current); err != nil {
			return err
		}
		b.logInfo("current transition duration", "transition", obsName, "duration_ms", current.Duration)
		return nil

	default:
		return fmt.Errorf("%w: %q (use '_' for spaces)", ErrInvalidTransition, name)
	}
}

// handleOverrideType handles /transOverrideType/<name> on the current scene.
func handleOverrideType(ctx context.Context, b *Bridge, msg InboundMessage) error {
	segs := msg.Segments()
	if len(segs) < 3 || segs[2] == "" {
		return fmt.Errorf("%w: expected /transOverrideType/<transition>", ErrInvalidSyntax)
	}
	transition := segs[2]

	scene, err := b.currentScene(ctx)
	if err != nil {
		return err
	}

	params := obsws.SceneTransitionOverrideParams{
		SceneName:      scene,
		TransitionName: transition,
	}
	b.logInfo("setting transition override", "scene", scene, "transition", transition)
	return b.call(ctx, obsws.RequestSetSceneTransitionOverride, params, nil)
}

// handleOverrideDuration handles /transOverrideDuration <ms>, keeping the
// current scene's override transition.
func handleOverrideDuration(ctx context.Context, b *Bridge, msg InboundMessage) error {
	ms, ok := msg.Number(0)
	if !ok {
		return fmt.Errorf("%w: override duration must be a number", ErrInvalidSyntax)
	}
	duration := int(math.Floor(ms))

	scene, err := b.currentScene(ctx)
	if err != nil {
		return err
	}

	var override obsws.SceneTransitionOverride
	if err := b.call(ctx, obsws.RequestGetSceneTransitionOverride,
		obsws.SceneTransitionOverrideParams{SceneName: scene}, &override); err != nil {
		return err
	}

	params := obsws.SceneTransitionOverrideParams{
		SceneName:          scene,
		TransitionName:     override.TransitionName,
		TransitionDuration: &duration,
	}
	b.logInfo("setting transition override duration", "scene", scene, "duration_ms", duration)
	return b.call(ctx, obsws.RequestSetSceneTransitionOverride, params, nil)
}
