package bridge

import (
	"context"
	"fmt"

	"github.com/nerrad567/obs-osc-bridge/internal/obsws"
)

// parseVisibility accepts 0, 1, "off" and "on".
func parseVisibility(a Arg, ok bool) (bool, error) {
	if ok {
		switch {
		case a.Kind == KindNumber && a.Num == 0, a.Kind == KindString && a.Str == "off":
			return false, nil
		case a.Kind == KindNumber && a.Num == 1, a.Kind == KindString && a.Str == "on":
			return true, nil
		}
	}
	return false, fmt.Errorf("%w: visibility must be [0|1|off|on]", ErrInvalidSyntax)
}

// handleItemVisible handles /scene/<scene>/<item>/visible.
func handleItemVisible(ctx context.Context, b *Bridge, msg InboundMessage) error {
	visible, err := parseVisibility(msg.Arg(0))
	if err != nil {
		return err
	}

	segs := msg.Segments()
	props := obsws.SceneItemProperties{
		SceneName: segs[2],
		Item:      segs[3],
		Visible:   &visible,
	}
	b.logInfo("setting item visibility", "scene", props.SceneName, "item", props.Item, "visible", visible)
	return b.call(ctx, obsws.RequestSetSceneItemProperties, props, nil)
}

// handleFilterVisible handles /source/<source>/filter/<filter>.
func handleFilterVisible(ctx context.Context, b *Bridge, msg InboundMessage) error {
	enabled, err := parseVisibility(msg.Arg(0))
	if err != nil {
		return err
	}

	segs := msg.Segments()
	params := obsws.FilterVisibilityParams{
		SourceName:    segs[2],
		FilterName:    segs[4],
		FilterEnabled: enabled,
	}
	b.logInfo("setting filter visibility", "source", params.SourceName, "filter", params.FilterName, "enabled", enabled)
	return b.call(ctx, obsws.RequestSetSourceFilterVisibility, params, nil)
}

// pathNames returns the first two names of /<a>/<b>/<keyword> with
// underscores decoded to spaces.
func pathNames(msg InboundMessage) (string, string, error) {
	segs := msg.Segments()
	if len(segs) < 4 || segs[1] == "" || segs[2] == "" {
		return "", "", fmt.Errorf("%w: expected /<scene>/<source>/<property> in %q", ErrInvalidSyntax, msg.Address)
	}
	return decodeName(segs[1]), decodeName(segs[2]), nil
}

// handleOpacity handles /<source>/<filter>/opacity v. The fraction is scaled
// by 100 and sent unclamped.
func handleOpacity(ctx context.Context, b *Bridge, msg InboundMessage) error {
	source, filter, err := pathNames(msg)
	if err != nil {
		return err
	}
	v, ok := msg.Number(0)
	if !ok {
		return fmt.Errorf("%w: opacity needs a numeric value", ErrInvalidSyntax)
	}

	params := obsws.FilterSettingsParams{
		SourceName:     source,
		FilterName:     filter,
		FilterSettings: map[string]any{"opacity": v * 100},
	}
	return b.call(ctx, obsws.RequestSetSourceFilterSettings, params, nil)
}

// handlePosition handles /<scene>/<item>/position a b.
func handlePosition(ctx context.Context, b *Bridge, msg InboundMessage) error {
	scene, item, err := pathNames(msg)
	if err != nil {
		return err
	}
	a, okA := msg.Number(0)
	bv, okB := msg.Number(1)
	if !okA || !okB {
		return fmt.Errorf("%w: position needs two numeric values", ErrInvalidSyntax)
	}

	x, y := positionTransform(a, bv)
	props := obsws.SceneItemProperties{
		SceneName: scene,
		Item:      item,
		Position:  &obsws.ItemPosition{X: &x, Y: &y},
	}
	return b.call(ctx, obsws.RequestSetSceneItemProperties, props, nil)
}

// positionTransform maps console coordinates onto a 1920x1080 canvas with
// the console origin at the centre and y pointing up.
func positionTransform(a, b float64) (float64, float64) {
	x := a + 960
	y := (b - (b * 2)) + 540
	return x, y
}

// handleScale handles /<scene>/<item>/scale v.
func handleScale(ctx context.Context, b *Bridge, msg InboundMessage) error {
	scene, item, err := pathNames(msg)
	if err != nil {
		return err
	}
	v, ok := msg.Number(0)
	if !ok {
		return fmt.Errorf("%w: scale needs a numeric value", ErrInvalidSyntax)
	}

	props := obsws.SceneItemProperties{
		SceneName: scene,
		Item:      item,
		Scale:     &obsws.ItemScale{X: v, Y: v},
	}
	return b.call(ctx, obsws.RequestSetSceneItemProperties, props, nil)
}

// handleRotate handles /<scene>/<item>/rotate v.
func handleRotate(ctx context.Context, b *Bridge, msg InboundMessage) error {
	scene, item, err := pathNames(msg)
	if err != nil {
		return err
	}
	v, ok := msg.Number(0)
	if !ok {
		return fmt.Errorf("%w: rotation needs a numeric value", ErrInvalidSyntax)
	}

	props := obsws.SceneItemProperties{
		SceneName: scene,
		Item:      item,
		Rotation:  &v,
	}
	return b.call(ctx, obsws.RequestSetSceneItemProperties, props, nil)
}
