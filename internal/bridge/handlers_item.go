package bridge

import (
	"context"
	"fmt"
	"math"

	"github.com/nerrad567/obs-osc-bridge/internal/obsws"
)

// Touch-surface item geometry on a 1920x1080 canvas.
const (
	canvasCentreX = 960
	canvasCentreY = 540

	// touchScale converts a fader value into canvas pixels.
	touchScale = 2000

	// The move offsets are applied crosswise: x is shifted by 540 and y by
	// 960. Existing touch layouts depend on it.
	moveOffsetX = 540
	moveOffsetY = 960
)

// itemArgs returns the item name (first argument) and the numeric arguments
// that follow it.
func itemArgs(msg InboundMessage, numbers int) (string, []float64, error) {
	item, ok := msg.String(0)
	if !ok || item == "" {
		return "", nil, fmt.Errorf("%w: %s needs a scene item name as its first argument", ErrInvalidSyntax, msg.Address)
	}

	values := make([]float64, numbers)
	for i := range values {
		v, ok := msg.Number(i + 1)
		if !ok {
			return "", nil, fmt.Errorf("%w: %s needs %d numeric value(s) after the item name", ErrInvalidSyntax, msg.Address, numbers)
		}
		values[i] = v
	}
	return item, values, nil
}

// touchToX maps a fader value to a canvas x coordinate.
func touchToX(v float64) float64 {
	return math.Floor(float64(v*touchScale)) + moveOffsetX
}

// touchToY maps a fader value to a canvas y coordinate.
func touchToY(v float64) float64 {
	return math.Floor(float64(v*touchScale) + moveOffsetY)
}

// handleMove handles /move <item> a b.
func handleMove(ctx context.Context, b *Bridge, msg InboundMessage) error {
	item, v, err := itemArgs(msg, 2)
	if err != nil {
		return err
	}
	x, y, align := touchToX(v[1]), touchToY(v[0]), 0
	return setCurrentSceneItem(ctx, b, obsws.SceneItemProperties{
		Item:     item,
		Position: &obsws.ItemPosition{X: &x, Y: &y, Alignment: &align},
	})
}

// handleMoveX handles /movex <item> a.
func handleMoveX(ctx context.Context, b *Bridge, msg InboundMessage) error {
	item, v, err := itemArgs(msg, 1)
	if err != nil {
		return err
	}
	x, align := touchToX(v[0]), 0
	return setCurrentSceneItem(ctx, b, obsws.SceneItemProperties{
		Item:     item,
		Position: &obsws.ItemPosition{X: &x, Alignment: &align},
	})
}

// handleMoveY handles /movey <item> a.
func handleMoveY(ctx context.Context, b *Bridge, msg InboundMessage) error {
	item, v, err := itemArgs(msg, 1)
	if err != nil {
		return err
	}
	y, align := touchToY(v[0]), 0
	return setCurrentSceneItem(ctx, b, obsws.SceneItemProperties{
		Item:     item,
		Position: &obsws.ItemPosition{Y: &y, Alignment: &align},
	})
}

// handleAlign handles /align <item> n, centring the item with alignment n.
func handleAlign(ctx context.Context, b *Bridge, msg InboundMessage) error {
	item, v, err := itemArgs(msg, 1)
	if err != nil {
		return err
	}
	x, y, align := float64(canvasCentreX), float64(canvasCentreY), int(v[0])
	return setCurrentSceneItem(ctx, b, obsws.SceneItemProperties{
		Item:     item,
		Position: &obsws.ItemPosition{X: &x, Y: &y, Alignment: &align},
	})
}

// handleSize handles /size <item> v.
func handleSize(ctx context.Context, b *Bridge, msg InboundMessage) error {
	item, v, err := itemArgs(msg, 1)
	if err != nil {
		return err
	}
	return setCurrentSceneItem(ctx, b, obsws.SceneItemProperties{
		Item:  item,
		Scale: &obsws.ItemScale{X: v[0], Y: v[0]},
	})
}

// setCurrentSceneItem applies props to an item of the current program scene.
func setCurrentSceneItem(ctx context.Context, b *Bridge, props obsws.SceneItemProperties) error {
	scene, err := b.currentScene(ctx)
	if err != nil {
		return err
	}
	props.SceneName = scene
	return b.call(ctx, obsws.RequestSetSceneItemProperties, props, nil)
}
