package bridge

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/nerrad567/obs-osc-bridge/internal/obsws"
)

func handlePing(_ context.Context, b *Bridge, _ InboundMessage) error {
	b.logInfo("ping received")
	return nil
}

// handleSceneIndex switches to the scene at a 1-based console index.
func handleSceneIndex(ctx context.Context, b *Bridge, msg InboundMessage) error {
	n, ok := msg.Number(0)
	if !ok {
		return fmt.Errorf("%w: scene index must be a number", ErrInvalidSyntax)
	}
	index := math.Floor(n - 1)

	list, err := b.sceneList(ctx)
	if err != nil {
		return err
	}
	count := len(list.Scenes)
	if math.IsNaN(index) || index < 0 || index > float64(count-1) {
		return &RangeError{Index: int(index), Count: count}
	}

	return b.setCurrentScene(ctx, list.Scenes[int(index)].Name)
}

// handleSceneName switches to the scene named by the string argument.
func handleSceneName(ctx context.Context, b *Bridge, msg InboundMessage) error {
	name, _ := msg.String(0)
	return b.setCurrentScene(ctx, name)
}

// handleScenePath switches to the scene named in /scene/<name>.
func handleScenePath(ctx context.Context, b *Bridge, msg InboundMessage) error {
	name := msg.Segments()[2]
	if name == "" {
		return fmt.Errorf("%w: empty scene name", ErrInvalidSyntax)
	}
	return b.setCurrentScene(ctx, name)
}

func handleGo(ctx context.Context, b *Bridge, _ InboundMessage) error {
	return navigate(ctx, b, 1)
}

func handleBack(ctx context.Context, b *Bridge, _ InboundMessage) error {
	return navigate(ctx, b, -1)
}

// navigate moves step scenes from the current one, wrapping at both ends.
func navigate(ctx context.Context, b *Bridge, step int) error {
	list, err := b.sceneList(ctx)
	if err != nil {
		return err
	}

	target, err := neighbourScene(list.Names(), list.CurrentScene, step)
	if err != nil {
		return err
	}
	return b.setCurrentScene(ctx, target)
}

// neighbourScene returns the scene step positions from current. When current
// is not in the list, a forward step lands on the first scene and a backward
// step on the last.
func neighbourScene(names []string, current string, step int) (string, error) {
	n := len(names)
	if n == 0 {
		return "", ErrEmptySceneList
	}

	idx := slices.Index(names, current)
	if idx < 0 {
		if step >= 0 {
			return names[0], nil
		}
		return names[n-1], nil
	}

	next := ((idx+step)%n + n) % n
	return names[next], nil
}

// handlePreview sets the studio-mode preview scene.
func handlePreview(ctx context.Context, b *Bridge, msg InboundMessage) error {
	name, _ := msg.String(0)
	b.logInfo("setting preview scene", "scene", name)

	err := b.call(ctx, obsws.RequestSetPreviewScene, obsws.SceneParams{SceneName: name}, nil)
	if reason, ok := remoteReason(err); ok && reason == obsws.ReasonStudioModeDisabled {
		return fmt.Errorf("%w: cannot preview %q", ErrStudioModeDisabled, name)
	}
	return err
}

// transportHandler returns a handler issuing a single parameterless request.
func transportHandler(requestType string) HandlerFunc {
	return func(ctx context.Context, b *Bridge, _ InboundMessage) error {
		b.logInfo("sending request", "request", requestType)
		return b.call(ctx, requestType, nil, nil)
	}
}

// remoteReason extracts the OBS failure reason from err.
func remoteReason(err error) (string, bool) {
	var reqErr *obsws.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Reason, true
	}
	return "", false
}
