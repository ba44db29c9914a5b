package bridge

import "github.com/nerrad567/obs-osc-bridge/internal/obsws"

// transportRoutes maps parameterless addresses to their OBS request.
var transportRoutes = []struct {
	address string
	request string
}{
	{"/startRecording", obsws.RequestStartRecording},
	{"/stopRecording", obsws.RequestStopRecording},
	{"/toggleRecording", obsws.RequestStartStopRecording},
	{"/startStreaming", obsws.RequestStartStreaming},
	{"/stopStreaming", obsws.RequestStopStreaming},
	{"/toggleStreaming", obsws.RequestStartStopStreaming},
	{"/pauseRecording", obsws.RequestPauseRecording},
	{"/resumeRecording", obsws.RequestResumeRecording},
	{"/enableStudioMode", obsws.RequestEnableStudioMode},
	{"/disableStudioMode", obsws.RequestDisableStudioMode},
	{"/toggleStudioMode", obsws.RequestToggleStudioMode},
}

// DefaultRoutes returns the inbound command table in priority order.
//
// Exact-address routes come first, then the /transOverrideType/ prefix,
// then the substring families. "contains" matchers are broad (an address
// such as /scene/opacity_test/cam/visible contains "opacity"), so they must
// stay last.
func DefaultRoutes() []Route {
	routes := []Route{
		{Name: "ping", Match: Exact("/ping"), Handle: handlePing},
		{
			Name:   "scene.index",
			Match:  All(Exact("/scene"), ArgCount(1), ArgKindAt(0, KindNumber)),
			Handle: handleSceneIndex,
		},
		{
			Name:   "scene.name",
			Match:  All(Exact("/scene"), ArgCount(1), ArgKindAt(0, KindString)),
			Handle: handleSceneName,
		},
		{
			Name:   "scene.path",
			Match:  All(SegmentCount(3), SegmentEquals(1, "scene"), ArgCount(0)),
			Handle: handleScenePath,
		},
		{Name: "go", Match: All(Exact("/go"), ArgCount(0)), Handle: handleGo},
		{Name: "back", Match: All(Exact("/back"), ArgCount(0)), Handle: handleBack},
		{
			Name:   "preview",
			Match:  All(Exact("/previewScene"), ArgCount(1), ArgKindAt(0, KindString)),
			Handle: handlePreview,
		},
	}

	for _, t := range transportRoutes {
		routes = append(routes, Route{
			Name:   t.address[1:],
			Match:  All(Exact(t.address), ArgCount(0)),
			Handle: transportHandler(t.request),
		})
	}

	routes = append(routes,
		Route{
			Name:   "item.visible",
			Match:  All(SegmentCount(5), SegmentEquals(1, "scene"), SegmentEquals(4, "visible"), ArgCount(1)),
			Handle: handleItemVisible,
		},
		Route{
			Name:   "filter.visible",
			Match:  All(SegmentCount(5), SegmentEquals(1, "source"), SegmentEquals(3, "filter"), ArgCount(1)),
			Handle: handleFilterVisible,
		},
		Route{Name: "transition", Match: Exact("/transition"), Handle: handleTransition},
		Route{Name: "override.duration", Match: Exact("/transOverrideDuration"), Handle: handleOverrideDuration},
		Route{Name: "item.move", Match: Exact("/move"), Handle: handleMove},
		Route{Name: "item.movex", Match: Exact("/movex"), Handle: handleMoveX},
		Route{Name: "item.movey", Match: Exact("/movey"), Handle: handleMoveY},
		Route{Name: "item.align", Match: Exact("/align"), Handle: handleAlign},
		Route{Name: "item.size", Match: Exact("/size"), Handle: handleSize},
		Route{Name: "override.type", Match: HasPrefix("/transOverrideType/"), Handle: handleOverrideType},
		Route{Name: "opacity", Match: Contains("opacity"), Handle: handleOpacity},
		Route{Name: "position", Match: Contains("position"), Handle: handlePosition},
		Route{Name: "scale", Match: Contains("scale"), Handle: handleScale},
		Route{Name: "rotate", Match: Contains("rotate"), Handle: handleRotate},
	)

	return routes
}
