package obsws

import "encoding/json"

// Request types used by the bridge (obs-websocket 4.x names).
const (
	RequestGetAuthRequired            = "GetAuthRequired"
	RequestAuthenticate               = "Authenticate"
	RequestGetVersion                 = "GetVersion"
	RequestGetCurrentTransition       = "GetCurrentTransition"
	RequestSetCurrentTransition       = "SetCurrentTransition"
	RequestGetTransitionDuration      = "GetTransitionDuration"
	RequestSetTransitionDuration      = "SetTransitionDuration"
	RequestGetSceneList               = "GetSceneList"
	RequestGetCurrentScene            = "GetCurrentScene"
	RequestSetCurrentScene            = "SetCurrentScene"
	RequestSetPreviewScene            = "SetPreviewScene"
	RequestSetSceneItemProperties     = "SetSceneItemProperties"
	RequestSetSourceFilterVisibility  = "SetSourceFilterVisibility"
	RequestSetSourceFilterSettings    = "SetSourceFilterSettings"
	RequestGetSceneTransitionOverride = "GetSceneTransitionOverride"
	RequestSetSceneTransitionOverride = "SetSceneTransitionOverride"
	RequestStartRecording             = "StartRecording"
	RequestStopRecording              = "StopRecording"
	RequestStartStopRecording         = "StartStopRecording"
	RequestPauseRecording             = "PauseRecording"
	RequestResumeRecording            = "ResumeRecording"
	RequestStartStreaming             = "StartStreaming"
	RequestStopStreaming              = "StopStreaming"
	RequestStartStopStreaming         = "StartStopStreaming"
	RequestEnableStudioMode           = "EnableStudioMode"
	RequestDisableStudioMode          = "DisableStudioMode"
	RequestToggleStudioMode           = "ToggleStudioMode"
)

// Event types consumed by the bridge.
const (
	EventSwitchScenes     = "SwitchScenes"
	EventTransitionBegin  = "TransitionBegin"
	EventSwitchTransition = "SwitchTransition"
)

// Reasons OBS reports for failures the bridge treats specially.
const (
	ReasonSceneNotFound      = "requested scene does not exist"
	ReasonStudioModeDisabled = "studio mode not enabled"
)

// Event is a raw update pushed by OBS.
type Event struct {
	// Type is the "update-type" field (e.g. "SwitchScenes").
	Type string

	// Raw is the complete JSON body of the event.
	Raw json.RawMessage
}

// Decode unmarshals the event body into v.
func (e Event) Decode(v any) error {
	return json.Unmarshal(e.Raw, v)
}

// SwitchScenesEvent is the body of a SwitchScenes event.
type SwitchScenesEvent struct {
	SceneName string `json:"scene-name"`
}

// TransitionBeginEvent is the body of a TransitionBegin event.
type TransitionBeginEvent struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Duration  int    `json:"duration"`
	FromScene string `json:"from-scene"`
	ToScene   string `json:"to-scene"`
}

// SwitchTransitionEvent is the body of a SwitchTransition event.
type SwitchTransitionEvent struct {
	TransitionName string `json:"transition-name"`
}

// AuthRequired is the GetAuthRequired response.
type AuthRequired struct {
	AuthRequired bool   `json:"authRequired"`
	Challenge    string `json:"challenge,omitempty"`
	Salt         string `json:"salt,omitempty"`
}

// AuthenticateParams is the Authenticate request body.
type AuthenticateParams struct {
	Auth string `json:"auth"`
}

// VersionInfo is the GetVersion response.
type VersionInfo struct {
	OBSWebsocketVersion string `json:"obs-websocket-version"`
	OBSStudioVersion    string `json:"obs-studio-version"`
}

// TransitionInfo is the GetCurrentTransition response.
type TransitionInfo struct {
	Name     string `json:"name"`
	Duration int    `json:"duration,omitempty"`
}

// Scene is one entry of a scene list.
type Scene struct {
	Name string `json:"name"`
}

// SceneList is the GetSceneList response.
type SceneList struct {
	CurrentScene string  `json:"current-scene"`
	Scenes       []Scene `json:"scenes"`
}

// Names returns the scene names in list order.
func (l SceneList) Names() []string {
	names := make([]string, len(l.Scenes))
	for i, s := range l.Scenes {
		names[i] = s.Name
	}
	return names
}

// CurrentScene is the GetCurrentScene response.
type CurrentScene struct {
	Name string `json:"name"`
}

// TransitionDuration is the GetTransitionDuration response.
type TransitionDuration struct {
	Duration int `json:"transition-duration"`
}

// SceneParams selects a scene by name (SetCurrentScene, SetPreviewScene).
type SceneParams struct {
	SceneName string `json:"scene-name"`
}

// TransitionParams selects a transition by name.
type TransitionParams struct {
	TransitionName string `json:"transition-name"`
}

// DurationParams sets the transition duration in milliseconds.
type DurationParams struct {
	Duration float64 `json:"duration"`
}

// ItemPosition is a partial scene item position. Nil fields are left
// unchanged by OBS.
type ItemPosition struct {
	X         *float64 `json:"x,omitempty"`
	Y         *float64 `json:"y,omitempty"`
	Alignment *int     `json:"alignment,omitempty"`
}

// ItemScale is a scene item scale.
type ItemScale struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// SceneItemProperties is the SetSceneItemProperties request body.
// Only the non-nil properties are changed.
type SceneItemProperties struct {
	SceneName string        `json:"scene-name"`
	Item      string        `json:"item"`
	Visible   *bool         `json:"visible,omitempty"`
	Position  *ItemPosition `json:"position,omitempty"`
	Scale     *ItemScale    `json:"scale,omitempty"`
	Rotation  *float64      `json:"rotation,omitempty"`
}

// FilterVisibilityParams is the SetSourceFilterVisibility request body.
type FilterVisibilityParams struct {
	SourceName    string `json:"sourceName"`
	FilterName    string `json:"filterName"`
	FilterEnabled bool   `json:"filterEnabled"`
}

// FilterSettingsParams is the SetSourceFilterSettings request body.
type FilterSettingsParams struct {
	SourceName     string         `json:"sourceName"`
	FilterName     string         `json:"filterName"`
	FilterSettings map[string]any `json:"filterSettings"`
}

// SceneTransitionOverrideParams is the body of the Get/SetSceneTransitionOverride
// requests. GetSceneTransitionOverride only reads SceneName.
type SceneTransitionOverrideParams struct {
	SceneName          string `json:"sceneName"`
	TransitionName     string `json:"transitionName,omitempty"`
	TransitionDuration *int   `json:"transitionDuration,omitempty"`
}

// SceneTransitionOverride is the GetSceneTransitionOverride response.
type SceneTransitionOverride struct {
	TransitionName     string `json:"transitionName"`
	TransitionDuration int    `json:"transitionDuration"`
}
