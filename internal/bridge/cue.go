package bridge

import "strings"

// ExtractCueToken returns the text between the last "[" and the last "]"
// of a scene name, e.g. "Intro [12]" yields "12". Names without a
// well-formed, non-empty bracket pair carry no cue.
func ExtractCueToken(sceneName string) (string, bool) {
	open := strings.LastIndex(sceneName, "[")
	closing := strings.LastIndex(sceneName, "]")
	if open < 0 || closing < 0 || open >= closing {
		return "", false
	}

	token := sceneName[open+1 : closing]
	if token == "" {
		return "", false
	}
	return token, true
}

// CueAddress returns the OSC address that starts the given cue.
func CueAddress(token string) string {
	return "/cue/" + token + "/start"
}
