package workflow

import (
	"encoding/json"
	"net/url"
)

// EncodeImagesParam serializes an ordered image URL list for the chat
// handoff: JSON, then URL-encoded so it can travel as a navigation
// parameter.
func EncodeImagesParam(imageURLs []string) string {
	data, err := json.Marshal(imageURLs)
	if err != nil {
		return ""
	}
	return url.QueryEscape(string(data))
}

// DecodeImagesParam decodes a handoff parameter defensively: anything
// malformed or missing yields an empty list, never an error, so the chat
// loop starts with an empty transcript instead of crashing.
func DecodeImagesParam(param string) []string {
	if param == "" {
		return nil
	}
	decoded, err := url.QueryUnescape(param)
	if err != nil {
		return nil
	}
	var imageURLs []string
	if err := json.Unmarshal([]byte(decoded), &imageURLs); err != nil {
		return nil
	}
	return imageURLs
}
