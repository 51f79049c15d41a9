// Package detect is a placeholder for the object-detection model wrapper.
// Objects are inferred from keywords in the input text until a real model is
// wired in, keeping the response shape stable for clients.
package detect

import "strings"

type BBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Object struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	BBox       BBox    `json:"bbox"`
	Count      int     `json:"count"`
}

// ObjectsFromText returns placeholder detections for known keywords.
func ObjectsFromText(text string) []Object {
	lower := strings.ToLower(text)
	objects := make([]Object, 0, 2)
	if strings.Contains(lower, "cat") {
		objects = append(objects, Object{
			Label:      "cat",
			Confidence: 0.82,
			BBox:       BBox{X: 0.2, Y: 0.2, Width: 0.4, Height: 0.4},
			Count:      1,
		})
	}
	if strings.Contains(lower, "dog") {
		objects = append(objects, Object{
			Label:      "dog",
			Confidence: 0.79,
			BBox:       BBox{X: 0.3, Y: 0.25, Width: 0.35, Height: 0.35},
			Count:      1,
		})
	}
	return objects
}
