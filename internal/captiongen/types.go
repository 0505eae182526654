package captiongen

import "context"

// Context carries the optional hints a caller can attach to a
// generation request. Absent fields are omitted from the prompt.
type Context struct {
	Filename string `json:"filename,omitempty"`
	Industry string `json:"industry,omitempty"`
	Location string `json:"location,omitempty"`
}

// Generator produces a descriptive caption for an image payload. The
// payload is base64 image data, with or without a data-URI prefix.
type Generator interface {
	Generate(ctx context.Context, image string, hints Context) (string, error)
}
