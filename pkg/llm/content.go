package llm

import (
	"fmt"

	"github.com/papercomputeco/lmstream/pkg/image"
)

// ContentKind tags a Content part.
type ContentKind string

const (
	ContentText  ContentKind = "text"
	ContentImage ContentKind = "image"
)

// Detail is the image detail level requested from the provider.
type Detail string

const (
	DetailNone Detail = ""
	DetailLow  Detail = "low"
	DetailHigh Detail = "high"
	DetailAuto Detail = "auto"
)

// Content is a single part of a message: either text or a base64 image.
type Content struct {
	Kind ContentKind `json:"type"`

	// Text is set for ContentText parts.
	Text string `json:"text,omitempty"`

	// ImageURL is a "data:<mime>;base64,<data>" url, set for ContentImage parts.
	ImageURL string `json:"image_url,omitempty"`
	Detail   Detail `json:"detail,omitempty"`
}

// Text creates a text content part.
func Text(text string) Content {
	return Content{Kind: ContentText, Text: text}
}

// ImageURL creates an image content part from a base64 data url.
func ImageURL(dataURL string, detail Detail) (Content, error) {
	if err := image.Validate(dataURL); err != nil {
		return Content{}, err
	}
	return Content{Kind: ContentImage, ImageURL: dataURL, Detail: detail}, nil
}

// ImageFile reads an image file into a base64 data url content part.
func ImageFile(path string, detail Detail) (Content, error) {
	url, err := image.ReadFile(path)
	if err != nil {
		return Content{}, fmt.Errorf("could not read image %s: %w", path, err)
	}
	return Content{Kind: ContentImage, ImageURL: url, Detail: detail}, nil
}

// ImageTokens is the fixed token cost of an image part by detail level.
func ImageTokens(detail Detail) int {
	switch detail {
	case DetailHigh:
		return 170
	case DetailAuto:
		return 110
	default:
		return 85
	}
}
