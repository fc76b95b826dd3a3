// Package image validates and reads images as base64 data urls.
package image

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ErrInvalidDataURL is returned for urls which are not "<prefix>,<base64 data>".
var ErrInvalidDataURL = errors.New("invalid base64 url")

// Validate checks that dataURL carries a comma separated, standard base64 payload.
func Validate(dataURL string) error {
	_, data, ok := strings.Cut(dataURL, ",")
	if !ok {
		return fmt.Errorf("%w: missing data separator", ErrInvalidDataURL)
	}
	if _, err := base64.StdEncoding.DecodeString(data); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	return nil
}

// Parse splits a "data:<mime>;base64,<data>" url into its media type and payload.
func Parse(dataURL string) (mediaType, data string, err error) {
	if err := Validate(dataURL); err != nil {
		return "", "", err
	}
	header, data, _ := strings.Cut(dataURL, ",")
	header = strings.TrimPrefix(header, "data:")
	mediaType, _, _ = strings.Cut(header, ";")
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	return mediaType, data, nil
}

// ReadFile reads a file into a base64 data url, sniffing its media type from content.
func ReadFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	mediaType, _, _ := strings.Cut(mimetype.Detect(b).String(), ";")
	return fmt.Sprintf("data:%s;base64,%s", mediaType, base64.StdEncoding.EncodeToString(b)), nil
}
