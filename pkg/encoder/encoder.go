// Package encoder turns a file into a self-contained data URI usable both as an
// image source and as the image_url field of a chat-completion request.
package encoder

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/menta2k/image-chat/pkg/types"
)

const (
	scheme       = "data:"
	base64Marker = ";base64,"
)

// Encode reads r to the end and returns it as a data URI
func Encode(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("%w: read file: %v", types.ErrEncoding, err)
	}
	return EncodeBytes(data), nil
}

// EncodeFile loads the file at path and returns it as a data URI
func EncodeFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: open file: %v", types.ErrEncoding, err)
	}
	defer f.Close()

	return Encode(f)
}

// EncodeBytes returns data as a data URI with a sniffed MIME type
func EncodeBytes(data []byte) string {
	var b strings.Builder
	b.Grow(len(scheme) + 32 + len(base64Marker) + base64.StdEncoding.EncodedLen(len(data)))
	b.WriteString(scheme)
	b.WriteString(MIMEType(data))
	b.WriteString(base64Marker)
	b.WriteString(base64.StdEncoding.EncodeToString(data))
	return b.String()
}

// MIMEType sniffs the media type of data without parameters
func MIMEType(data []byte) string {
	mime, _, _ := strings.Cut(mimetype.Detect(data).String(), ";")
	return strings.TrimSpace(mime)
}

// Decode splits a base64 data URI into its media type and raw bytes
func Decode(uri string) (string, []byte, error) {
	if !strings.HasPrefix(uri, scheme) {
		return "", nil, fmt.Errorf("not a data URI")
	}
	header, payload, ok := strings.Cut(uri[len(scheme):], ",")
	if !ok {
		return "", nil, fmt.Errorf("data URI has no payload separator")
	}
	mime, isBase64 := strings.CutSuffix(header, ";base64")
	if !isBase64 {
		return "", nil, fmt.Errorf("data URI is not base64 encoded")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode base64 payload: %v", err)
	}
	return mime, data, nil
}
