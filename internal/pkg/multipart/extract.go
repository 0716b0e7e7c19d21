// Package multipart extracts the single uploaded file from a raw
// multipart/form-data body.
//
// The parser works on the byte level: the body is split on the boundary
// delimiter and the first part carrying a filename is taken as the file.
// Bodies produced by browsers, curl and API gateways all satisfy this.
package multipart

import (
	"bytes"
	"encoding/base64"
	"strings"

	"github.com/ozontech/s3-uploader/internal/app/types"
)

const (
	headerContentType = "content-type"

	boundaryParam = "boundary="
)

var (
	delimiterPrefix = []byte("--")
	headerSeparator = []byte("\r\n\r\n")
	filenameMarker  = []byte("filename")
	filenameOpen    = []byte(`filename="`)
	filenameClose   = []byte(`"`)

	// trailingCRLFLen is the CRLF that precedes every delimiter and belongs
	// to framing, not to the content.
	trailingCRLFLen = 2
)

// Extract returns the filename and content of the first part that has a
// filename. Content never aliases body.
func Extract(headers types.Headers, body []byte, isBase64Encoded bool) (types.ExtractedFile, error) {
	contentType, ok := headers.Get(headerContentType)
	if !ok || contentType == "" {
		return types.ExtractedFile{}, types.ErrMissingHeader
	}

	if isBase64Encoded {
		decoded, err := decodeBase64(body)
		if err != nil {
			return types.ExtractedFile{}, types.NewErrDecoding(err)
		}
		body = decoded
	}

	boundary, err := ParseBoundary(contentType)
	if err != nil {
		return types.ExtractedFile{}, err
	}

	part, ok := findFilePart(body, boundary)
	if !ok {
		return types.ExtractedFile{}, types.ErrNoFileFound
	}

	return parsePart(part)
}

// ParseBoundary returns the boundary parameter of a content-type value:
// everything after "boundary=" up to the next ';', without surrounding
// spaces and quotes.
func ParseBoundary(contentType string) (string, error) {
	idx := strings.Index(contentType, boundaryParam)
	if idx < 0 {
		return "", types.NewErrMalformedContentType("boundary parameter not found")
	}

	boundary := contentType[idx+len(boundaryParam):]
	if end := strings.IndexByte(boundary, ';'); end >= 0 {
		boundary = boundary[:end]
	}
	boundary = strings.Trim(strings.TrimSpace(boundary), `"`)

	if boundary == "" {
		return "", types.NewErrMalformedContentType("empty boundary")
	}

	return boundary, nil
}

func decodeBase64(body []byte) ([]byte, error) {
	decoded := make([]byte, base64.StdEncoding.DecodedLen(len(body)))
	n, err := base64.StdEncoding.Decode(decoded, body)
	if err != nil {
		return nil, err
	}
	return decoded[:n], nil
}

// findFilePart splits body on "--<boundary>" and returns the first part
// containing a filename. The preamble and the closing "--" part never
// carry one, so they are skipped naturally.
func findFilePart(body []byte, boundary string) ([]byte, bool) {
	delimiter := append(append([]byte{}, delimiterPrefix...), boundary...)

	for _, part := range bytes.Split(body, delimiter) {
		if bytes.Contains(part, filenameMarker) {
			return part, true
		}
	}

	return nil, false
}

func parsePart(part []byte) (types.ExtractedFile, error) {
	header, content, ok := bytes.Cut(part, headerSeparator)
	if !ok {
		return types.ExtractedFile{}, types.NewErrMalformedPart("header separator not found")
	}

	filename, err := parseFilename(header)
	if err != nil {
		return types.ExtractedFile{}, err
	}

	if len(content) < trailingCRLFLen {
		return types.ExtractedFile{}, types.NewErrMalformedPart("content is shorter than trailing CRLF")
	}
	content = content[:len(content)-trailingCRLFLen]

	return types.ExtractedFile{
		Filename: filename,
		Content:  bytes.Clone(content),
	}, nil
}

func parseFilename(header []byte) (string, error) {
	_, rest, ok := bytes.Cut(header, filenameOpen)
	if !ok {
		return "", types.NewErrMalformedPart("filename attribute not found")
	}

	filename, _, ok := bytes.Cut(rest, filenameClose)
	if !ok {
		return "", types.NewErrMalformedPart("unterminated filename attribute")
	}
	if len(filename) == 0 {
		return "", types.NewErrMalformedPart("empty filename")
	}

	return string(filename), nil
}
