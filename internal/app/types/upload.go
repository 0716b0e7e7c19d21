package types

import (
	"maps"
	"slices"
	"strings"
)

// Headers is a header mapping with case-insensitive lookup.
// Keys are stored lowercased. Names repeating with different case are
// folded in byte order of the original keys, so the last one in that
// order wins ("content-type" over "Content-Type").
type Headers map[string]string

func NewHeaders(m map[string]string) Headers {
	h := make(Headers, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		h[strings.ToLower(k)] = m[k]
	}
	return h
}

// NewHeadersFromMulti keeps the first value of every header. Case
// collisions are folded like in NewHeaders.
func NewHeadersFromMulti(m map[string][]string) Headers {
	h := make(Headers, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		vv := m[k]
		if len(vv) == 0 {
			continue
		}
		h[strings.ToLower(k)] = vv[0]
	}
	return h
}

func (h Headers) Get(key string) (string, bool) {
	v, ok := h[strings.ToLower(key)]
	return v, ok
}

type UploadRequest struct {
	Headers         Headers
	Body            []byte
	IsBase64Encoded bool
}

type ExtractedFile struct {
	Filename string
	Content  []byte
}

type UploadResult struct {
	Filename    string
	URL         string
	Size        int
	ContentType string
}
