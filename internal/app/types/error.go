package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies upload failures. The response status is chosen
// from the kind, never from the message.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindMissingHeader
	KindMalformedContentType
	KindDecoding
	KindNoFileFound
	KindMalformedPart
	KindBodyTooLarge
	KindStorage
)

var (
	ErrMissingHeader        = errors.New("content-type header is missing")
	ErrMalformedContentType = errors.New("malformed content-type")
	ErrDecoding             = errors.New("invalid base64 body")
	ErrNoFileFound          = errors.New("no file found in request body")
	ErrMalformedPart        = errors.New("malformed multipart part")
	ErrBodyTooLarge         = errors.New("request body too large")
	ErrStorage              = errors.New("storage error")
)

var kindErrors = []struct {
	kind ErrorKind
	err  error
}{
	{KindMissingHeader, ErrMissingHeader},
	{KindMalformedContentType, ErrMalformedContentType},
	{KindDecoding, ErrDecoding},
	{KindNoFileFound, ErrNoFileFound},
	{KindMalformedPart, ErrMalformedPart},
	{KindBodyTooLarge, ErrBodyTooLarge},
	{KindStorage, ErrStorage},
}

func (k ErrorKind) String() string {
	switch k {
	case KindMissingHeader:
		return "missing_header"
	case KindMalformedContentType:
		return "malformed_content_type"
	case KindDecoding:
		return "decoding"
	case KindNoFileFound:
		return "no_file_found"
	case KindMalformedPart:
		return "malformed_part"
	case KindBodyTooLarge:
		return "body_too_large"
	case KindStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// IsClientError reports whether the kind is caused by the uploaded request
// rather than by the service or its storage.
func (k ErrorKind) IsClientError() bool {
	switch k {
	case KindMissingHeader, KindMalformedContentType, KindDecoding,
		KindNoFileFound, KindMalformedPart, KindBodyTooLarge:
		return true
	default:
		return false
	}
}

// KindOf returns the kind of the first sentinel found in err's chain.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}
	for _, ke := range kindErrors {
		if errors.Is(err, ke.err) {
			return ke.kind
		}
	}
	return KindUnknown
}

func NewErrMalformedContentType(reason string) error {
	return fmt.Errorf("%w: %s", ErrMalformedContentType, reason)
}

func NewErrDecoding(err error) error {
	return fmt.Errorf("%w: %w", ErrDecoding, err)
}

func NewErrMalformedPart(reason string) error {
	return fmt.Errorf("%w: %s", ErrMalformedPart, reason)
}

func NewErrBodyTooLarge(limit int64) error {
	return fmt.Errorf("%w: limit is %d bytes", ErrBodyTooLarge, limit)
}

func NewErrStorage(err error) error {
	return fmt.Errorf("%w: %w", ErrStorage, err)
}
