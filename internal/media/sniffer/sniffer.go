package sniffer

import (
	"bytes"
	"errors"
	"net/http"
	"strings"
)

type MediaType string

const (
	TypeJPEG MediaType = "jpeg"
	TypePNG  MediaType = "png"
	TypeGIF  MediaType = "gif"
	TypeWEBP MediaType = "webp"
)

var ErrUnknownType = errors.New("unsupported image type")

type Result struct {
	Type MediaType
	MIME string
	Ext  string
}

// DetectHead identifies the photo formats the image-editing endpoint
// accepts from their magic bytes. The declared multipart content type is
// never trusted on its own.
func DetectHead(head []byte) (Result, error) {
	switch {
	case isPNG(head):
		return Result{Type: TypePNG, MIME: "image/png", Ext: ".png"}, nil
	case isJPEG(head):
		return Result{Type: TypeJPEG, MIME: "image/jpeg", Ext: ".jpg"}, nil
	case isWEBP(head):
		return Result{Type: TypeWEBP, MIME: "image/webp", Ext: ".webp"}, nil
	case isGIF(head):
		return Result{Type: TypeGIF, MIME: "image/gif", Ext: ".gif"}, nil
	}
	return Result{}, ErrUnknownType
}

func isJPEG(head []byte) bool {
	return len(head) > 3 &&
		head[0] == 0xff &&
		head[1] == 0xd8 &&
		head[2] == 0xff
}

func isPNG(head []byte) bool {
	pngMagic := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	return len(head) >= len(pngMagic) && bytes.Equal(head[:len(pngMagic)], pngMagic)
}

func isGIF(head []byte) bool {
	return len(head) >= 6 && (bytes.Equal(head[:6], []byte("GIF87a")) || bytes.Equal(head[:6], []byte("GIF89a")))
}

func isWEBP(head []byte) bool {
	return len(head) >= 12 &&
		bytes.Equal(head[:4], []byte("RIFF")) &&
		bytes.Equal(head[8:12], []byte("WEBP"))
}

// MimeTypeFromHTTP returns the declared media type of a multipart part
// without parameters.
func MimeTypeFromHTTP(header http.Header) string {
	contentType := header.Get("Content-Type")
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = contentType[:idx]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}
