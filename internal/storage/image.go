package storage

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"

	"jmgallery/internal/model"
)

// ReadAndValidateImage loads an upload into memory with size and type checks,
// then decodes it to prove the bytes really are an image.
func ReadAndValidateImage(file multipart.File, header *multipart.FileHeader, maxSize int64) (data []byte, contentType string, err error) {
	if header.Size > maxSize {
		return nil, "", model.ErrFileTooLarge
	}

	limitedReader := io.LimitReader(file, maxSize+1)
	data, err = io.ReadAll(limitedReader)
	if err != nil {
		return nil, "", err
	}
	if int64(len(data)) > maxSize {
		return nil, "", model.ErrFileTooLarge
	}

	contentType = header.Header.Get("Content-Type")
	if contentType == "" && len(data) > 0 {
		contentType = http.DetectContentType(data[:min(len(data), 512)])
	}
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = strings.TrimSpace(contentType[:idx])
	}
	if !model.IsAllowedImageType(contentType) {
		return nil, "", model.ErrInvalidImageType
	}

	if _, err := imaging.Decode(bytes.NewReader(data)); err != nil {
		return nil, "", model.ErrInvalidImageType
	}

	return data, contentType, nil
}

// ResizeToJPEG centers/crops to the target size and encodes as JPEG.
// Avatars are normalized this way before upload.
func ResizeToJPEG(data []byte, width, height, quality int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, model.ErrInvalidImageType
	}

	resized := imaging.Fill(img, width, height, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
