package model

import "errors"

const (
	MaxAvatarSizeBytes = 2 * 1024 * 1024 // 2MB limit on profile avatars
	AvatarWidth        = 200
	AvatarHeight       = 200
	AvatarFolder       = "avatars"
	AvatarExt          = ".jpg"

	MaxPostImageSizeBytes = 10 * 1024 * 1024
	PostImageFolder       = "posts"
)

// Supported image content types for upload validation
const (
	ContentTypeJPEG = "image/jpeg"
	ContentTypePNG  = "image/png"
	ContentTypeGIF  = "image/gif"
	ContentTypeWebP = "image/webp"
)

var allowedImageTypes = map[string]struct{}{
	ContentTypeJPEG: {},
	ContentTypePNG:  {},
	ContentTypeGIF:  {},
	ContentTypeWebP: {},
}

// Domain errors for media operations
var (
	ErrFileTooLarge     = errors.New("file too large")
	ErrInvalidImageType = errors.New("invalid image type")
)

// IsAllowedImageType reports if the provided content type is supported
func IsAllowedImageType(contentType string) bool {
	_, ok := allowedImageTypes[contentType]
	return ok
}
