package media

import "errors"

var (
	// ErrAssetTooLarge indicates the payload exceeds the accepted size
	// limit. The text is shown to users as-is, so it reads as a sentence.
	ErrAssetTooLarge = errors.New("external file size too big")
	// ErrTypeNotSupported indicates the declared content type is neither
	// image nor video.
	ErrTypeNotSupported = errors.New("external file type not supported")
	// ErrValidationFailed indicates the metadata fetch for an external URL
	// could not complete.
	ErrValidationFailed = errors.New("could not validate file from external URL")
)
