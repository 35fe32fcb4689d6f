package reaper

import "errors"

var (
	// ErrEncode wraps archive serialization failures.
	ErrEncode = errors.New("encode archive")
	// ErrDecode wraps archive deserialization failures.
	ErrDecode = errors.New("decode archive")
	// ErrArchive is returned when the archive blob could not be written;
	// nothing is deleted in that case.
	ErrArchive = errors.New("write archive")
	// ErrList wraps failures listing stored documents.
	ErrList = errors.New("list documents")
)
