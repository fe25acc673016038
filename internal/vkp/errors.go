package vkp

import "errors"

// Format/validation error kinds (§4.1, §7). These are fatal to the
// operation that produced them and are never retried.
var (
	ErrMalformedVersion   = errors.New("vkp: malformed version")
	ErrInvalidTriple      = errors.New("vkp: invalid triple")
	ErrMalformedTimestamp = errors.New("vkp: malformed created_at")
	ErrMissingChunkConfig = errors.New("vkp: missing chunk_config")
	ErrChunkCountMismatch = errors.New("vkp: chunk count does not match total_chunks")
	ErrEmptyChunkField    = errors.New("vkp: empty chunk field")
	ErrMalformedChecksum  = errors.New("vkp: malformed checksum")
)
