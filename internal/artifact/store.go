package artifact

import "context"

// Store is the durable artifact sink. Puts are whole-object and atomic per
// key; the pipeline never read-modifies a key, only overwrites it wholesale.
type Store interface {
	// Put writes body under key and returns the canonical public URL
	Put(ctx context.Context, key string, body []byte, contentType string, publicRead bool) (string, error)
}
