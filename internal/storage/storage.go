package storage

import "context"

// Service uploads post images to a public host and returns the hosted
// URL. The content service never calls this: the HTTP layer resolves
// uploaded files into URLs before publishing, and a failed upload simply
// drops the image.
type Service interface {
	Upload(ctx context.Context, filename string, content []byte) (string, error)
}
