package core

import "context"

type StorageService interface {
	// DeleteObjects removes the given keys. Missing keys are not an error.
	DeleteObjects(ctx context.Context, keys []string) error
}
