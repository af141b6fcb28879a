package client

import (
	"context"

	"github.com/menta2k/image-chat/pkg/types"
)

// Completer sends one prompt and one encoded image to a vision model.
// Configuration and transport problems come back as a Failure result; the error
// return is reserved for faults the caller has to handle itself, such as a
// success response whose body does not have the expected shape.
type Completer interface {
	Complete(ctx context.Context, creds types.Credentials, prompt, image string) (types.Result, error)
}
