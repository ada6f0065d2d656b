package workers

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SetAfterMirrorPush installs a hook that runs right after the reconciler
// recreates a missing mirror entry.
func (r *Reconciler) SetAfterMirrorPush(fn func(ctx context.Context, oppID, volID primitive.ObjectID)) {
	r.afterMirrorPush = fn
}
