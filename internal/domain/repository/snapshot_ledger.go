package repository

import "context"

// SnapshotLedger remembers which weekly snapshots were already posted
type SnapshotLedger interface {
	// MarkPosted claims the snapshot slot for (tracker, period); claimed is false if it was taken
	MarkPosted(ctx context.Context, trackerID, period string) (claimed bool, err error)

	// Release frees a slot after a failed post so the next trigger can retry
	Release(ctx context.Context, trackerID, period string) error
}
