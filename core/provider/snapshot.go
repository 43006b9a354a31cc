package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"sim-device-platform/core/storage"

	"github.com/minio/minio-go/v7"
)

// SnapshotAdapter reads a provider inventory from a JSON object in
// storage. Used for bulk feeds delivered out of band (exports dropped
// into the bucket) rather than fetched from a live API. Snapshots carry
// no liveness data.
type SnapshotAdapter struct {
	name       string
	client     storage.Client
	bucket     string
	objectName string
}

// NewSnapshotAdapter creates a storage-backed snapshot adapter.
func NewSnapshotAdapter(name string, client storage.Client, bucket, objectName string) *SnapshotAdapter {
	return &SnapshotAdapter{
		name:       name,
		client:     client,
		bucket:     bucket,
		objectName: objectName,
	}
}

// Name implements Adapter.
func (a *SnapshotAdapter) Name() string { return a.name }

// FetchInventory implements Adapter by parsing the snapshot object.
func (a *SnapshotAdapter) FetchInventory(ctx context.Context) (*Inventory, error) {
	reader, err := a.client.GetObject(ctx, a.bucket, a.objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get snapshot %s: %w", a.objectName, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", a.objectName, err)
	}

	var inv Inventory
	if err := json.Unmarshal(data, &inv); err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", a.objectName, err)
	}
	return &inv, nil
}

// FetchHeartbeats implements Adapter. Snapshots have no liveness feed.
func (a *SnapshotAdapter) FetchHeartbeats(ctx context.Context, ids []string) ([]Heartbeat, error) {
	return nil, nil
}

// Healthy implements Adapter by checking that the snapshot object exists.
func (a *SnapshotAdapter) Healthy(ctx context.Context) (bool, error) {
	_, err := a.client.StatObject(ctx, a.bucket, a.objectName, minio.StatObjectOptions{})
	if err != nil {
		return false, err
	}
	return true, nil
}
