package anvil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"

	"anviltrack/internal/domain"
)

// GetBucketRequesterPays reports the requester-pays flag of a workspace's
// bucket. The bucket name comes from the workspace resource; the flag is
// read straight from bucket metadata. A metadata read on a requester-pays
// bucket without a billing project fails with 400, which is itself the
// answer.
func (c *Client) GetBucketRequesterPays(ctx context.Context, namespace, name string) (bool, error) {
	if c.buckets == nil {
		return false, fmt.Errorf("storage client not configured")
	}
	path := fmt.Sprintf("/api/workspaces/%s/%s", url.PathEscape(namespace), url.PathEscape(name))
	query := url.Values{"fields": []string{"workspace.bucketName"}}
	var body struct {
		Workspace struct {
			BucketName string `json:"bucketName"`
		} `json:"workspace"`
	}
	if err := c.get(ctx, path, query, &body); err != nil {
		return false, err
	}
	if body.Workspace.BucketName == "" {
		return false, domain.ErrNotFound("workspace %s/%s has no bucket", namespace, name)
	}

	attrs, err := c.buckets.Bucket(body.Workspace.BucketName).Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrBucketNotExist) {
			return false, domain.ErrNotFound("bucket %q not found", body.Workspace.BucketName)
		}
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusBadRequest {
			return true, nil
		}
		return false, fmt.Errorf("reading bucket %q: %w", body.Workspace.BucketName, err)
	}
	return attrs.RequesterPays, nil
}
