// Package blob wraps the Azure Blob Storage SDK with the operations the
// gateway needs: upload, archive moves and existence checks.
package blob

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"go.uber.org/zap"

	"github.com/evidence-exchange/searchgw/internal/domain"
	"github.com/evidence-exchange/searchgw/internal/metrics"
)

const serviceLabel = "blob"

const (
	copyPollInterval = 500 * time.Millisecond
	copyPollTimeout  = 30 * time.Second
)

// Store is a thin wrapper over one storage account.
type Store struct {
	client *azblob.Client
	logger *zap.Logger
}

// NewStore creates a store from a connection string.
func NewStore(connectionString string, logger *zap.Logger) (*Store, error) {
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("create blob client: %w", err)
	}
	return &Store{client: client, logger: logger}, nil
}

// Upload writes data to container/name, overwriting any existing blob.
// contentType and metadata are optional.
func (s *Store) Upload(ctx context.Context, container, name string, data []byte, contentType string, metadata map[string]string) error {
	opts := &azblob.UploadBufferOptions{}
	if contentType != "" {
		opts.HTTPHeaders = &blob.HTTPHeaders{BlobContentType: to.Ptr(contentType)}
	}
	if len(metadata) > 0 {
		md := make(map[string]*string, len(metadata))
		for k, v := range metadata {
			md[k] = to.Ptr(v)
		}
		opts.Metadata = md
	}

	start := time.Now()
	_, err := s.client.UploadBuffer(ctx, container, name, data, opts)
	s.observe("upload", start, err)
	if err != nil {
		s.logger.Error("Blob upload failed",
			zap.String("container", container),
			zap.String("blob", name),
			zap.Error(err))
		return mapBlobError(err)
	}
	return nil
}

// EnsureContainer creates the container when it does not exist yet.
func (s *Store) EnsureContainer(ctx context.Context, container string) error {
	_, err := s.client.CreateContainer(ctx, container, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return mapBlobError(err)
	}
	return nil
}

// Delete removes container/name. Deleting an absent blob is not an error.
func (s *Store) Delete(ctx context.Context, container, name string) error {
	start := time.Now()
	_, err := s.client.DeleteBlob(ctx, container, name, nil)
	s.observe("delete", start, err)
	if err != nil && !bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
		return mapBlobError(err)
	}
	return nil
}

// Move copies container/name into dstContainer and deletes the source once
// the copy completes. Returns domain.ErrNotFound when the source is absent.
func (s *Store) Move(ctx context.Context, srcContainer, dstContainer, name string) error {
	src := s.client.ServiceClient().NewContainerClient(srcContainer).NewBlobClient(name)
	dst := s.client.ServiceClient().NewContainerClient(dstContainer).NewBlobClient(name)

	if _, err := src.GetProperties(ctx, nil); err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return fmt.Errorf("source blob %s/%s: %w", srcContainer, name, domain.ErrNotFound)
		}
		return mapBlobError(err)
	}

	start := time.Now()
	_, err := dst.StartCopyFromURL(ctx, src.URL(), nil)
	if err != nil {
		s.observe("move", start, err)
		return mapBlobError(err)
	}

	if err := s.waitForCopy(ctx, dst); err != nil {
		s.observe("move", start, err)
		return err
	}

	_, err = src.Delete(ctx, nil)
	s.observe("move", start, err)
	if err != nil {
		return mapBlobError(err)
	}

	s.logger.Info("Moved blob",
		zap.String("from", srcContainer),
		zap.String("to", dstContainer),
		zap.String("blob", name))
	return nil
}

// Ping verifies account reachability.
func (s *Store) Ping(ctx context.Context) error {
	pager := s.client.NewListContainersPager(&azblob.ListContainersOptions{MaxResults: to.Ptr(int32(1))})
	if _, err := pager.NextPage(ctx); err != nil {
		return mapBlobError(err)
	}
	return nil
}

func (s *Store) waitForCopy(ctx context.Context, dst *blob.Client) error {
	deadline := time.Now().Add(copyPollTimeout)
	for {
		props, err := dst.GetProperties(ctx, nil)
		if err != nil {
			return mapBlobError(err)
		}
		if props.CopyStatus == nil || *props.CopyStatus == blob.CopyStatusTypeSuccess {
			return nil
		}
		if *props.CopyStatus != blob.CopyStatusTypePending {
			return domain.NewUpstreamRejected(0, fmt.Sprintf("blob copy ended with status %q", *props.CopyStatus))
		}
		if time.Now().After(deadline) {
			return domain.NewUpstreamUnavailable(0, "blob copy did not complete in time")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(copyPollInterval):
		}
	}
}

func (s *Store) observe(operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.UpstreamRequestsTotal.WithLabelValues(serviceLabel, operation, status).Inc()
	if err == nil {
		metrics.UpstreamRequestDuration.WithLabelValues(serviceLabel, operation).Observe(time.Since(start).Seconds())
	}
}

// mapBlobError folds SDK errors into the shared taxonomy.
func mapBlobError(err error) error {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		if respErr.StatusCode >= 500 {
			return domain.NewUpstreamUnavailable(respErr.StatusCode, respErr.ErrorCode)
		}
		if respErr.StatusCode == 404 {
			return fmt.Errorf("%s: %w", respErr.ErrorCode, domain.ErrNotFound)
		}
		return domain.NewUpstreamRejected(respErr.StatusCode, respErr.ErrorCode)
	}
	return domain.NewUpstreamUnavailable(0, err.Error())
}
