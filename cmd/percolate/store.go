package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/minio/minio-go/v7"
	miniocreds "github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hupe1980/percolator/blobstore"
	badgerstore "github.com/hupe1980/percolator/blobstore/badger"
	miniostore "github.com/hupe1980/percolator/blobstore/minio"
	s3store "github.com/hupe1980/percolator/blobstore/s3"
	"github.com/hupe1980/percolator/codec"
	"github.com/hupe1980/percolator/config"
	"github.com/hupe1980/percolator/registry"
)

// openStore opens the snapshot store of the configuration. The returned
// function releases it.
func (a *app) openStore(ctx context.Context) (blobstore.Store, func() error, error) {
	sc := a.cfg.Snapshot
	noop := func() error { return nil }

	switch sc.Backend {
	case "memory":
		return blobstore.NewMemoryStore(), noop, nil
	case "local":
		return blobstore.NewLocalStore(sc.Path), noop, nil
	case "s3":
		store, err := openS3(ctx, sc)
		return store, noop, err
	case "minio":
		store, err := openMinio(sc)
		return store, noop, err
	case "badger":
		store, err := badgerstore.Open(badgerstore.Options{Dir: sc.Path, Logger: a.logger.Logger})
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: snapshot backend %q", config.ErrInvalidConfig, sc.Backend)
	}
}

func openS3(ctx context.Context, sc config.SnapshotConfig) (blobstore.Store, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if sc.Region != "" {
		opts = append(opts, awsconfig.WithRegion(sc.Region))
	}
	if sc.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			awscreds.NewStaticCredentialsProvider(sc.AccessKey, sc.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if sc.Endpoint != "" {
			o.BaseEndpoint = aws.String(sc.Endpoint)
			o.UsePathStyle = true
		}
	})
	return s3store.NewStore(client, sc.Bucket, sc.Prefix), nil
}

func openMinio(sc config.SnapshotConfig) (blobstore.Store, error) {
	if sc.Endpoint == "" {
		return nil, errors.New("minio: endpoint required")
	}
	client, err := minio.New(sc.Endpoint, &minio.Options{
		Creds:  miniocreds.NewStaticV4(sc.AccessKey, sc.SecretKey, ""),
		Secure: sc.UseSSL,
		Region: sc.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio: %w", err)
	}
	return miniostore.NewStore(client, sc.Bucket, sc.Prefix), nil
}

// saveOptions maps the configured codec and compression to registry options.
func saveOptions(sc config.SnapshotConfig) ([]registry.SaveOption, error) {
	var opts []registry.SaveOption
	if sc.Codec != "" {
		c, ok := codec.ByName(sc.Codec)
		if !ok {
			return nil, fmt.Errorf("%w: snapshot codec %q", config.ErrInvalidConfig, sc.Codec)
		}
		opts = append(opts, registry.WithCodec(c))
	}
	if sc.Compression != "" {
		comp, err := codec.CompressionByName(sc.Compression)
		if err != nil {
			return nil, err
		}
		opts = append(opts, registry.WithCompression(comp))
	}
	return opts, nil
}
