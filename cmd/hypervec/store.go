package main

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hupe1980/hypervec/kv"
	"github.com/hupe1980/hypervec/kv/dynamodb"
	"github.com/hupe1980/hypervec/kv/minio"
	"github.com/hupe1980/hypervec/kv/s3"
	"github.com/hupe1980/hypervec/kv/sqlite"
)

func noop() error { return nil }

// openStore builds the configured backend, wrapped for compression when
// requested.
func (a *app) openStore(ctx context.Context) (kv.Store, func() error, error) {
	compression, err := kv.ParseCompression(a.v.GetString("compression"))
	if err != nil {
		return nil, nil, err
	}
	store, closeFn, err := a.openBackend(ctx)
	if err != nil {
		return nil, nil, err
	}
	if compression != kv.CompressionNone {
		store = kv.NewCompressedStore(store, compression)
	}
	return store, closeFn, nil
}

func (a *app) openBackend(ctx context.Context) (kv.Store, func() error, error) {
	switch backend := a.v.GetString("store"); backend {
	case "memory", "":
		return kv.NewMemoryStore(), noop, nil
	case "local":
		s, err := kv.NewLocalStore(a.v.GetString("path"))
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil
	case "sqlite":
		s, err := sqlite.Open(ctx, a.v.GetString("path"))
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case "s3":
		bucket, err := a.required("bucket")
		if err != nil {
			return nil, nil, err
		}
		cfg, err := a.awsConfig(ctx)
		if err != nil {
			return nil, nil, err
		}
		client := awss3.NewFromConfig(cfg, func(o *awss3.Options) {
			if ep := a.v.GetString("endpoint"); ep != "" {
				o.BaseEndpoint = aws.String(ep)
				o.UsePathStyle = true
			}
		})
		return s3.NewStore(client, bucket, a.v.GetString("prefix")), noop, nil
	case "minio":
		bucket, err := a.required("bucket")
		if err != nil {
			return nil, nil, err
		}
		endpoint, err := a.required("endpoint")
		if err != nil {
			return nil, nil, err
		}
		client, err := miniogo.New(endpoint, &miniogo.Options{
			Creds:  credentials.NewStaticV4(a.v.GetString("access-key"), a.v.GetString("secret-key"), ""),
			Secure: a.v.GetBool("secure"),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("minio client: %w", err)
		}
		return minio.NewStore(client, bucket, a.v.GetString("prefix")), noop, nil
	case "dynamodb":
		table, err := a.required("table")
		if err != nil {
			return nil, nil, err
		}
		cfg, err := a.awsConfig(ctx)
		if err != nil {
			return nil, nil, err
		}
		client := awsdynamodb.NewFromConfig(cfg, func(o *awsdynamodb.Options) {
			if ep := a.v.GetString("endpoint"); ep != "" {
				o.BaseEndpoint = aws.String(ep)
			}
		})
		return dynamodb.NewStore(client, table, a.v.GetString("prefix")), noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q", backend)
	}
}

func (a *app) required(key string) (string, error) {
	v := a.v.GetString(key)
	if v == "" {
		return "", fmt.Errorf("--%s is required for store %q", key, a.v.GetString("store"))
	}
	return v, nil
}

func (a *app) awsConfig(ctx context.Context) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region := a.v.GetString("region"); region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load AWS config: %w", err)
	}
	return cfg, nil
}
