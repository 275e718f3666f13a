// Package s3 provides an Amazon S3 implementation of kv.Store.
//
// # Usage
//
//	cfg, err := config.LoadDefaultConfig(ctx)
//	store := s3.NewStore(awss3.NewFromConfig(cfg), "my-bucket", "hypervec/")
//
//	eng, err := hypervec.New(hypervec.WithStore(store))
//
// Each key maps to one object under the configured prefix.
package s3
