// Package minio provides a kv.Store backed by MinIO or any other
// S3-compatible object storage, using the MinIO Go client.
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	store := kvminio.NewStore(client, "profiles", "hypervec/")
package minio
