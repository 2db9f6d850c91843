// Package minio reads corpus objects from MinIO and other S3-compatible stores.
package minio
