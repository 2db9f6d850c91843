// Package corpus reads training text from local files and object stores.
//
// A Source opens named objects. Names ending in .zst, .gz or .lz4 are
// decompressed transparently by ReadText and ReadAll.
//
// # Built-in Sources
//
//   - LocalSource: files below a root directory
//   - s3.Source: Amazon S3 objects, downloaded in parallel parts
//   - minio.Source: MinIO and other S3-compatible stores
package corpus
