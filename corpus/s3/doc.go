// Package s3 reads corpus objects from Amazon S3.
//
// Objects are downloaded whole, in parallel byte-range parts, before they are
// handed to the caller.
//
//	src, err := s3.New(ctx, "my-bucket", s3.WithPrefix("corpora/"))
//	texts, err := corpus.ReadAll(ctx, src, names, 4)
package s3
