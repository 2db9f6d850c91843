package main

import (
	"fmt"
	"os"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/cobra"

	"github.com/hupe1980/gramstore/corpus"
	corpusminio "github.com/hupe1980/gramstore/corpus/minio"
	corpuss3 "github.com/hupe1980/gramstore/corpus/s3"
)

func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().String("source", "local", "Corpus source (local, s3, minio)")
	cmd.Flags().String("root", ".", "Root directory of the local source")
	cmd.Flags().String("bucket", "", "Bucket of the s3 or minio source")
	cmd.Flags().String("prefix", "", "Key prefix inside the bucket")
	cmd.Flags().String("endpoint", "localhost:9000", "MinIO endpoint")
	cmd.Flags().Bool("insecure", false, "Use plain HTTP for MinIO")
}

func sourceFromFlags(cmd *cobra.Command) (corpus.Source, error) {
	flags := cmd.Flags()
	kind, _ := flags.GetString("source")
	bucket, _ := flags.GetString("bucket")
	prefix, _ := flags.GetString("prefix")

	switch kind {
	case "local":
		root, _ := flags.GetString("root")
		return corpus.NewLocalSource(root), nil
	case "s3":
		if bucket == "" {
			return nil, fmt.Errorf("--bucket is required for source s3")
		}
		return corpuss3.New(cmd.Context(), bucket, corpuss3.WithPrefix(prefix))
	case "minio":
		if bucket == "" {
			return nil, fmt.Errorf("--bucket is required for source minio")
		}
		endpoint, _ := flags.GetString("endpoint")
		insecure, _ := flags.GetBool("insecure")
		client, err := minio.New(endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(os.Getenv("MINIO_ACCESS_KEY"), os.Getenv("MINIO_SECRET_KEY"), ""),
			Secure: !insecure,
		})
		if err != nil {
			return nil, err
		}
		return corpusminio.NewSource(client, bucket, prefix), nil
	default:
		return nil, fmt.Errorf("unknown source %q", kind)
	}
}

// loadCorpus reads the named objects with the configured number of workers.
func loadCorpus(cmd *cobra.Command, names []string) ([]string, error) {
	src, err := sourceFromFlags(cmd)
	if err != nil {
		return nil, err
	}
	workers, err := cmd.Flags().GetInt("workers")
	if err != nil {
		return nil, err
	}
	return corpus.ReadAll(cmd.Context(), src, names, workers)
}
