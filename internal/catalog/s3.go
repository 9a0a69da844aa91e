// era-ingest: Ethereum & Gnosis era file ingestion pipeline
// Copyright 2025 era-ingest Authors
// SPDX-License-Identifier: BSD-3-Clause

package catalog

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"
)

// listS3 walks the bucket with paginated ListObjectsV2 requests, prefixed by
// the network name so unrelated archives are skipped server-side. Era archives
// are public, so credentials fall back to anonymous when none are configured.
func (c *Catalog) listS3(ctx context.Context) ([]EraFile, error) {
	bucket, prefix, err := splitS3URL(c.cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	client, endpoint, region, err := c.s3Client(ctx)
	if err != nil {
		return nil, err
	}

	var (
		files []EraFile
		token *string
		pages int
	)
	for {
		var page *s3.ListObjectsV2Output
		err := c.retryDiscovery(ctx, "list objects", func(reqCtx context.Context) error {
			var err error
			page, err = client.ListObjectsV2(reqCtx, &s3.ListObjectsV2Input{
				Bucket:            aws.String(bucket),
				Prefix:            aws.String(prefix + c.network + "-"),
				ContinuationToken: token,
			})
			return err
		})
		if err != nil {
			return nil, err
		}
		pages++
		for _, object := range page.Contents {
			key := aws.ToString(object.Key)
			if file, ok := c.parseKey(key, objectURL(endpoint, region, bucket, key)); ok {
				files = append(files, file)
			}
		}
		if !aws.ToBool(page.IsTruncated) {
			break
		}
		token = page.NextContinuationToken
	}
	log.WithFields(map[string]any{"bucket": bucket, "pages": pages, "files": len(files)}).Info("bucket listing complete")
	return files, nil
}

func (c *Catalog) s3Client(ctx context.Context) (*s3.Client, string, string, error) {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "us-east-1"
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if key := os.Getenv("AWS_ACCESS_KEY_ID"); key != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(key, os.Getenv("AWS_SECRET_ACCESS_KEY"), "")))
	} else {
		opts = append(opts, awsconfig.WithCredentialsProvider(aws.AnonymousCredentials{}))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, "", "", errors.Wrap(err, "catalog: aws config")
	}
	endpoint := os.Getenv("AWS_ENDPOINT_URL")
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	return client, endpoint, region, nil
}

// splitS3URL parses s3://bucket[/prefix/].
func splitS3URL(origin string) (bucket, prefix string, err error) {
	rest := strings.TrimPrefix(origin, "s3://")
	if rest == "" || rest == origin {
		return "", "", errors.Errorf("catalog: invalid s3 origin %q", origin)
	}
	if i := strings.Index(rest, "/"); i >= 0 {
		bucket, prefix = rest[:i], strings.TrimPrefix(rest[i+1:], "/")
		if prefix != "" && !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}
		return bucket, prefix, nil
	}
	return rest, "", nil
}

// objectURL renders a direct download URL for a listed key.
func objectURL(endpoint, region, bucket, key string) string {
	if endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(endpoint, "/"), bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, region, key)
}
