// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package project

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"pressroom/internal/keys"
)

// Bucket serves template sources from an S3-compatible bucket, configured
// for path-style access (required by CEPH/Hetzner/MinIO). Sources live
// under "<prefix><key>.page.html". The backend is read-only; deployments
// publish template bundles to the bucket out of band and invalidate the
// unit cache afterwards.
type Bucket struct {
	s3     *s3.Client
	bucket string
	prefix string
}

// NewBucket creates an S3-backed project with static credentials and
// path-style addressing.
func NewBucket(endpoint, region, accessKey, secretKey, bucket, prefix string) (*Bucket, error) {
	if endpoint == "" || accessKey == "" || secretKey == "" || bucket == "" {
		return nil, errors.New("project: s3 backend needs endpoint, credentials and bucket")
	}

	// Strip trailing slash from endpoint for consistent URL building.
	endpoint = strings.TrimRight(endpoint, "/")
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}

	client := s3.New(s3.Options{
		Region:       region,
		BaseEndpoint: aws.String(endpoint),
		Credentials:  credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		UsePathStyle: true,
	})

	return &Bucket{s3: client, bucket: bucket, prefix: prefix}, nil
}

// GetItem fetches the source object for key. A missing object resolves to
// a missing item; other S3 failures surface as errors.
func (p *Bucket) GetItem(ctx context.Context, key string) (Item, error) {
	if keys.Validate(key) != nil {
		return Item{Key: key}, nil
	}
	out, err := p.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(p.prefix + key + ".page.html"),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return Item{Key: key}, nil
		}
		return Item{}, fmt.Errorf("project fetch %q: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return Item{}, fmt.Errorf("project read %q: %w", key, err)
	}
	return Item{Key: key, Source: string(data), Exists: true}, nil
}

// PutItem always fails: the bucket backend is read-only. Deployments
// publish template bundles to the bucket out of band.
func (p *Bucket) PutItem(_ context.Context, key, _ string) error {
	return fmt.Errorf("project save %q: s3 backend is read-only", key)
}

// Delete always fails: the bucket backend is read-only.
func (p *Bucket) Delete(_ context.Context, key string) error {
	return fmt.Errorf("project delete %q: s3 backend is read-only", key)
}
