// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package backend

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/antgroup/hugevcs/modules/plumbing"
	"github.com/antgroup/hugevcs/modules/zeta/backend/storage"
	"github.com/antgroup/hugevcs/modules/zeta/object"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// s3Storer is the object-storage-backed counterpart to fileStorer: the same
// content-addressed, two-level-sharded key layout ("aa/bb/<hex>"), but
// objects live as S3 keys under a prefix instead of files under a root
// directory. Satisfies the same storage.WritableStorage interface, so
// *Database's Commit/WriteEncoded/Search plumbing (decode.go/encode.go)
// needs no S3-specific code of its own.
type s3Storer struct {
	client         *s3.Client
	bucket         string
	prefix         string
	endpoint       string
	usePathStyle   bool
	staticCreds    aws.CredentialsProvider
	selectedMethod CompressMethod
}

var (
	_ storage.WritableStorage = &s3Storer{}
)

// S3Option configures NewS3Database beyond the bucket/prefix it always
// takes.
type S3Option func(*s3Storer)

func WithS3Endpoint(endpoint string, usePathStyle bool) S3Option {
	return func(s *s3Storer) {
		s.endpoint = endpoint
		s.usePathStyle = usePathStyle
	}
}

func WithS3CompressionALGO(compressionALGO string) S3Option {
	return func(s *s3Storer) {
		s.selectedMethod = fromCompressionALGO(compressionALGO)
	}
}

// WithS3StaticCredentials pins the access/secret key pair instead of
// resolving credentials through the default chain (environment, shared
// config, IMDS) — needed for S3-compatible stores (MinIO, etc.) that don't
// participate in AWS's own credential discovery.
func WithS3StaticCredentials(accessKeyID, secretAccessKey string) S3Option {
	return func(s *s3Storer) {
		s.staticCreds = credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, "")
	}
}

// NewS3Database opens a commit store whose objects live in an S3 (or
// S3-compatible) bucket under prefix, satisfying the same object.Backend
// contract as NewDatabase's local filesystem store. Credentials and region
// are resolved the standard SDK way unless WithS3StaticCredentials is
// given; WithS3Endpoint overrides the endpoint for S3-compatible stores.
func NewS3Database(ctx context.Context, bucket, prefix string, opts ...S3Option) (*Database, error) {
	st := &s3Storer{bucket: bucket, prefix: strings.Trim(prefix, "/"), selectedMethod: ZSTD}
	for _, o := range opts {
		o(st)
	}
	configOpts := make([]func(*config.LoadOptions) error, 0, 1)
	if st.staticCreds != nil {
		configOpts = append(configOpts, config.WithCredentialsProvider(st.staticCreds))
	}
	cfg, err := config.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	st.client = s3.NewFromConfig(cfg, func(o *s3.Options) {
		if len(st.endpoint) != 0 {
			o.BaseEndpoint = aws.String(st.endpoint)
		}
		o.UsePathStyle = st.usePathStyle
	})
	d := &Database{root: fmt.Sprintf("s3://%s/%s", bucket, prefix), compressionALGO: DefaultCompressionALGO}
	d.ro = st
	d.rw = st
	d.backend = d
	return d, nil
}

func (s *s3Storer) key(oid plumbing.Hash) string {
	encoded := oid.String()
	if len(s.prefix) == 0 {
		return fmt.Sprintf("%s/%s/%s", encoded[:2], encoded[2:4], encoded)
	}
	return fmt.Sprintf("%s/%s/%s/%s", s.prefix, encoded[:2], encoded[2:4], encoded)
}

func (s *s3Storer) Open(oid plumbing.Hash) (io.ReadCloser, error) {
	out, err := s.client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(oid)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, plumbing.NoSuchObject(oid)
		}
		return nil, err
	}
	return out.Body, nil
}

func (s *s3Storer) Exists(oid plumbing.Hash) error {
	_, err := s.client.HeadObject(context.Background(), &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(oid)),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return plumbing.NoSuchObject(oid)
		}
		return err
	}
	return nil
}

func (s *s3Storer) Search(prefix plumbing.Hash) (plumbing.Hash, error) {
	prefixStr := prefix.Prefix()
	listPrefix := fmt.Sprintf("%s/%s", s.prefix, prefixStr[:2])
	if len(prefixStr) >= 4 {
		listPrefix = fmt.Sprintf("%s/%s/%s", s.prefix, prefixStr[:2], prefixStr[2:4])
	}
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(listPrefix),
	})
	ctx := context.Background()
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		for _, o := range page.Contents {
			name := (*o.Key)[strings.LastIndexByte(*o.Key, '/')+1:]
			if strings.HasPrefix(name, prefixStr) && plumbing.ValidateHashHex(name) {
				return plumbing.NewHash(name), nil
			}
		}
	}
	return plumbing.ZeroHash, plumbing.NoSuchObject(prefix)
}

func (s *s3Storer) Close() error { return nil }

func (s *s3Storer) method() CompressMethod { return s.selectedMethod }

func (s *s3Storer) put(ctx context.Context, oid plumbing.Hash, body []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(oid)),
		Body:   bytes.NewReader(body),
	})
	return err
}

// encode compresses r into the same blob framing fileStorer.hashToInternal
// writes to disk (4 byte magic, 2 byte version, 2 byte method, 8 byte
// uncompressed-payload length, then the payload), buffering the compressed
// payload in memory so the uncompressed length compress reports is known
// before the header is written, instead of needing fileStorer's
// seek-and-backpatch trick for an *os.File.
func (s *s3Storer) encode(r io.Reader) ([]byte, plumbing.Hash, error) {
	var body bytes.Buffer
	hasher := plumbing.NewHasher()
	method := s.method()
	n, err := compress(io.TeeReader(r, hasher), &body, method)
	if err != nil {
		return nil, plumbing.ZeroHash, err
	}
	var out bytes.Buffer
	out.Write(BLOB_MAGIC[:])
	if err := binary.Write(&out, binary.BigEndian, DEFAULT_BLOB_VERSION); err != nil {
		return nil, plumbing.ZeroHash, err
	}
	if err := binary.Write(&out, binary.BigEndian, method); err != nil {
		return nil, plumbing.ZeroHash, err
	}
	if err := binary.Write(&out, binary.BigEndian, n); err != nil {
		return nil, plumbing.ZeroHash, err
	}
	out.Write(body.Bytes())
	return out.Bytes(), hasher.Sum(), nil
}

// HashTo buffers r in memory, content-addresses it and uploads it to S3
// under its resulting hash, mirroring fileStorer.HashTo's on-disk blob
// framing so the two stores are wire-compatible.
func (s *s3Storer) HashTo(ctx context.Context, r io.Reader, _ int64) (plumbing.Hash, error) {
	body, oid, err := s.encode(r)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	if err := s.put(ctx, oid, body); err != nil {
		return plumbing.ZeroHash, err
	}
	return oid, nil
}

func (s *s3Storer) WriteEncoded(e object.Encoder) (plumbing.Hash, error) {
	var raw bytes.Buffer
	if err := e.Encode(&raw); err != nil {
		return plumbing.ZeroHash, err
	}
	return s.HashTo(context.Background(), bytes.NewReader(raw.Bytes()), int64(raw.Len()))
}

func (s *s3Storer) Unpack(oid plumbing.Hash, r io.Reader) error {
	body, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return s.put(context.Background(), oid, body)
}

func (s *s3Storer) LooseObjects() ([]plumbing.Hash, error) {
	ctx := context.Background()
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})
	oids := make([]plumbing.Hash, 0, 100)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, o := range page.Contents {
			name := (*o.Key)[strings.LastIndexByte(*o.Key, '/')+1:]
			if plumbing.ValidateHashHex(name) {
				oids = append(oids, plumbing.NewHash(name))
			}
		}
	}
	return oids, nil
}

func (s *s3Storer) PruneObject(ctx context.Context, oid plumbing.Hash) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(oid)),
	})
	return err
}

func (s *s3Storer) PruneObjects(ctx context.Context, largeSize int64) ([]plumbing.Hash, int64, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})
	pruned := make([]plumbing.Hash, 0, 16)
	var freed int64
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, 0, err
		}
		for _, o := range page.Contents {
			if o.Size == nil || *o.Size < largeSize {
				continue
			}
			name := (*o.Key)[strings.LastIndexByte(*o.Key, '/')+1:]
			if !plumbing.ValidateHashHex(name) {
				continue
			}
			oid := plumbing.NewHash(name)
			if err := s.PruneObject(ctx, oid); err != nil {
				return pruned, freed, err
			}
			pruned = append(pruned, oid)
			freed += *o.Size
		}
	}
	return pruned, freed, nil
}
