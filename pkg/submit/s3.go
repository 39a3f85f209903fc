package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3API is the subset of the S3 client used by S3Store.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Config describes how to reach the bucket.
type S3Config struct {
	Region          string
	Endpoint        string
	PathStyle       bool
	AccessKeyID     string
	SecretAccessKey string
}

// NewS3Client builds an S3 client from cfg. Empty credentials fall back to
// the AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY environment variables.
func NewS3Client(cfg S3Config) *s3.Client {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	opts := s3.Options{
		Region:       region,
		UsePathStyle: cfg.PathStyle,
		Credentials: aws.NewCredentialsCache(aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			key, secret := cfg.AccessKeyID, cfg.SecretAccessKey
			if key == "" {
				key, secret = os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY")
			}
			if key == "" || secret == "" {
				return aws.Credentials{}, errors.New("submit: no S3 credentials configured")
			}
			return aws.Credentials{AccessKeyID: key, SecretAccessKey: secret, Source: "signup"}, nil
		})),
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// S3Store keeps one JSON object per username under a key prefix.
type S3Store struct {
	client S3API
	bucket string
	prefix string
}

// NewS3Store creates an S3-backed Store.
//
// Example usage:
//
//	client := submit.NewS3Client(submit.S3Config{Region: "eu-west-1"})
//	store := submit.NewS3Store(client, "signup-receipts", "accounts/")
func NewS3Store(client S3API, bucket, prefix string) *S3Store {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &S3Store{client: client, bucket: bucket, prefix: prefix}
}

func (s *S3Store) key(username string) string {
	return s.prefix + url.PathEscape(usernameKey(username)) + ".json"
}

// Save writes the receipt with a create-only precondition so two accounts
// cannot claim the same username.
func (s *S3Store) Save(ctx context.Context, r Receipt) error {
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("s3 store: encode receipt: %w", err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(r.Username)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
		IfNoneMatch: aws.String("*"),
		Metadata: map[string]string{
			"receipt-id": r.ID,
		},
	})
	if err != nil {
		if apiErrorCode(err) == "PreconditionFailed" {
			return ErrUsernameTaken
		}
		return fmt.Errorf("s3 store: put %s: %w", r.Username, err)
	}
	return nil
}

func (s *S3Store) Exists(ctx context.Context, username string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(username)),
	})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("s3 store: head %s: %w", username, err)
}

func (s *S3Store) List(ctx context.Context) ([]Receipt, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})

	var out []Receipt
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3 store: list: %w", err)
		}
		for _, obj := range page.Contents {
			r, err := s.get(ctx, aws.ToString(obj.Key))
			if err != nil {
				return nil, err
			}
			out = append(out, r)
		}
	}

	sortReceipts(out)
	return out, nil
}

func (s *S3Store) get(ctx context.Context, key string) (Receipt, error) {
	res, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return Receipt{}, fmt.Errorf("s3 store: get %s: %w", key, err)
	}
	defer res.Body.Close()

	var r Receipt
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return Receipt{}, fmt.Errorf("s3 store: decode %s: %w", key, err)
	}
	return r, nil
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	code := apiErrorCode(err)
	return code == "NotFound" || code == "NoSuchKey"
}

func apiErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}
