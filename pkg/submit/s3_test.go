package submit

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/google/go-cmp/cmp"
)

// fakeS3 is an in-memory bucket.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	headErr error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := aws.ToString(in.Key)
	if _, ok := f.objects[key]; ok && aws.ToString(in.IfNoneMatch) == "*" {
		return nil, &smithy.GenericAPIError{Code: "PreconditionFailed", Message: "At least one of the pre-conditions you specified did not hold"}
	}
	f.objects[key] = body
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	body, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body))}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for key := range f.objects {
		if strings.HasPrefix(key, aws.ToString(in.Prefix)) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for _, key := range keys {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(key)})
	}
	return out, nil
}

func TestS3Store(t *testing.T) {
	client := newFakeS3()
	store := NewS3Store(client, "bucket", "accounts")
	ctx := context.Background()

	ada := Receipt{ID: "1", Username: "Ada", Email: "ada@example.com", CreatedAt: fixedTime}
	if err := store.Save(ctx, ada); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, ok := client.objects["accounts/ada.json"]; !ok {
		t.Errorf("object keys = %v", client.objects)
	}

	if err := store.Save(ctx, Receipt{ID: "2", Username: "ADA"}); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("duplicate Save err = %v", err)
	}

	ok, err := store.Exists(ctx, "ada")
	if err != nil || !ok {
		t.Errorf("Exists(ada) = %v, %v", ok, err)
	}
	ok, err = store.Exists(ctx, "bob")
	if err != nil || ok {
		t.Errorf("Exists(bob) = %v, %v", ok, err)
	}

	client.objects["other/ignored.json"] = []byte("{}")
	got, err := store.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]Receipt{ada}, got); diff != "" {
		t.Errorf("List (-want +got):\n%s", diff)
	}
}

func TestS3StoreHeadError(t *testing.T) {
	client := newFakeS3()
	client.headErr = &smithy.GenericAPIError{Code: "AccessDenied", Message: "denied"}
	store := NewS3Store(client, "bucket", "")

	if _, err := store.Exists(context.Background(), "ada"); err == nil {
		t.Error("access errors should not read as missing")
	}
}

func TestSimulatorWithS3Store(t *testing.T) {
	sim := testSimulator(NewS3Store(newFakeS3(), "bucket", "accounts/"))
	ctx := context.Background()

	if _, err := sim.Submit(ctx, Request{Username: "ada", Email: "ada@example.com", Password: "pw"}); err != nil {
		t.Fatal(err)
	}
	if _, err := sim.Submit(ctx, Request{Username: "ada"}); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("err = %v, want ErrUsernameTaken", err)
	}
}

func TestNewS3Client(t *testing.T) {
	client := NewS3Client(S3Config{Endpoint: "http://localhost:9000", PathStyle: true})
	opts := client.Options()
	if opts.Region != "us-east-1" || !opts.UsePathStyle {
		t.Errorf("options = region %q pathStyle %v", opts.Region, opts.UsePathStyle)
	}
	if aws.ToString(opts.BaseEndpoint) != "http://localhost:9000" {
		t.Errorf("endpoint = %q", aws.ToString(opts.BaseEndpoint))
	}
}
