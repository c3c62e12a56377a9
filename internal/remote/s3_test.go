package remote

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/debemdeboas/gisthub/internal/model"
)

type fakeObject struct {
	body     []byte
	encoding string
}

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]fakeObject
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string]fakeObject)}
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var keys []string
	for key := range f.objects {
		if strings.HasPrefix(key, aws.ToString(params.Prefix)) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	out := &s3.ListObjectsV2Output{}
	for _, key := range keys {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(key)})
	}
	return out, nil
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	obj, ok := f.objects[aws.ToString(params.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body:            io.NopCloser(bytes.NewReader(obj.body)),
		ContentEncoding: aws.String(obj.encoding),
	}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(params.Key)] = fakeObject{body: data, encoding: aws.ToString(params.ContentEncoding)}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.objects[aws.ToString(params.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func TestS3CreateAndList(t *testing.T) {
	client := newFakeS3()
	backend := NewS3WithClient(client, "gists", "alice")
	ctx := context.Background()

	first, err := backend.CreateGist(ctx, "first", map[string]model.File{
		"a.py": model.NewFile("a.py", "print('a')"),
	}, true)
	if err != nil {
		t.Fatalf("CreateGist failed: %v", err)
	}
	time.Sleep(time.Millisecond)
	second, err := backend.CreateGist(ctx, "second", map[string]model.File{
		"b.md": model.NewFile("b.md", "# b"),
	}, false)
	if err != nil {
		t.Fatalf("CreateGist failed: %v", err)
	}

	obj, ok := client.objects[gistKey(first.ID)]
	if !ok {
		t.Fatalf("Expected object %s to exist", gistKey(first.ID))
	}
	if obj.encoding != "gzip" {
		t.Errorf("Expected gzip content encoding, got %q", obj.encoding)
	}
	if bytes.Contains(obj.body, []byte("print")) {
		t.Error("Expected object body to be compressed")
	}

	gists, err := backend.ListGists(ctx)
	if err != nil {
		t.Fatalf("ListGists failed: %v", err)
	}
	if len(gists) != 2 || gists[0].ID != second.ID || gists[1].ID != first.ID {
		t.Fatalf("Expected newest first, got %v", gists)
	}
	if gists[1].Files["a.py"].ContentOrEmpty() != "print('a')" {
		t.Errorf("Unexpected content %q", gists[1].Files["a.py"].ContentOrEmpty())
	}
	if gists[0].OwnerLogin() != "alice" || gists[0].Visibility != model.Secret {
		t.Errorf("Unexpected gist %+v", gists[0])
	}
}

func TestS3Starred(t *testing.T) {
	client := newFakeS3()
	backend := NewS3WithClient(client, "gists", "")
	ctx := context.Background()

	gist, _ := backend.CreateGist(ctx, "", map[string]model.File{"x.js": model.NewFile("x.js", "1")}, true)

	if err := backend.StarGist(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if err := backend.StarGist(ctx, gist.ID); err != nil {
		t.Fatalf("StarGist failed: %v", err)
	}

	// A dangling marker is skipped.
	client.objects[s3StarPrefix+"ghost"] = fakeObject{}

	starred, err := backend.ListStarredGists(ctx)
	if err != nil {
		t.Fatalf("ListStarredGists failed: %v", err)
	}
	if len(starred) != 1 || starred[0].ID != gist.ID {
		t.Errorf("Expected only %s, got %v", gist.ID, starred)
	}
}

func TestS3ReadsUncompressedObjects(t *testing.T) {
	client := newFakeS3()
	client.objects[gistKey("plain")] = fakeObject{
		body: []byte(`{"id":"plain","files":{"n.txt":{"filename":"n.txt","language":"plaintext","content":"hi","size":2}},"visibility":"public"}`),
	}
	backend := NewS3WithClient(client, "gists", "")

	gists, err := backend.ListGists(context.Background())
	if err != nil {
		t.Fatalf("ListGists failed: %v", err)
	}
	if len(gists) != 1 || gists[0].Files["n.txt"].ContentOrEmpty() != "hi" {
		t.Errorf("Unexpected gists %+v", gists)
	}
}
