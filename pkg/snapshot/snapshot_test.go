package snapshot

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/sweetstate/internal/errors"
	"github.com/vango-dev/sweetstate/pkg/store"
)

type todo struct {
	Items []string `json:"items"`
	Done  int      `json:"done"`
}

type noActions struct{}

func newTodoStore(name string, initial todo) *store.Store[todo, noActions] {
	return store.Create(store.Config[todo, noActions]{
		Name:         name,
		InitialState: initial,
	})
}

// memoryBackend keeps snapshots in a map.
type memoryBackend struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{data: make(map[string][]byte)}
}

func (m *memoryBackend) Save(_ context.Context, name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[name] = append([]byte(nil), data...)
	return nil
}

func (m *memoryBackend) Load(_ context.Context, name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.data[name]
	if !ok {
		return nil, notFound(name)
	}
	return data, nil
}

type failingBackend struct{}

func (failingBackend) Save(context.Context, string, []byte) error { return io.ErrClosedPipe }
func (failingBackend) Load(context.Context, string) ([]byte, error) {
	return nil, io.ErrClosedPipe
}

func TestCapture_OnlyNamedGlobalStores(t *testing.T) {
	r := store.NewRegistry()
	named := newTodoStore("todos", todo{})
	anon := newTodoStore("", todo{})

	store.GetStore(r, named, "").State().SetState(func(s *todo) { s.Items = []string{"a"} })
	store.GetStore(r, named, "scoped").State().SetState(func(s *todo) { s.Items = []string{"scoped"} })
	store.GetStore(r, anon, "")

	data, err := Capture(r)
	require.NoError(t, err)

	doc, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, formatVersion, doc.Version)
	assert.False(t, doc.Created.IsZero())
	assert.Equal(t, []string{"todos"}, doc.Names())
	assert.JSONEq(t, `{"items":["a"],"done":0}`, string(doc.Stores["todos"]))
}

func TestSaveRestore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	backend := newMemoryBackend()

	src := store.NewRegistry()
	s := newTodoStore("todos", todo{Done: 7})
	store.GetStore(src, s, "").State().SetState(func(st *todo) { st.Items = []string{"x", "y"} })
	require.NoError(t, Save(ctx, backend, "nightly", src))

	dst := store.NewRegistry()
	names, err := Restore(ctx, backend, "nightly", dst)
	require.NoError(t, err)
	assert.Equal(t, []string{"todos"}, names)

	got := store.GetStore(dst, s, "").State().GetState()
	assert.Equal(t, todo{Items: []string{"x", "y"}, Done: 7}, got)

	// Scoped instances start from the restored state too.
	scoped := store.GetStore(dst, s, "other").State().GetState()
	assert.Equal(t, []string{"x", "y"}, scoped.Items)
}

func TestRestore_NotFound(t *testing.T) {
	_, err := Restore(context.Background(), newMemoryBackend(), "missing", store.NewRegistry())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRestore_InvalidDocument(t *testing.T) {
	backend := newMemoryBackend()
	require.NoError(t, backend.Save(context.Background(), "bad", []byte("{not json")))

	_, err := Restore(context.Background(), backend, "bad", store.NewRegistry())
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.New("S303"))
}

func TestSave_BackendFailure(t *testing.T) {
	err := Save(context.Background(), failingBackend{}, "x", store.NewRegistry())
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.New("S302"))
	assert.ErrorIs(t, err, io.ErrClosedPipe)
}

func TestSQLiteBackend(t *testing.T) {
	ctx := context.Background()
	b, err := OpenSQLite(filepath.Join(t.TempDir(), "snapshots.db"))
	require.NoError(t, err)
	defer b.Close()

	_, err = b.Load(ctx, "nightly")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, b.Save(ctx, "nightly", []byte(`{"version":1}`)))
	require.NoError(t, b.Save(ctx, "nightly", []byte(`{"version":2}`)))
	require.NoError(t, b.Save(ctx, "weekly", []byte(`{}`)))

	data, err := b.Load(ctx, "nightly")
	require.NoError(t, err)
	assert.Equal(t, `{"version":2}`, string(data))

	names, err := b.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"nightly", "weekly"}, names)
}

func TestSQLiteBackend_SaveRestore(t *testing.T) {
	ctx := context.Background()
	b, err := OpenSQLite(filepath.Join(t.TempDir(), "snapshots.db"))
	require.NoError(t, err)
	defer b.Close()

	s := newTodoStore("todos", todo{})
	src := store.NewRegistry()
	store.GetStore(src, s, "").State().SetState(func(st *todo) { st.Done = 3 })
	require.NoError(t, Save(ctx, b, "latest", src))

	dst := store.NewRegistry()
	_, err = Restore(ctx, b, "latest", dst)
	require.NoError(t, err)
	assert.Equal(t, 3, store.GetStore(dst, s, "").State().GetState().Done)
}

// fakeS3 is an in-memory ObjectAPI.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	meta    map[string]map[string]string
	err     error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{
		objects: make(map[string][]byte),
		meta:    make(map[string]map[string]string),
	}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.objects[key] = data
	f.meta[key] = in.Metadata
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("not found")}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func TestS3Backend(t *testing.T) {
	ctx := context.Background()
	api := newFakeS3()
	b := NewS3Backend(api, "bucket", "snaps/")

	_, err := b.Load(ctx, "nightly")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, b.Save(ctx, "nightly", []byte(`{"version":1}`)))
	assert.Contains(t, api.objects, "bucket/snaps/nightly.json")
	assert.Equal(t, "nightly", api.meta["bucket/snaps/nightly.json"]["snapshot-name"])

	data, err := b.Load(ctx, "nightly")
	require.NoError(t, err)
	assert.Equal(t, `{"version":1}`, string(data))
}

func TestS3Backend_ErrorsAreBackendFailures(t *testing.T) {
	api := newFakeS3()
	api.err = stderrors.New("access denied")

	_, err := Restore(context.Background(), NewS3Backend(api, "bucket", ""), "x", store.NewRegistry())
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.New("S302"))
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestNewS3Client(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "id")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(t.TempDir(), "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(t.TempDir(), "credentials"))

	client, err := NewS3Client(context.Background(), "eu-west-1", "http://localhost:9000")
	require.NoError(t, err)
	opts := client.Options()
	assert.Equal(t, "eu-west-1", opts.Region)
	assert.True(t, opts.UsePathStyle)
	assert.Equal(t, "http://localhost:9000", aws.ToString(opts.BaseEndpoint))

	creds, err := opts.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "id", creds.AccessKeyID)
	assert.Equal(t, "secret", creds.SecretAccessKey)

	client, err = NewS3Client(context.Background(), "us-east-1", "")
	require.NoError(t, err)
	assert.False(t, client.Options().UsePathStyle)
	assert.Nil(t, client.Options().BaseEndpoint)
}
