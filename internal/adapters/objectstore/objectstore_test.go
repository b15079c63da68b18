package objectstore

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"listing-service/internal/core/domain"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/require"
)

const pngDataURI = "data:image/png;base64,iVBORw0KGgo="

type fakeS3 struct {
	mu          sync.Mutex
	objects     map[string][]byte
	contentType map[string]string
	putErr      error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, contentType: map[string]string{}}
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = body
	f.contentType[aws.ToString(in.Key)] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0)
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := &s3.ListObjectsV2Output{}
	for _, k := range keys {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	return out, nil
}

func TestDecodeDataURI(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		max     int64
		wantExt string
		wantErr error
	}{
		{name: "png", raw: pngDataURI, wantExt: ".png"},
		{name: "jpeg alias", raw: "data:image/jpeg;base64,/9j/4AAQ", wantExt: ".jpg"},
		{name: "no comma", raw: "data:image/png;base64", wantErr: ErrMalformedDataURI},
		{name: "not base64", raw: "data:image/png,abc", wantErr: ErrMalformedDataURI},
		{name: "svg refused", raw: "data:image/svg+xml;base64,PHN2Zz4=", wantErr: ErrUnsupportedImage},
		{name: "bad payload", raw: "data:image/png;base64,***", wantErr: ErrMalformedDataURI},
		{name: "too large", raw: pngDataURI, max: 4, wantErr: ErrImageTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := DecodeDataURI(tt.raw, tt.max)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantExt, payload.Ext)
			require.NotEmpty(t, payload.Data)
		})
	}
}

func TestExtensionFromURL(t *testing.T) {
	ext, ok := ExtensionFromURL("https://img.test/a/photo.JPEG?w=100")
	require.True(t, ok)
	require.Equal(t, ".jpg", ext)

	_, ok = ExtensionFromURL("https://img.test/a/doc.pdf")
	require.False(t, ok)
}

func TestSourceResolver_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte("pngbytes"))
		case "/octet.webp":
			w.Header().Set("Content-Type", "application/octet-stream")
			_, _ = w.Write([]byte("webpbytes"))
		case "/big.jpg":
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write([]byte(strings.Repeat("x", 64)))
		case "/page.html":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	resolver := NewSourceResolver(srv.Client(), 32)
	ctx := context.Background()

	payload, err := resolver.Resolve(ctx, domain.ImageSource{Raw: srv.URL + "/ok.png"})
	require.NoError(t, err)
	require.Equal(t, []byte("pngbytes"), payload.Data)
	require.Equal(t, "image/png", payload.ContentType)

	payload, err = resolver.Resolve(ctx, domain.ImageSource{Raw: srv.URL + "/octet.webp"})
	require.NoError(t, err)
	require.Equal(t, ".webp", payload.Ext)

	_, err = resolver.Resolve(ctx, domain.ImageSource{Raw: srv.URL + "/big.jpg"})
	require.ErrorIs(t, err, ErrImageTooLarge)

	_, err = resolver.Resolve(ctx, domain.ImageSource{Raw: srv.URL + "/page.html"})
	require.ErrorIs(t, err, ErrUnsupportedImage)

	_, err = resolver.Resolve(ctx, domain.ImageSource{Raw: srv.URL + "/missing.jpg"})
	require.Error(t, err)

	_, err = resolver.Resolve(ctx, domain.ImageSource{Raw: "ftp://img.test/a.jpg"})
	require.ErrorIs(t, err, ErrUnsupportedSource)
}

func TestFetchClient_BlocksInternalAddresses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/loop.png" {
			http.Redirect(w, r, "/loop.png", http.StatusFound)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("pngbytes"))
	}))
	defer srv.Close()
	ctx := context.Background()

	guarded := NewSourceResolver(NewFetchClient(5*time.Second, false), 0)
	_, err := guarded.Resolve(ctx, domain.ImageSource{Raw: srv.URL + "/ok.png"})
	require.ErrorIs(t, err, ErrForbiddenAddress)

	open := NewSourceResolver(NewFetchClient(5*time.Second, true), 0)
	payload, err := open.Resolve(ctx, domain.ImageSource{Raw: srv.URL + "/ok.png"})
	require.NoError(t, err)
	require.Equal(t, []byte("pngbytes"), payload.Data)

	_, err = open.Resolve(ctx, domain.ImageSource{Raw: srv.URL + "/loop.png"})
	require.ErrorContains(t, err, "redirects")
}

func TestIsPublicAddr(t *testing.T) {
	tests := []struct {
		addr string
		want bool
	}{
		{"93.184.216.34", true},
		{"2606:4700::6810:85e5", true},
		{"127.0.0.1", false},
		{"::1", false},
		{"10.1.2.3", false},
		{"172.16.0.10", false},
		{"192.168.1.1", false},
		{"169.254.169.254", false},
		{"100.64.0.1", false},
		{"0.0.0.0", false},
		{"fd00::1", false},
		{"fe80::1", false},
		{"::ffff:127.0.0.1", false},
		{"224.0.0.1", false},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			require.Equal(t, tt.want, IsPublicAddr(netip.MustParseAddr(tt.addr)))
		})
	}
}

func TestS3Store_UploadListDelete(t *testing.T) {
	client := newFakeS3()
	store, err := NewS3Store(client, NewSourceResolver(nil, 0), "listings", "https://cdn.test/")
	require.NoError(t, err)
	ctx := context.Background()

	obj, err := store.Upload(ctx, "properties/p1/", domain.ImageSource{Raw: pngDataURI})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(obj.Key, "properties/p1/"))
	require.True(t, strings.HasSuffix(obj.Key, ".png"))
	require.Equal(t, "https://cdn.test/"+obj.Key, obj.URL)
	require.Equal(t, "image/png", client.contentType[obj.Key])

	_, err = store.Upload(ctx, "properties/p2/", domain.ImageSource{Raw: pngDataURI})
	require.NoError(t, err)

	listed, err := store.ListByPrefix(ctx, "properties/p1/")
	require.NoError(t, err)
	require.Equal(t, []domain.StoredObject{obj}, listed)

	require.NoError(t, store.Delete(ctx, obj.Key))
	require.NoError(t, store.Delete(ctx, obj.Key))
	listed, err = store.ListByPrefix(ctx, "properties/p1/")
	require.NoError(t, err)
	require.Empty(t, listed)
}

func TestS3Store_UploadErrors(t *testing.T) {
	client := newFakeS3()
	store, err := NewS3Store(client, nil, "listings", "https://cdn.test")
	require.NoError(t, err)

	_, err = store.Upload(context.Background(), "p/", domain.ImageSource{Raw: "data:image/bmp;base64,AAAA"})
	require.ErrorIs(t, err, ErrUnsupportedImage)

	client.putErr = errors.New("access denied")
	_, err = store.Upload(context.Background(), "p/", domain.ImageSource{Raw: pngDataURI})
	require.ErrorIs(t, err, domain.ErrStoreFailure)
}

func TestS3Store_Recognize(t *testing.T) {
	store, err := NewS3Store(newFakeS3(), nil, "listings", "https://cdn.test")
	require.NoError(t, err)

	obj, ok := store.Recognize("https://cdn.test/properties/p1/a%20b.jpg?v=2")
	require.True(t, ok)
	require.Equal(t, "properties/p1/a b.jpg", obj.Key)
	require.Equal(t, "https://cdn.test/properties/p1/a%20b.jpg", obj.URL)

	_, ok = store.Recognize("https://other.test/properties/p1/a.jpg")
	require.False(t, ok)
	_, ok = store.Recognize("https://cdn.test/")
	require.False(t, ok)
}

func TestNewS3Store_RequiresSettings(t *testing.T) {
	_, err := NewS3Store(nil, nil, "b", "https://cdn.test")
	require.Error(t, err)
	_, err = NewS3Store(newFakeS3(), nil, "", "https://cdn.test")
	require.Error(t, err)
	_, err = NewS3Store(newFakeS3(), nil, "b", "")
	require.Error(t, err)
}
