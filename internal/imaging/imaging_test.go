package imaging

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fetcherFunc func(ctx context.Context, url string) ([]byte, error)

func (f fetcherFunc) Fetch(ctx context.Context, url string) ([]byte, error) {
	return f(ctx, url)
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.NRGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestFitSize(t *testing.T) {
	tests := []struct {
		name           string
		w, h           int
		expectedWidth  int
		expectedHeight int
	}{
		{name: "already fits", w: 100, h: 50, expectedWidth: 100, expectedHeight: 50},
		{name: "exact bound", w: 989, h: 427, expectedWidth: 989, expectedHeight: 427},
		{name: "height bound", w: 2000, h: 1000, expectedWidth: 854, expectedHeight: 427},
		{name: "width bound", w: 3956, h: 427, expectedWidth: 989, expectedHeight: 107},
		{name: "tall", w: 500, h: 5000, expectedWidth: 43, expectedHeight: 427},
		{name: "never below one pixel", w: 100000, h: 1, expectedWidth: 989, expectedHeight: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := fitSize(tt.w, tt.h, MaxWidth, MaxHeight)
			assert.Equal(t, tt.expectedWidth, w)
			assert.Equal(t, tt.expectedHeight, h)
		})
	}
}

func TestFit_FlattensTransparency(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	out := Fit(src, MaxWidth, MaxHeight)

	assert.Equal(t, image.Rect(0, 0, 10, 10), out.Bounds())
	r, g, b, a := out.At(5, 5).RGBA()
	assert.Equal(t, uint32(0xffff), a)
	assert.Equal(t, uint32(0xffff), r)
	assert.Equal(t, uint32(0xffff), g)
	assert.Equal(t, uint32(0xffff), b)
}

func TestThumbnailer_Save(t *testing.T) {
	payload := encodePNG(t, 2000, 1000)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(payload)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "posts_images", "5124.jpg")
	thumbs := NewThumbnailer(NewHTTPFetcher(server.Client()))

	ok, err := thumbs.Save(context.Background(), server.URL+"/a.png", dest)
	require.NoError(t, err)
	assert.True(t, ok)

	f, err := os.Open(dest)
	require.NoError(t, err)
	defer f.Close()
	cfg, format, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 854, cfg.Width)
	assert.Equal(t, 427, cfg.Height)

	entries, err := os.ReadDir(filepath.Dir(dest))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestThumbnailer_Save_Undecodable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("this is a text file"))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "posts_images", "5124.jpg")
	thumbs := NewThumbnailer(NewHTTPFetcher(server.Client()))

	ok, err := thumbs.Save(context.Background(), server.URL+"/a.png", dest)
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.NoFileExists(t, dest)
}

func TestThumbnailer_Save_BadStatus(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "5124.jpg")
	thumbs := NewThumbnailer(NewHTTPFetcher(server.Client()))

	ok, err := thumbs.Save(context.Background(), server.URL+"/missing.png", dest)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.NoFileExists(t, dest)
}

func TestThumbnailer_Save_FetchError(t *testing.T) {
	boom := errors.New("connection refused")
	thumbs := NewThumbnailer(fetcherFunc(func(ctx context.Context, url string) ([]byte, error) {
		return nil, boom
	}))

	dest := filepath.Join(t.TempDir(), "5124.jpg")
	ok, err := thumbs.Save(context.Background(), "http://img/a.png", dest)
	assert.False(t, ok)
	assert.ErrorIs(t, err, boom)
	assert.NoFileExists(t, dest)
}

func TestThumbnailer_Save_SmallImageKeepsSize(t *testing.T) {
	payload := encodePNG(t, 120, 80)
	thumbs := NewThumbnailer(fetcherFunc(func(ctx context.Context, url string) ([]byte, error) {
		return payload, nil
	}))

	dest := filepath.Join(t.TempDir(), "games_images", "Game.jpg")
	ok, err := thumbs.Save(context.Background(), "http://img/header.png", dest)
	require.NoError(t, err)
	assert.True(t, ok)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 120, cfg.Width)
	assert.Equal(t, 80, cfg.Height)
}

// oversizedPNG returns a valid PNG whose header declares w×h pixels while the
// pixel data only covers a 1×1 image.
func oversizedPNG(t *testing.T, w, h uint32) []byte {
	t.Helper()
	data := encodePNG(t, 1, 1)
	// Signature (8), IHDR length (4) and type (4), then width and height.
	binary.BigEndian.PutUint32(data[16:20], w)
	binary.BigEndian.PutUint32(data[20:24], h)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))
	return data
}

func TestThumbnailer_Save_TooManyPixels(t *testing.T) {
	payload := oversizedPNG(t, 60000, 60000)
	cfg, _, err := image.DecodeConfig(bytes.NewReader(payload))
	require.NoError(t, err)
	require.Equal(t, 60000, cfg.Width)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(payload)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "posts_images", "5124.jpg")
	thumbs := NewThumbnailer(NewHTTPFetcher(server.Client()))

	ok, err := thumbs.Save(context.Background(), server.URL+"/bomb.png", dest)
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.NoFileExists(t, dest)
}

func TestHTTPFetcher_Fetch_TooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(bytes.Repeat([]byte("x"), 65))
	}))
	defer server.Close()

	f := NewHTTPFetcher(server.Client())
	f.limit = 64

	_, err := f.Fetch(context.Background(), server.URL+"/big.png")
	assert.ErrorIs(t, err, ErrImageTooLarge)

	f.limit = 65
	body, err := f.Fetch(context.Background(), server.URL+"/big.png")
	require.NoError(t, err)
	assert.Len(t, body, 65)
}
