package main

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esimov/markup"
	"github.com/esimov/markup/redact"
)

const testDoc = `{
	"crop": {"x": 0, "y": 0, "width": 400, "height": 200},
	"annotation": [
		{"id": "t1", "text": "Hi [e-1f680]!", "fontSize": 20},
		{"id": "s1", "backgroundImage": "blob:sticker.png", "width": 10, "height": 10, "x": 0, "y": 0}
	],
	"decoration": [{"id": "d1"}, {"id": "d2"}]
}`

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func pngImage(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < w; i++ {
		img.SetNRGBA(i, i%h, color.NRGBA{R: 0xff, A: 0xff})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func testEnv(t *testing.T) (*env, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	e := newEnv(defaultConfig())
	e.stdout = &out
	return e, &out
}

func TestConfig_Load(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, markup.DefaultThumbnail, cfg.Thumbnail)
	assert.Equal(t, redact.DefaultOptions, cfg.Detector)

	dir := t.TempDir()
	path := writeFile(t, dir, "markup.yaml", []byte(`
assetURL: https://assets.example.com/
thumbnail:
  width: 100
  ratio: 2
workers: 100
timeout: 5s
detector:
  minSize: 40
  angle: 0.5
`))
	cfg, err = loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://assets.example.com/", cfg.AssetURL)
	assert.Equal(t, markup.Thumbnail{Width: 100, Ratio: 2}, cfg.Thumbnail)
	assert.LessOrEqual(t, cfg.Workers, maxWorkers)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 40, cfg.Detector.MinSize)
	assert.Equal(t, 0.5, cfg.Detector.Angle)
	assert.Equal(t, redact.DefaultOptions.ScaleFactor, cfg.Detector.ScaleFactor)

	empty := writeFile(t, dir, "empty.yaml", nil)
	_, err = loadConfig(empty)
	assert.NoError(t, err)

	unknown := writeFile(t, dir, "unknown.yaml", []byte("colour: red\n"))
	_, err = loadConfig(unknown)
	assert.Error(t, err)

	_, err = loadConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestBatch_ShouldProcessEveryFile(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "out")
	for _, name := range []string{"a.json", "b.JSON", "nested/c.json", "skip.txt"} {
		writeFile(t, src, name, []byte("{}"))
	}

	var calls int32
	var seen []string
	err := batch(src, dst, []string{".json"}, 3, nil, func(in, out string) error {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, dst, filepath.Dir(out))
		return os.WriteFile(out, []byte("ok"), 0644)
	}, func(res result) {
		assert.NoError(t, res.err)
		seen = append(seen, filepath.Base(res.path))
	})
	require.NoError(t, err)

	sort.Strings(seen)
	assert.Equal(t, []string{"a.json", "b.JSON", "c.json"}, seen)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
	assert.FileExists(t, filepath.Join(dst, "c.json"))
}

func TestBatch_ShouldReportFailures(t *testing.T) {
	src := t.TempDir()
	writeFile(t, src, "a.png", nil)
	writeFile(t, src, "b.png", nil)

	var failed int
	err := batch(src, t.TempDir(), imageExtensions, 0, func(name string) string {
		return "thumb-" + name
	}, func(in, out string) error {
		assert.True(t, strings.HasPrefix(filepath.Base(out), "thumb-"))
		if filepath.Base(in) == "b.png" {
			return os.ErrInvalid
		}
		return nil
	}, func(res result) {
		if res.err != nil {
			failed++
		}
	})
	assert.Error(t, err)
	assert.Equal(t, 1, failed)

	err = batch(filepath.Join(src, "missing"), t.TempDir(), imageExtensions, 1, nil,
		func(string, string) error { return nil }, func(result) {})
	assert.Error(t, err)
}

func TestCommand_Unknown(t *testing.T) {
	e, _ := testEnv(t)
	assert.Error(t, run(context.Background(), e, []string{"resize"}))
}

func TestCommand_Load(t *testing.T) {
	e, _ := testEnv(t)
	dir := t.TempDir()
	in := writeFile(t, dir, "meta.json", []byte(testDoc))
	out := filepath.Join(dir, "out.json")

	require.NoError(t, run(context.Background(), e, []string{"load", "-in", in, "-out", out, "-thumb"}))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	doc, err := markup.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "Hi 🚀!", doc.Annotation[0]["text"])
	fs, _ := doc.Annotation[0].FontSize()
	assert.InDelta(t, 19.93, fs, 0.001)

	// A missing document loads as an empty one, unless -strict is set.
	missing := filepath.Join(dir, "missing.json")
	require.NoError(t, run(context.Background(), e, []string{"load", "-in", missing, "-out", out}))
	data, err = os.ReadFile(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"annotation":[]}`, string(data))

	assert.Error(t, run(context.Background(), e, []string{"load", "-strict", "-in", missing, "-out", out}))
}

func TestCommand_LoadBatch(t *testing.T) {
	e, _ := testEnv(t)
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "docs")
	writeFile(t, src, "a.json", []byte(testDoc))
	writeFile(t, src, "b/b.json", []byte(`{"annotation":[]}`))

	require.NoError(t, run(context.Background(), e, []string{"load", "-in", src, "-out", dst}))
	assert.FileExists(t, filepath.Join(dst, "a.json"))
	assert.FileExists(t, filepath.Join(dst, "b.json"))

	assert.Error(t, run(context.Background(), e, []string{"load", "-in", src}))
}

func TestCommand_Save(t *testing.T) {
	e, _ := testEnv(t)
	dir := t.TempDir()
	in := writeFile(t, dir, "meta.json", []byte(testDoc))
	writeFile(t, dir, "assets/sticker.png", pngImage(t, 4, 4))
	out := filepath.Join(dir, "meta.bin")

	require.NoError(t, run(context.Background(), e, []string{
		"save", "-in", in, "-out", out, "-assets", filepath.Join(dir, "assets"),
	}))

	buf, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(buf), "[e-1f680]")

	doc, err := markup.Decode(buf)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(doc.Annotation[1].BackgroundImage(), "data:image/png;base64,"))

	// Unresolved blob references fail the save.
	assert.Error(t, run(context.Background(), e, []string{
		"save", "-in", in, "-out", out, "-assets", t.TempDir(),
	}))
}

func TestCommand_ClassifyAndMoveBack(t *testing.T) {
	e, stdout := testEnv(t)
	dir := t.TempDir()
	in := writeFile(t, dir, "meta.json", []byte(testDoc))
	out := filepath.Join(dir, "moved.bin")

	require.NoError(t, run(context.Background(), e, []string{"classify", "-in", in, "-id", "d2"}))
	require.NoError(t, run(context.Background(), e, []string{"classify", "-in", in, "-id", "nope"}))
	assert.Equal(t, "imageDecoration\t1\ttrue\nimageRedaction\t-1\tfalse\n", stdout.String())

	require.NoError(t, run(context.Background(), e, []string{"move-back", "-in", in, "-out", out, "-id", "d2"}))
	buf, err := os.ReadFile(out)
	require.NoError(t, err)
	doc, err := markup.Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, "d2", doc.Decoration[0].ID())

	assert.Error(t, run(context.Background(), e, []string{"move-back", "-in", in, "-out", out, "-id", "d1"}))
	assert.Error(t, run(context.Background(), e, []string{"move-back", "-in", in, "-out", out}))
}

func TestCommand_Preview(t *testing.T) {
	e, _ := testEnv(t)
	dir := t.TempDir()
	in := writeFile(t, dir, "photo.png", pngImage(t, 400, 200))
	out := filepath.Join(dir, "photo-thumb.png")

	require.NoError(t, run(context.Background(), e, []string{"preview", "-in", in, "-out", out}))

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)

	scale := markup.DefaultThumbnail.Scale(&markup.Rect{Width: 400, Height: 200})
	assert.InDelta(t, 400*scale, img.Bounds().Dx(), 1)
	assert.InDelta(t, 200*scale, img.Bounds().Dy(), 1)

	assert.Error(t, run(context.Background(), e, []string{"preview", "-in", in, "-out", filepath.Join(dir, "photo.webp")}))
}

func TestCommand_PreviewBatch(t *testing.T) {
	e, _ := testEnv(t)
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "thumbs")
	writeFile(t, src, "a.png", pngImage(t, 40, 20))
	writeFile(t, src, "b.gif", []byte("not an image"))

	assert.Error(t, run(context.Background(), e, []string{"preview", "-in", src, "-out", dst}))
	assert.FileExists(t, filepath.Join(dst, "a.png"))
	assert.NoFileExists(t, filepath.Join(dst, "b.jpg"))
}

func TestCommand_Gallery(t *testing.T) {
	e, stdout := testEnv(t)
	in := writeFile(t, t.TempDir(), "assets.json", []byte(`[
		{"file_name": "beach_holidays_2023.jpg", "file_path": "a/1.jpg", "meta_file_path": "a/1.json"},
		{"file_name": "mountain.png", "file_path": "a/2.png"},
		{"file_name": "forest.png", "file_path": "a/3.png"}
	]`))

	require.NoError(t, run(context.Background(), e, []string{
		"gallery", "-in", in, "-tags", "beach,mountain", "-base", "https://cdn.example.com/",
	}))
	assert.Equal(t,
		"beach_...2023.jpg\thttps://cdn.example.com/a/1.json\n"+
			"mountain.png\thttps://cdn.example.com/undefined\n",
		stdout.String())
}

func TestCommand_RedactRequiresCascade(t *testing.T) {
	e, _ := testEnv(t)
	assert.Error(t, run(context.Background(), e, []string{"redact", "-image", "photo.png"}))

	dir := t.TempDir()
	cc := writeFile(t, dir, "facefinder", []byte("short"))
	img := writeFile(t, dir, "photo.png", pngImage(t, 64, 64))
	err := run(context.Background(), e, []string{"redact", "-cc", cc, "-image", img})
	assert.ErrorIs(t, err, redact.ErrInvalidCascade)
}
