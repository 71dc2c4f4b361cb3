package utils

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUtils_ShouldBeValidUrl(t *testing.T) {
	assert.True(t, IsValidUrl("https://github.com/esimov/markup/"))
	assert.False(t, IsValidUrl("testdata/meta.json"))
	assert.False(t, IsValidUrl("/tmp/meta.json"))
}

func TestUtils_ShouldFetchUrl(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"annotation":[]}`))
	}))
	defer srv.Close()

	data, err := Fetch(context.Background(), srv.Client(), srv.URL+"/meta.json", 0)
	require.NoError(t, err)
	assert.Equal(t, `{"annotation":[]}`, string(data))

	_, err = Fetch(context.Background(), srv.Client(), srv.URL+"/missing", 0)
	assert.Error(t, err)

	_, err = Fetch(context.Background(), srv.Client(), srv.URL+"/meta.json", 4)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestUtils_ShouldFetchFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0644))

	data, err := Fetch(context.Background(), nil, path, 0)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))

	_, err = Fetch(context.Background(), nil, path+".missing", 0)
	assert.Error(t, err)
}

func TestUtils_ShouldDetectValidFileType(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	assert.Equal(t, "image/png", DetectContentType(png))
	assert.True(t, strings.HasPrefix(DetectContentType([]byte("hello")), "text/plain"))
}

func TestUtils_Math(t *testing.T) {
	assert.Equal(t, 1, Min(1, 2))
	assert.Equal(t, 1, Min(2, 1))
	assert.Equal(t, 2, Max(1, 2))
	assert.Equal(t, 3.5, Abs(-3.5))
	assert.Equal(t, 10, Clamp(12, 0, 10))
	assert.Equal(t, 0, Clamp(-2, 0, 10))
	assert.True(t, AlmostEqual(19.93, 19.9296, 0.001))
	assert.False(t, AlmostEqual(1.0, 1.1, 0.01))
}

func TestUtils_Format(t *testing.T) {
	assert.Equal(t, "1.50s", FormatTime(1500*time.Millisecond))
	assert.Equal(t, "2m 5.00s", FormatTime(125*time.Second))
	assert.Equal(t, "90m 0.50s", FormatTime(90*time.Minute+500*time.Millisecond))
	assert.Equal(t, "512 B", FormatSize(512))
	assert.Equal(t, "10.0 MiB", FormatSize(10<<20))

	assert.Equal(t, ErrorColor+"failed"+DefaultColor, DecorateText("failed", ErrorMessage))
	assert.Equal(t, "raw", DecorateText("raw", MessageType(42)))

	SetColor(false)
	defer SetColor(true)
	assert.Equal(t, "plain", DecorateText("plain", ErrorMessage))
}

func TestUtils_Spinner(t *testing.T) {
	var sb bytes.Buffer
	s := NewSpinner("working", time.Millisecond)
	s.SetWriter(&sb)
	s.StopMsg = "done"

	s.Start()
	s.Start()
	time.Sleep(5 * time.Millisecond)
	s.Stop()
	s.Stop()

	assert.True(t, strings.HasSuffix(sb.String(), "done"))
}
