package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"github.com/esimov/markup"
	"github.com/esimov/markup/gallery"
	"github.com/esimov/markup/layer"
	"github.com/esimov/markup/redact"
	"github.com/esimov/markup/thumb"
	"github.com/esimov/markup/utils"
)

// MaxUploadSize is the largest stored document accepted by the asset service.
const MaxUploadSize = 10 << 20

// maxImageSize bounds the images read by the preview and redact commands.
const maxImageSize = 64 << 20

// Supported image files
var imageExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".gif"}

// command is a subcommand of the tool.
type command struct {
	name  string
	usage string
	run   func(ctx context.Context, e *env, args []string) error
}

var commands = []command{
	{"load", "decode a stored document, optionally rescaled for the thumbnail canvas", runLoad},
	{"save", "inline the blob stickers of a document and encode it for storage", runSave},
	{"classify", "print the category of a shape", runClassify},
	{"move-back", "move a shape one step back within its category", runMoveBack},
	{"redact", "add a redaction shape over every face of an image", runRedact},
	{"preview", "generate the thumbnail preview of an image or a directory of images", runPreview},
	{"gallery", "filter an asset listing and print the document path of every asset", runGallery},
}

// env is the state shared by the commands.
type env struct {
	cfg    Config
	client *http.Client
	stdout io.Writer
}

func newEnv(cfg Config) *env {
	return &env{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		stdout: os.Stdout,
	}
}

func (e *env) loader() *markup.Loader {
	return &markup.Loader{
		Client:    e.client,
		Thumbnail: e.cfg.Thumbnail,
		ErrorLog:  log.Default(),
	}
}

// readDocument decodes the document read from in. Absent paths yield an
// empty document.
func (e *env) readDocument(ctx context.Context, in string) (*markup.Document, error) {
	if in == pipeName {
		raw, err := readInput(ctx, e.client, in, markup.MaxDocumentSize)
		if err != nil {
			return nil, err
		}
		return markup.Decode(raw)
	}
	return e.loader().Fetch(ctx, in)
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

func runLoad(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("load")
	var (
		source      = fs.String("in", pipeName, "Source document: file, URL, directory or `-`")
		destination = fs.String("out", pipeName, "Destination JSON file or directory")
		thumbnail   = fs.Bool("thumb", false, "Rescale the document for the thumbnail canvas")
		strict      = fs.Bool("strict", false, "Fail instead of yielding an empty document")
		width       = fs.Float64("width", e.cfg.Thumbnail.Width, "Thumbnail canvas width")
		ratio       = fs.Float64("ratio", e.cfg.Thumbnail.Ratio, "Thumbnail canvas aspect ratio")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	e.cfg.Thumbnail = markup.Thumbnail{Width: *width, Ratio: *ratio}

	load := func(in, out string) error {
		var doc *markup.Document
		if *strict || in == pipeName {
			d, err := e.readDocument(ctx, in)
			if err != nil {
				return err
			}
			if *thumbnail {
				d.ScaleToThumbnail(e.cfg.Thumbnail)
			}
			doc = d
		} else {
			doc = e.loader().Load(ctx, in, *thumbnail)
		}
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return err
		}
		return writeOutput(out, append(data, '\n'), false)
	}

	if isDir(*source) {
		return e.batch(*source, *destination, []string{".json"}, nil, load)
	}
	return load(*source, *destination)
}

func runSave(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("save")
	var (
		source      = fs.String("in", pipeName, "Source JSON document")
		destination = fs.String("out", pipeName, "Destination of the stored document")
		assets      = fs.String("assets", ".", "Directory holding the files of the blob references")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	doc, err := e.readDocument(ctx, *source)
	if err != nil {
		return err
	}
	if err := doc.InlineBlobs(ctx, fileResolver(e.client, *assets)); err != nil {
		return err
	}
	buf, err := doc.Encode()
	if err != nil {
		return err
	}
	if len(buf) > MaxUploadSize {
		return fmt.Errorf("the stored document is %s, over the %s upload limit",
			utils.FormatSize(int64(len(buf))), utils.FormatSize(MaxUploadSize))
	}
	return writeOutput(*destination, buf, false)
}

// fileResolver resolves the blob references of a document saved outside
// the browser: "blob:name" refers to the file name under dir.
func fileResolver(client *http.Client, dir string) markup.BlobResolver {
	return func(ctx context.Context, ref string) (string, error) {
		name := strings.TrimPrefix(ref, "blob:")
		if !utils.IsValidUrl(name) {
			name = filepath.Join(dir, filepath.Clean("/"+name))
		}
		data, err := utils.Fetch(ctx, client, name, maxImageSize)
		if err != nil {
			return "", err
		}
		return markup.DataURL(utils.DetectContentType(data), data), nil
	}
}

func runClassify(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("classify")
	var (
		source = fs.String("in", pipeName, "Source document")
		id     = fs.String("id", "", "Shape id")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	doc, err := e.readDocument(ctx, *source)
	if err != nil {
		return err
	}
	layers := doc.Layers()
	c := layers.ClassifyOr(*id, layer.Lowest)

	seq := layers.Get(c)
	idx := layer.Index(seq, *id)
	fmt.Fprintf(e.stdout, "%s\t%d\t%v\n", c, idx, !layer.IsAtBack(idx))
	return nil
}

func runMoveBack(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("move-back")
	var (
		source      = fs.String("in", pipeName, "Source document")
		destination = fs.String("out", pipeName, "Destination of the stored document")
		id          = fs.String("id", "", "Shape id")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("missing shape id")
	}
	doc, err := e.readDocument(ctx, *source)
	if err != nil {
		return err
	}
	c, err := doc.MoveBack(*id)
	if err != nil {
		return err
	}
	log.Printf("%s %s", utils.DecorateText(*id, utils.StatusMessage),
		utils.DecorateText("moved back within "+c.String(), utils.DefaultMessage))

	buf, err := doc.Encode()
	if err != nil {
		return err
	}
	return writeOutput(*destination, buf, false)
}

func runRedact(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("redact")
	var (
		source      = fs.String("in", "undefined", "Source document")
		destination = fs.String("out", pipeName, "Destination of the stored document")
		imgPath     = fs.String("image", "", "Image the document is edited over")
		cascade     = fs.String("cc", e.cfg.Cascade, "Cascade classifier")
		angle       = fs.Float64("angle", e.cfg.Detector.Angle, "Plane rotated faces angle")
		minSize     = fs.Int("min", e.cfg.Detector.MinSize, "Minimum face size")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *cascade == "" {
		return errors.New("please specify a face classifier with the -cc flag")
	}
	if *imgPath == "" {
		return errors.New("please specify the source image with the -image flag")
	}

	cf, err := os.ReadFile(*cascade)
	if err != nil {
		return fmt.Errorf("unable to read the cascade file: %w", err)
	}
	opts := e.cfg.Detector
	opts.Angle, opts.MinSize = *angle, *minSize
	det, err := redact.NewDetector(cf, opts)
	if err != nil {
		return err
	}

	doc, err := e.readDocument(ctx, *source)
	if err != nil {
		return err
	}
	data, err := readInput(ctx, e.client, *imgPath, maxImageSize)
	if err != nil {
		return err
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("could not decode the source image: %w", err)
	}

	s := e.spinner("is looking for faces...")
	s.Start()
	n := det.Apply(doc, img)
	s.StopMsg = fmt.Sprintf("%s %s\n", utils.DecorateText("⚡ MARKUP", utils.StatusMessage),
		utils.DecorateText(fmt.Sprintf("found %d face(s) ✔", n), utils.SuccessMessage))
	s.Stop()

	buf, err := doc.Encode()
	if err != nil {
		return err
	}
	return writeOutput(*destination, buf, false)
}

func runPreview(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("preview")
	var (
		source      = fs.String("in", pipeName, "Source image or directory")
		destination = fs.String("out", pipeName, "Destination image or directory")
		width       = fs.Float64("width", e.cfg.Thumbnail.Width, "Thumbnail canvas width")
		ratio       = fs.Float64("ratio", e.cfg.Thumbnail.Ratio, "Thumbnail canvas aspect ratio")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	t := markup.Thumbnail{Width: *width, Ratio: *ratio}

	preview := func(in, out string) error {
		format, err := thumb.FormatFromExt(out)
		if err != nil {
			return err
		}
		data, err := readInput(ctx, e.client, in, maxImageSize)
		if err != nil {
			return err
		}
		w, err := createOutput(out, true)
		if err != nil {
			return err
		}
		if _, err := thumb.Generate(bytes.NewReader(data), w, format, t); err != nil {
			w.Close()
			if out != pipeName {
				os.Remove(out)
			}
			return err
		}
		return w.Close()
	}

	if isDir(*source) {
		// Formats the previews can not be encoded to are written as JPEG.
		rename := func(name string) string {
			if _, err := thumb.FormatFromExt(name); err != nil {
				return strings.TrimSuffix(name, filepath.Ext(name)) + ".jpg"
			}
			return name
		}
		return e.batch(*source, *destination, imageExtensions, rename, preview)
	}

	s := e.spinner("is generating the preview...")
	s.Start()
	err := preview(*source, *destination)
	s.StopMsg = e.stopMsg("the preview has been generated", err)
	s.Stop()
	if err == nil && *destination != pipeName {
		printStatus(*destination)
	}
	return err
}

func runGallery(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("gallery")
	var (
		source = fs.String("in", pipeName, "Asset listing (JSON)")
		name   = fs.String("name", "", "Keep the assets whose file name contains the keyword")
		tags   = fs.String("tags", "", "Comma separated tags, keep the assets matching any of them")
		base   = fs.String("base", e.cfg.AssetURL, "Base URL of the asset service")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	data, err := readInput(ctx, e.client, *source, markup.MaxDocumentSize)
	if err != nil {
		return err
	}
	assets, err := gallery.ParseAssets(data)
	if err != nil {
		return err
	}

	var list []string
	if *tags != "" {
		list = strings.Split(*tags, ",")
	}
	selected := make([]bool, len(list))
	for i := range selected {
		selected[i] = true
	}
	assets = gallery.FilterByTags(selected, gallery.FilterByName(*name, assets), list)

	for _, a := range assets {
		fileName, ext := gallery.SplitFileName(a.FileName)
		fmt.Fprintf(e.stdout, "%s%s\t%s\n", gallery.ShortenString(fileName), ext, gallery.MetaPath(*base, a))
	}
	return nil
}

// batch runs fn over every file of the src directory tree and prints the
// outcome of each one.
func (e *env) batch(src, dst string, exts []string, rename func(string) string, fn processFn) error {
	if dst == pipeName {
		return errors.New("a destination directory is required for the batch mode")
	}
	now := time.Now()
	err := batch(src, dst, exts, e.cfg.Workers, rename, fn, func(res result) {
		if res.err != nil {
			fmt.Fprintf(os.Stderr, "%s %s\n",
				utils.DecorateText(filepath.Base(res.path), utils.ErrorMessage),
				utils.DecorateText(res.err.Error(), utils.DefaultMessage),
			)
			return
		}
		fmt.Fprintf(os.Stderr, "%s %s\n",
			utils.DecorateText(filepath.Base(res.path), utils.SuccessMessage),
			utils.DecorateText("✔", utils.DefaultMessage),
		)
	})
	fmt.Fprintf(os.Stderr, "\nExecution time: %s\n", utils.DecorateText(utils.FormatTime(time.Since(now)), utils.SuccessMessage))
	return err
}

func (e *env) spinner(msg string) *utils.Spinner {
	text := fmt.Sprintf("%s %s",
		utils.DecorateText("⚡ MARKUP", utils.StatusMessage),
		utils.DecorateText(msg, utils.DefaultMessage))
	s := utils.NewSpinner(text, time.Millisecond*80)
	spinner.Store(s)
	return s
}

func (e *env) stopMsg(msg string, err error) string {
	if err != nil {
		return fmt.Sprintf("%s %s\n",
			utils.DecorateText("⚡ MARKUP", utils.StatusMessage),
			utils.DecorateText("✘", utils.ErrorMessage))
	}
	return fmt.Sprintf("%s %s\n",
		utils.DecorateText("⚡ MARKUP", utils.StatusMessage),
		utils.DecorateText(msg+" ✔", utils.SuccessMessage))
}

// printStatus displays the name of the generated file.
func printStatus(fname string) {
	fmt.Fprintf(os.Stderr, "The file has been saved as: %s\n",
		utils.DecorateText(filepath.Base(fname), utils.SuccessMessage))
}

func isDir(path string) bool {
	if path == pipeName || utils.IsValidUrl(path) {
		return false
	}
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}
