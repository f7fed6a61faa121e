package tools

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"ag-tools/internal/workspace"

	"github.com/openai/openai-go/v3"
)

// DefaultImageMaxMB is the default size limit for image_read.
const DefaultImageMaxMB = 10

var (
	ErrImageNotFound     = errors.New("image not found")
	ErrNotAFile          = errors.New("path is not a file")
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrImageTooLarge     = errors.New("image exceeds size limit")
)

// imageTypes maps supported lower-case extensions to MIME types.
var imageTypes = map[string]string{
	".bmp":  "image/bmp",
	".gif":  "image/gif",
	".jpeg": "image/jpeg",
	".jpg":  "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// ImageReadTool loads a local image and returns it as vision content.
type ImageReadTool struct {
	maxBytes int64
	vision   bool
}

// NewImageReadTool constructs the image_read tool. maxSizeMB <= 0 selects the
// default limit; vision reports whether the consuming model accepts images.
func NewImageReadTool(maxSizeMB int, vision bool) *ImageReadTool {
	if maxSizeMB <= 0 {
		maxSizeMB = DefaultImageMaxMB
	}
	return &ImageReadTool{maxBytes: int64(maxSizeMB) * 1024 * 1024, vision: vision}
}

func (t *ImageReadTool) Name() string { return "image_read" }

func (t *ImageReadTool) Description() string {
	desc := fmt.Sprintf(`Load a local image file and return it to the LLM as vision content.

Usage:
- Provide an absolute path, or a path relative to the current workspace.
- Supported formats: %s
- Max file size: %d MB.

Notes:
- Use this when you need to inspect screenshots, design assets, or other images that were generated or already exist on disk.
- This tool is read-only and will not modify files.`, strings.Join(SupportedImageExtensions(), ", "), t.maxBytes/(1024*1024))
	if !t.vision {
		desc += "\nWarning: Current LLM does not have vision enabled."
	}
	return desc
}

func (t *ImageReadTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "Path to the image file. Relative paths are resolved against the current workspace; absolute paths are also supported.",
			},
		},
		"required":             []string{"path"},
		"additionalProperties": false,
	}
}

func (t *ImageReadTool) Annotations() Annotations {
	return Annotations{Title: "image_read", ReadOnly: true, Idempotent: true}
}

type imageInput struct {
	Path string `json:"path"`
}

// ImageObservation is the image_read payload.
type ImageObservation struct {
	Path      string `json:"path"`
	MIMEType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
	DataURL   string `json:"data_url"`
}

// Summary describes the image without its data.
func (o ImageObservation) Summary() string {
	return fmt.Sprintf("Loaded image from %s\nMIME type: %s\nSize: %d bytes", o.Path, o.MIMEType, o.SizeBytes)
}

// Content renders the observation as chat content: a text summary followed
// by the image itself.
func (o ImageObservation) Content() []openai.ChatCompletionContentPartUnionParam {
	return []openai.ChatCompletionContentPartUnionParam{
		openai.TextContentPart(o.Summary()),
		openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: o.DataURL}),
	}
}

func (t *ImageReadTool) Execute(ctx context.Context, input json.RawMessage, meta Meta) (Result, error) {
	var args imageInput
	if err := json.Unmarshal(input, &args); err != nil {
		return Result{}, err
	}
	if strings.TrimSpace(args.Path) == "" {
		return Result{}, errors.New("path is required")
	}
	start := time.Now()

	obs, err := t.Read(ctx, meta.Workspace, args.Path)
	if err != nil {
		return Result{}, err
	}
	preview := obs.Summary()
	duration := time.Since(start).Milliseconds()
	return Result{ToolName: t.Name(), Payload: obs, Preview: preview, LineCount: 3, ByteCount: int(obs.SizeBytes), DurationMs: duration}, nil
}

// Read resolves path against root and loads the image. An empty root disables
// the containment check.
func (t *ImageReadTool) Read(ctx context.Context, root, path string) (ImageObservation, error) {
	resolved, err := workspace.Resolve(root, path)
	if err != nil {
		return ImageObservation{}, err
	}

	info, err := os.Stat(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ImageObservation{}, fmt.Errorf("%w: %s", ErrImageNotFound, resolved)
		}
		return ImageObservation{}, err
	}
	if !info.Mode().IsRegular() {
		return ImageObservation{}, fmt.Errorf("%w: %s", ErrNotAFile, resolved)
	}

	mimeType, ok := imageTypes[strings.ToLower(filepath.Ext(resolved))]
	if !ok {
		return ImageObservation{}, fmt.Errorf("%w for %s. Supported extensions: %s", ErrUnsupportedFormat, resolved, strings.Join(SupportedImageExtensions(), ", "))
	}

	if info.Size() > t.maxBytes {
		return ImageObservation{}, fmt.Errorf("%w: image size %d bytes exceeds limit of %d bytes", ErrImageTooLarge, info.Size(), t.maxBytes)
	}
	if err := ctx.Err(); err != nil {
		return ImageObservation{}, err
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return ImageObservation{}, err
	}
	if int64(len(data)) > t.maxBytes {
		return ImageObservation{}, fmt.Errorf("%w: image size %d bytes exceeds limit of %d bytes", ErrImageTooLarge, len(data), t.maxBytes)
	}
	return ImageObservation{
		Path:      resolved,
		MIMEType:  mimeType,
		SizeBytes: int64(len(data)),
		DataURL:   "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data),
	}, nil
}

// SupportedImageExtensions returns the accepted extensions, sorted.
func SupportedImageExtensions() []string {
	exts := make([]string, 0, len(imageTypes))
	for ext := range imageTypes {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
