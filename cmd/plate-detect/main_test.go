package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/plate-detect/internal/config"
)

func writeImage(t *testing.T, dir, name string, plate image.Rectangle) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 400, 300))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.Black}, image.Point{}, draw.Src)
	if !plate.Empty() {
		draw.Draw(img, plate, &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

var plateRect = image.Rect(125, 120, 275, 180)

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv(config.EnvLogLevel, "error")

	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_VersionAndHelp(t *testing.T) {
	code, out, _ := runCLI(t, "", "version")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, out, "plate-detect dev")

	code, out, _ = runCLI(t, "", "help")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, out, "annotate")

	code, _, errOut := runCLI(t, "")
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, errOut, "Usage:")
}

func TestRun_UnknownCommand(t *testing.T) {
	code, _, errOut := runCLI(t, "", "recognize", "car.png")
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, errOut, `unknown command "recognize"`)
}

func TestRun_WrongOperands(t *testing.T) {
	code, _, errOut := runCLI(t, "", "detect")
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, errOut, "wrong number of operands")

	code, _, errOut = runCLI(t, "", "crop", "car.png")
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, errOut, "-o is required")
}

func TestRun_SubcommandHelp(t *testing.T) {
	code, _, errOut := runCLI(t, "", "batch", "-h")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, errOut, "-workers")
}

func TestRun_Detect(t *testing.T) {
	dir := t.TempDir()
	input := writeImage(t, dir, "car.png", plateRect)

	code, out, _ := runCLI(t, "", "detect", input)
	require.Equal(t, exitOK, code)

	var res detectOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Found)
	assert.Equal(t, 1, res.Count)
	assert.Equal(t, 400, res.Width)
	require.Len(t, res.Plates, 1)
	assert.InDelta(t, 150, res.Plates[0].Box.Width, 3)
	assert.InDelta(t, 60, res.Plates[0].Box.Height, 3)
}

func TestRun_DetectNoPlateIsNotAnError(t *testing.T) {
	input := writeImage(t, t.TempDir(), "blank.png", image.Rectangle{})

	code, out, _ := runCLI(t, "", "detect", input)
	assert.Equal(t, exitOK, code)
	assert.Contains(t, out, `"found": false`)
}

func TestRun_DetectMissingFile(t *testing.T) {
	code, _, errOut := runCLI(t, "", "detect", filepath.Join(t.TempDir(), "missing.png"))
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, errOut, "missing.png")
	assert.Equal(t, 1, strings.Count(errOut, "\n"), "error should be a single line")
}

func TestRun_Annotate(t *testing.T) {
	dir := t.TempDir()
	input := writeImage(t, dir, "car.png", plateRect)
	outDir := t.TempDir()

	code, out, _ := runCLI(t, "", "annotate", "-out", outDir, input)
	require.Equal(t, exitOK, code)

	want := filepath.Join(outDir, config.DefaultOutputSubdir, "car.png")
	assert.Equal(t, want, strings.TrimSpace(out))
	assert.FileExists(t, want)
}

func TestRun_AnnotateNoPlate(t *testing.T) {
	input := writeImage(t, t.TempDir(), "blank.png", image.Rectangle{})
	outDir := t.TempDir()

	code, _, errOut := runCLI(t, "", "annotate", "-out", outDir, input)
	assert.Equal(t, exitNoPlate, code)
	assert.Contains(t, errOut, "no plate detected")
	assert.NoFileExists(t, filepath.Join(outDir, config.DefaultOutputSubdir, "blank.png"))
}

func TestRun_Crop(t *testing.T) {
	dir := t.TempDir()
	input := writeImage(t, dir, "car.png", plateRect)
	target := filepath.Join(dir, "plate.png")

	code, out, _ := runCLI(t, "", "crop", "-select", "first", "-scale", "0.5", "-o", target, input)
	require.Equal(t, exitOK, code)
	assert.Equal(t, target, strings.TrimSpace(out))

	f, err := os.Open(target)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.InDelta(t, 75, cfg.Width, 2)
	assert.InDelta(t, 30, cfg.Height, 2)
}

func TestRun_CropBadSelection(t *testing.T) {
	dir := t.TempDir()
	input := writeImage(t, dir, "car.png", plateRect)

	code, _, errOut := runCLI(t, "", "crop", "-select", "middle", "-o", filepath.Join(dir, "p.png"), input)
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, errOut, "middle")
}

func TestRun_Edges(t *testing.T) {
	dir := t.TempDir()
	input := writeImage(t, dir, "car.png", plateRect)
	target := filepath.Join(dir, "edges.png")

	code, _, _ := runCLI(t, "", "edges", "-o", target, input)
	require.Equal(t, exitOK, code)
	assert.FileExists(t, target)
}

func TestRun_Batch(t *testing.T) {
	dir := t.TempDir()
	a := writeImage(t, dir, "a.png", plateRect)
	b := writeImage(t, dir, "b.png", image.Rect(20, 20, 220, 100))
	outDir := t.TempDir()

	code, out, _ := runCLI(t, "", "batch", "-out", outDir, "-workers", "2", a, b)
	require.Equal(t, exitOK, code)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 2)
	assert.FileExists(t, filepath.Join(outDir, config.DefaultOutputSubdir, "a.png"))
	assert.FileExists(t, filepath.Join(outDir, config.DefaultOutputSubdir, "b.png"))
}

func TestRun_BatchPartialFailure(t *testing.T) {
	dir := t.TempDir()
	good := writeImage(t, dir, "good.png", plateRect)
	blank := writeImage(t, dir, "blank.png", image.Rectangle{})

	code, out, errOut := runCLI(t, "", "batch", "-out", t.TempDir(), good, blank)
	assert.Equal(t, exitNoPlate, code)
	assert.Contains(t, out, "good.png")
	assert.Contains(t, errOut, "1 of 2 images")

	missing := filepath.Join(dir, "missing.png")
	code, _, errOut = runCLI(t, "", "batch", "-out", t.TempDir(), good, blank, missing)
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, errOut, "2 of 3 images failed")
}

func TestRun_Serve(t *testing.T) {
	in := `{"jsonrpc":"2.0","id":1,"method":"ping"}` + "\n"

	code, out, _ := runCLI(t, in, "serve")
	require.Equal(t, exitOK, code)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":1,"result":{}}`, strings.TrimSpace(out))
}

func TestRun_InvalidConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("detection:\n  blur_kernel: 4\n"), 0o644))

	code, _, errOut := runCLI(t, "", "detect", "-config", cfgPath, "car.png")
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, errOut, "blur kernel")
}
