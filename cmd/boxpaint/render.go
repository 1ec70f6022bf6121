package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/spf13/cobra"

	"boxpaint/pkg/logging"
	"boxpaint/pkg/paint"
	"boxpaint/pkg/render"
	"boxpaint/pkg/scene"
)

type renderOptions struct {
	output   string
	format   string
	width    int
	height   int
	dpi      float64
	platform string
	logLevel string
}

func newRenderCmd() *cobra.Command {
	var opts renderOptions
	cmd := &cobra.Command{
		Use:   "render <scene.yaml>",
		Short: "Render a scene file",
		Long: `Render a scene file to SVG, PNG or a JSON command log.

The format follows the output file's extension unless --format is given.
Size, DPI and platform default to the scene's settings block.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, args[0], opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "", "output file (- for stdout)")
	f.StringVar(&opts.format, "format", "", "output format: svg, png or json")
	f.IntVar(&opts.width, "width", 0, "output width in layout units")
	f.IntVar(&opts.height, "height", 0, "output height in layout units")
	f.Float64Var(&opts.dpi, "dpi", 0, "device pixels per layout unit")
	f.StringVar(&opts.platform, "platform", "", `target platform ("ios" draws continuous corners)`)
	f.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	cobra.CheckErr(cmd.MarkFlagRequired("output"))
	return cmd
}

func runRender(cmd *cobra.Command, scenePath string, opts renderOptions) error {
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logging.ParseLevel(opts.logLevel),
	}))
	logging.SetLogger(logger)
	defer logging.SetLogger(nil)

	format, err := outputFormat(opts)
	if err != nil {
		return err
	}
	sc, err := scene.Load(scenePath)
	if err != nil {
		return err
	}
	s := applyOverrides(sc.Settings, cmd, opts)
	logger.Info("rendering", "scene", scenePath, "format", format, "width", s.Width, "height", s.Height, "dpi", s.Scale())

	out, closeOut, err := openOutput(cmd, opts.output)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	renderOpts := []render.Option{render.WithImages(sc.Images()), render.WithLogger(logger)}

	switch format {
	case "svg":
		err = render.RenderToSVG(ctx, out, sc.Root, s, renderOpts...)
	case "png":
		img, rerr := render.RenderToImage(ctx, sc.Root, s, renderOpts...)
		if err = rerr; err == nil {
			err = imgio.PNGEncoder()(out, img)
		}
	case "json":
		rec, rerr := render.RecordCommands(ctx, sc.Root, s, renderOpts...)
		if err = rerr; err == nil {
			err = rec.WriteJSON(out)
		}
	}
	return errors.Join(err, closeOut())
}

func outputFormat(opts renderOptions) (string, error) {
	format := strings.ToLower(opts.format)
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(opts.output)), ".")
	}
	switch format {
	case "svg", "png", "json":
		return format, nil
	case "":
		return "", errors.New("cannot infer the output format; pass --format")
	}
	return "", fmt.Errorf("unknown output format %q", format)
}

func applyOverrides(s paint.Settings, cmd *cobra.Command, opts renderOptions) paint.Settings {
	f := cmd.Flags()
	if f.Changed("width") {
		s.Width = opts.width
	}
	if f.Changed("height") {
		s.Height = opts.height
	}
	if f.Changed("dpi") {
		s.DPI = opts.dpi
	}
	if f.Changed("platform") {
		s.Platform = opts.platform
	}
	return s
}

// openOutput returns a buffered writer for path and a function that flushes
// and closes it.
func openOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "-" {
		w := bufio.NewWriter(cmd.OutOrStdout())
		return w, w.Flush, nil
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output: %w", err)
	}
	w := bufio.NewWriter(file)
	return w, func() error {
		return errors.Join(w.Flush(), file.Close())
	}, nil
}
