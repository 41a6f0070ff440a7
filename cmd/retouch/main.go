// Command retouch applies a one-shot edit to an image file.
//
//	retouch -in photo.jpg -filter sepia -text "Hello" -stroke 10,10,80,40 -out edited.png
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gogpu/retouch"
	"github.com/gogpu/retouch/store"
)

// pointList collects repeated "x1,y1,x2,y2,..." flags, one stroke each.
type pointList [][]retouch.Point

func (l *pointList) String() string { return fmt.Sprint(len(*l), " strokes") }

func (l *pointList) Set(s string) error {
	pts, err := parsePoints(s)
	if err != nil {
		return err
	}
	*l = append(*l, pts)
	return nil
}

func parsePoints(s string) ([]retouch.Point, error) {
	fields := strings.Split(s, ",")
	if len(fields)%2 != 0 || len(fields) == 0 {
		return nil, fmt.Errorf("want an even number of coordinates, got %q", s)
	}
	pts := make([]retouch.Point, 0, len(fields)/2)
	for i := 0; i < len(fields); i += 2 {
		x, err := strconv.ParseFloat(strings.TrimSpace(fields[i]), 64)
		if err != nil {
			return nil, err
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(fields[i+1]), 64)
		if err != nil {
			return nil, err
		}
		pts = append(pts, retouch.Pt(x, y))
	}
	return pts, nil
}

type options struct {
	in, out     string
	filter      string
	strokes     pointList
	strokeColor string
	strokeWidth float64
	text        string
	textColor   string
	textSize    float64
	family      string
	scale       float64
	rotate      float64
	translate   string
	maxDim      int
	quality     int
	recent      string
}

func main() {
	var o options
	flag.StringVar(&o.in, "in", "", "input image")
	flag.StringVar(&o.out, "out", "edited.png", "output file (.png or .jpg)")
	flag.StringVar(&o.filter, "filter", "", "filter name ("+strings.Join(filterNames(), ", ")+")")
	flag.Var(&o.strokes, "stroke", "stroke points x1,y1,x2,y2,... (repeatable)")
	flag.StringVar(&o.strokeColor, "stroke-color", "#ff0000", "stroke color")
	flag.Float64Var(&o.strokeWidth, "stroke-width", retouch.DefaultStrokeWidth, "stroke width")
	flag.StringVar(&o.text, "text", "", "text overlay, centered on the image")
	flag.StringVar(&o.textColor, "text-color", "#ffffff", "text color")
	flag.Float64Var(&o.textSize, "text-size", retouch.DefaultFontSize, "text size in pixels")
	flag.StringVar(&o.family, "font", "", "font family")
	flag.Float64Var(&o.scale, "scale", 1, "scale factor")
	flag.Float64Var(&o.rotate, "rotate", 0, "rotation in degrees")
	flag.StringVar(&o.translate, "translate", "", "translation dx,dy")
	flag.IntVar(&o.maxDim, "max-dim", 0, "downscale the input so neither side exceeds this")
	flag.IntVar(&o.quality, "quality", 90, "JPEG quality")
	flag.StringVar(&o.recent, "save-recent", "", "also save the edit to this recent edits directory")
	verbose := flag.Bool("v", false, "log edit steps")
	flag.Parse()

	if *verbose {
		retouch.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}
	if o.in == "" {
		flag.Usage()
		os.Exit(2)
	}
	if err := run(context.Background(), o); err != nil {
		log.Fatalf("retouch: %v", err)
	}
}

func filterNames() []string {
	var names []string
	for _, k := range retouch.AllFilterKinds() {
		names = append(names, k.String())
	}
	return names
}

func run(ctx context.Context, o options) error {
	f, err := os.Open(o.in)
	if err != nil {
		return err
	}
	img, format, err := retouch.Decode(f)
	f.Close()
	if err != nil {
		return err
	}

	s, err := retouch.NewSession(retouch.WithMaxDimension(o.maxDim))
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.LoadImage(img); err != nil {
		return err
	}

	if o.filter != "" {
		kind, err := retouch.ParseFilterKind(o.filter)
		if err != nil {
			return err
		}
		task, err := s.ApplyFilter(ctx, kind)
		if err != nil {
			return err
		}
		if _, err := task.Wait(ctx); err != nil {
			return err
		}
	}

	if len(o.strokes) > 0 {
		color, err := retouch.ParseHex(o.strokeColor)
		if err != nil {
			return err
		}
		for _, pts := range o.strokes {
			if err := s.AddStroke(pts, color, o.strokeWidth); err != nil {
				return err
			}
			if _, err := s.EndStroke(); err != nil {
				return err
			}
		}
	}

	if o.text != "" {
		color, err := retouch.ParseHex(o.textColor)
		if err != nil {
			return err
		}
		font := retouch.FontDescriptor{Family: o.family, Size: o.textSize}
		if _, err := s.AddText(o.text, font, color); err != nil {
			return err
		}
	}

	var d retouch.TransformDelta
	if o.scale != 1 {
		d.Scale = &o.scale
	}
	if o.rotate != 0 {
		rad := o.rotate * math.Pi / 180
		d.Rotation = &rad
	}
	if o.translate != "" {
		pts, err := parsePoints(o.translate)
		if err != nil || len(pts) != 1 {
			return fmt.Errorf("invalid -translate %q", o.translate)
		}
		d.Translation = &pts[0]
	}
	if !d.IsEmpty() {
		if err := s.SetTransform(d); err != nil {
			return err
		}
	}

	out, err := s.ExportFlattened()
	if err != nil {
		return err
	}
	if err := save(out, o.out, o.quality); err != nil {
		return err
	}
	log.Printf("Edited %s (%s, %dx%d) saved to %s\n", o.in, format, out.Width(), out.Height(), o.out)

	if o.recent != "" {
		recent, err := store.Open(ctx, store.Config{Type: "filesystem", Path: o.recent})
		if err != nil {
			return err
		}
		defer store.Close(recent)
		id, err := s.SaveRecent(ctx, recent)
		if err != nil {
			return err
		}
		log.Printf("Saved to recent edits as %s\n", id)
	}
	return nil
}

func save(img *retouch.ImageBuffer, path string, quality int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		err = img.EncodeJPEG(f, quality)
	default:
		err = img.EncodePNG(f)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}
