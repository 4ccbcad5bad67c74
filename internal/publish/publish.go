// Package publish moves finished renditions into a publish directory and
// renders a static playback page next to them.
package publish

import (
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"

	"streambake/internal/model"
	"streambake/internal/util"
	"streambake/internal/util/format"
)

// Options configure a publish step.
type Options struct {
	Dir   string // destination directory; created if missing
	Title string // page heading, typically the output prefix
}

// Manifest describes what Publish produced.
type Manifest struct {
	PagePath string
	Files    []string // published rendition paths, in input order
}

const pageName = "play.html"

var pageTmpl = template.Must(template.New(pageName).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 2em; background: #111; color: #eee; }
video { max-width: 100%; background: #000; }
section { margin-bottom: 2em; }
h2 { font-size: 1em; color: #aaa; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{range .Videos}}
<section>
<h2>{{.Device}} {{.Width}}x{{.Height}} ({{.Size}})</h2>
<video controls preload="metadata" src="{{.File}}"></video>
</section>
{{end}}
</body>
</html>
`))

type pageVideo struct {
	File   string
	Device string
	Width  int
	Height int
	Size   string
}

type pageData struct {
	Title  string
	Videos []pageVideo
}

// Publish moves each rendition into opts.Dir and writes the playback page.
// The moved paths replace the originals in the returned manifest.
func Publish(videos []model.EncodedVideo, opts Options) (Manifest, error) {
	if opts.Dir == "" {
		return Manifest{}, fmt.Errorf("publish directory is required")
	}
	if err := util.EnsureDir(opts.Dir); err != nil {
		return Manifest{}, fmt.Errorf("ensure publish dir: %w", err)
	}

	var m Manifest
	data := pageData{Title: opts.Title}
	for _, v := range videos {
		dst := filepath.Join(opts.Dir, filepath.Base(v.OutputPath))
		if err := moveFile(v.OutputPath, dst); err != nil {
			return Manifest{}, fmt.Errorf("publish %s: %w", v.OutputPath, err)
		}
		m.Files = append(m.Files, dst)
		data.Videos = append(data.Videos, pageVideo{
			File:   filepath.Base(dst),
			Device: v.Device,
			Width:  v.Width,
			Height: v.Height,
			Size:   format.HumanizeBytes(v.Bytes),
		})
	}

	m.PagePath = filepath.Join(opts.Dir, pageName)
	f, err := os.Create(m.PagePath)
	if err != nil {
		return Manifest{}, fmt.Errorf("create playback page: %w", err)
	}
	defer f.Close()
	if err := pageTmpl.Execute(f, data); err != nil {
		return Manifest{}, fmt.Errorf("render playback page: %w", err)
	}
	return m, nil
}

// moveFile renames src to dst, falling back to copy+remove when the publish
// directory lives on another filesystem.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
