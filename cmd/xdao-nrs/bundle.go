package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/ipfs/go-cid"
	"go.uber.org/zap"

	"xdao.co/nameres/model"
	"xdao.co/nameres/resolver"
	"xdao.co/nameres/storage"
	"xdao.co/nameres/storage/bundle"
)

// bundleSummary lists what a bundle holds.
type bundleSummary struct {
	Blobs      []string `json:"blobs"`
	Containers []string `json:"containers"`
}

func summarize(c bundle.Contents) bundleSummary {
	out := bundleSummary{Blobs: []string{}, Containers: []string{}}
	for _, id := range c.Blobs {
		out.Blobs = append(out.Blobs, id.String())
	}
	for _, id := range c.Containers {
		out.Containers = append(out.Containers, id.String())
	}
	return out
}

func (c *cli) cmdBundle(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(c.errOut, "usage: xdao-nrs bundle <subcommand> ...")
		fmt.Fprintln(c.errOut, "subcommands: export, import")
		return 2
	}
	switch args[0] {
	case "export":
		return c.cmdBundleExport(args[1:])
	case "import":
		return c.cmdBundleImport(args[1:])
	default:
		fmt.Fprintf(c.errOut, "unknown bundle subcommand: %s\n", args[0])
		return 2
	}
}

func (c *cli) cmdBundleExport(args []string) int {
	fs := c.flagSet("bundle export")
	sf := addStoreFlags(fs)
	outPath := fs.StringP("output", "o", "", "bundle file to write (- for stdout)")
	names := fs.StringArray("name", nil, "public name whose map history to include (repeatable)")
	blobs := fs.StringArray("blob", nil, "blob CID to include (repeatable)")
	index := fs.Bool("index", false, "include index.json")
	compression := fs.String("compression", "", "compress the bundle: zstd|lz4")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 0 || *outPath == "" || len(*names)+len(*blobs) == 0 {
		return c.usage("bundle export -o <file> [--name <name> ...] [--blob <cid> ...] [--index] [--compression zstd|lz4]")
	}

	opts := bundle.ExportOptions{IncludeIndex: *index}
	comp, err := bundle.ParseCompression(*compression)
	if err != nil {
		return c.fail(model.NewError(model.ErrInvalidRequest, err.Error()))
	}
	opts.Compression = comp

	var contents bundle.Contents
	for _, raw := range *blobs {
		id, err := cid.Decode(raw)
		if err != nil {
			return c.fail(model.NewError(model.ErrInvalidRequest, fmt.Sprintf("invalid cid %q: %v", raw, err)))
		}
		contents.Blobs = append(contents.Blobs, id)
	}
	for _, raw := range *names {
		n, err := resolver.ParseName(raw)
		if err != nil {
			return c.fail(err)
		}
		contents.Containers = append(contents.Containers, storage.ContainerID{Address: n.Address(), Tag: resolver.NameMapVersionTag})
	}

	s, err := sf.session(c)
	if err != nil {
		return c.fail(err)
	}
	defer s.Close()

	var buf bytes.Buffer
	if err := bundle.Export(&buf, s.store, contents, opts); err != nil {
		return c.fail(err)
	}
	if *outPath == "-" {
		_, _ = c.out.Write(buf.Bytes())
		return 0
	}
	if err := os.WriteFile(*outPath, buf.Bytes(), 0o644); err != nil {
		return c.fail(err)
	}
	s.logger.Info("bundle written", zap.String("path", *outPath), zap.Int("bytes", buf.Len()))
	return c.json(summarize(contents))
}

func (c *cli) cmdBundleImport(args []string) int {
	fs := c.flagSet("bundle import")
	sf := addStoreFlags(fs)
	ignoreUnknown := fs.Bool("ignore-unknown", false, "skip unrecognized bundle entries")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() > 1 {
		return c.usage("bundle import [--ignore-unknown] [<file>|-]")
	}
	data, err := c.readInput(fs.Arg(0))
	if err != nil {
		return c.fail(model.NewError(model.ErrInvalidRequest, err.Error()))
	}

	s, err := sf.session(c)
	if err != nil {
		return c.fail(err)
	}
	defer s.Close()

	got, err := bundle.Import(bytes.NewReader(data), s.store, bundle.ImportOptions{IgnoreUnknown: *ignoreUnknown})
	if err != nil {
		return c.fail(err)
	}
	return c.json(summarize(got))
}
