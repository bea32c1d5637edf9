package main

import (
	"fmt"
	"io"
	"os"

	"github.com/ipfs/go-cid"

	"xdao.co/nameres/cidutil"
	"xdao.co/nameres/locator"
	"xdao.co/nameres/model"
)

func (c *cli) cmdBlob(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(c.errOut, "usage: xdao-nrs blob <subcommand> ...")
		fmt.Fprintln(c.errOut, "subcommands: put, get")
		return 2
	}
	switch args[0] {
	case "put":
		return c.cmdBlobPut(args[1:])
	case "get":
		return c.cmdBlobGet(args[1:])
	default:
		fmt.Fprintf(c.errOut, "unknown blob subcommand: %s\n", args[0])
		return 2
	}
}

func (c *cli) cmdBlobPut(args []string) int {
	fs := c.flagSet("blob put")
	sf := addStoreFlags(fs)
	contentType := fs.String("content-type", "raw", "content kind of the printed locator (raw or a media type)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() > 1 {
		return c.usage("blob put [--content-type <kind>] [<file>|-]")
	}
	kind, err := locator.ParseContentKind(*contentType)
	if err != nil {
		return c.fail(model.NewError(model.ErrInvalidRequest, err.Error()))
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

	id, err := s.store.Put(data)
	if err != nil {
		return c.fail(err)
	}
	addr, err := cidutil.FromCID(id)
	if err != nil {
		return c.fail(err)
	}
	l := locator.New(addr, 0, locator.DataKindImmutableBlob, kind)
	if base := sf.resolve.base; base != "" {
		if l.Base, err = parseBase(base); err != nil {
			return c.fail(err)
		}
	}
	return c.json(blobResult{CID: id.String(), Locator: l.String(), Size: len(data)})
}

type blobResult struct {
	CID     string `json:"cid"`
	Locator string `json:"locator"`
	Size    int    `json:"size"`
}

// blobCID accepts a CID or an immutable-blob locator.
func blobCID(arg string) (cid.Cid, error) {
	if !locator.HasScheme(arg) {
		id, err := cid.Decode(arg)
		if err != nil {
			return cid.Undef, model.NewError(model.ErrInvalidRequest, fmt.Sprintf("invalid cid: %v", err))
		}
		return id, nil
	}
	l, err := locator.Decode(arg)
	if err != nil {
		return cid.Undef, err
	}
	if l.DataKind != locator.DataKindImmutableBlob {
		return cid.Undef, model.NewError(model.ErrInvalidRequest, fmt.Sprintf("locator addresses %s, not an immutable blob", l.DataKind))
	}
	return cidutil.ToCID(l.Address)
}

func (c *cli) cmdBlobGet(args []string) int {
	fs := c.flagSet("blob get")
	sf := addStoreFlags(fs)
	outPath := fs.StringP("output", "o", "", "write to file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		return c.usage("blob get [-o <file>] <cid|locator>")
	}
	id, err := blobCID(fs.Arg(0))
	if err != nil {
		return c.fail(err)
	}

	s, err := sf.session(c)
	if err != nil {
		return c.fail(err)
	}
	defer s.Close()

	data, err := s.store.Get(id)
	if err != nil {
		return c.fail(err)
	}
	if *outPath == "" {
		_, _ = c.out.Write(data)
		return 0
	}
	if err := os.WriteFile(*outPath, data, 0o644); err != nil {
		return c.fail(err)
	}
	return 0
}

// readInput reads a file, or stdin for "" and "-".
func (c *cli) readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(c.in)
	}
	return os.ReadFile(path)
}
