package main

import (
	"fmt"

	"xdao.co/nameres/codec"
	"xdao.co/nameres/model"
	"xdao.co/nameres/namesys"
	"xdao.co/nameres/resmap"
	"xdao.co/nameres/resolver"
)

func (c *cli) cmdName(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(c.errOut, "usage: xdao-nrs name <subcommand> ...")
		fmt.Fprintln(c.errOut, "subcommands: create, add, remove, get, link")
		return 2
	}
	switch args[0] {
	case "create", "add":
		return c.cmdNameWrite(args[0], args[1:])
	case "remove":
		return c.cmdNameRemove(args[1:])
	case "get":
		return c.cmdNameGet(args[1:])
	case "link":
		return c.cmdNameLink(args[1:])
	default:
		fmt.Fprintf(c.errOut, "unknown name subcommand: %s\n", args[0])
		return 2
	}
}

func (c *cli) cmdNameWrite(sub string, args []string) int {
	fs := c.flagSet("name " + sub)
	sf := addStoreFlags(fs)
	makeDefault := fs.Bool("default", false, "make this entry the map's default")
	preview := fs.Bool("preview", false, "compute the result without writing")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 || fs.NArg() > 2 {
		return c.usage("name " + sub + " <name> [<destination>] [--default] [--preview]")
	}
	name, destination := fs.Arg(0), fs.Arg(1)

	s, err := sf.session(c)
	if err != nil {
		return c.fail(err)
	}
	defer s.Close()

	write := s.protocol.Add
	if sub == "create" {
		write = s.protocol.Create
	}
	res, err := write(name, destination, *makeDefault, *preview)
	if err != nil {
		return c.fail(err)
	}
	return c.printResult(sf.format, res, *preview)
}

func (c *cli) cmdNameRemove(args []string) int {
	fs := c.flagSet("name remove")
	sf := addStoreFlags(fs)
	preview := fs.Bool("preview", false, "compute the result without writing")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		return c.usage("name remove <name> [--preview]")
	}

	s, err := sf.session(c)
	if err != nil {
		return c.fail(err)
	}
	defer s.Close()

	res, err := s.protocol.Remove(fs.Arg(0), *preview)
	if err != nil {
		return c.fail(err)
	}
	return c.printResult(sf.format, res, *preview)
}

func (c *cli) cmdNameGet(args []string) int {
	fs := c.flagSet("name get")
	sf := addStoreFlags(fs)
	diag := fs.Bool("diag", false, "print the stored payload in CBOR diagnostic notation")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		return c.usage("name get [--diag] <name|locator>")
	}

	s, err := sf.session(c)
	if err != nil {
		return c.fail(err)
	}
	defer s.Close()

	opts, err := sf.resolve.options()
	if err != nil {
		return c.fail(err)
	}
	l, err := resolver.ResolveWithOptions(fs.Arg(0), opts)
	if err != nil {
		return c.fail(err)
	}
	if !l.IsResolutionMap() {
		return c.fail(model.NewError(model.ErrInvalidRequest, "input does not address a resolution map"))
	}
	version, m, err := s.protocol.Get(l.WithoutSubnames().WithPath(""))
	if err != nil {
		return c.fail(err)
	}
	if !*diag {
		return c.printMap(sf.format, version, m)
	}
	if version == 0 {
		fmt.Fprintln(c.out, "# empty container")
		return 0
	}
	entry, err := s.store.GetVersioned(l.Address, l.VersionTag, version)
	if err != nil {
		return c.fail(err)
	}
	text, err := codec.Diagnose(entry.Value)
	if err != nil {
		return c.fail(err)
	}
	fmt.Fprintf(c.out, "# version %d, key %s\n%s\n", version, entry.Key, text)
	return 0
}

func (c *cli) cmdNameLink(args []string) int {
	fs := c.flagSet("name link")
	sf := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		return c.usage("name link <name|locator>")
	}

	s, err := sf.session(c)
	if err != nil {
		return c.fail(err)
	}
	defer s.Close()

	link, err := s.protocol.ResolveLink(fs.Arg(0))
	if err != nil {
		return c.fail(err)
	}
	fmt.Fprintln(c.out, link)
	return 0
}

func (c *cli) printResult(format string, res namesys.Result, preview bool) int {
	if format != "text" {
		return c.json(model.FromResult(res, preview))
	}
	for _, p := range model.FromProcessed(res.Processed) {
		fmt.Fprintf(c.out, "%s %s\t%s\n", resmap.Action(p.Action).Sign(), p.Name, p.Link)
	}
	suffix := ""
	if preview {
		suffix = " (preview, not written)"
	}
	fmt.Fprintf(c.out, "version %d at %s%s\n", res.Version, res.Locator, suffix)
	return 0
}

func (c *cli) printMap(format string, version uint64, m *resmap.Map) int {
	if format != "text" {
		return c.json(model.FromMap(version, m))
	}
	fmt.Fprintf(c.out, "version %d\n", version)
	switch m.Default.Kind {
	case resmap.DefaultSubname:
		fmt.Fprintf(c.out, "default -> %s\n", m.Default.Ref)
	case resmap.DefaultLink:
		fmt.Fprintf(c.out, "default\t%s\n", m.Default.Ref)
	}
	for _, k := range m.Keys() {
		fmt.Fprintf(c.out, "%s\t%s\n", k, m.Subnames[k])
	}
	return 0
}
