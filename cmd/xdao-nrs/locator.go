package main

import (
	"fmt"

	"xdao.co/nameres/locator"
	"xdao.co/nameres/model"
	"xdao.co/nameres/resolver"
)

func (c *cli) cmdResolve(args []string) int {
	fs := c.flagSet("resolve")
	rf := addResolveFlags(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		return c.usage("resolve [--compliance permissive|strict] [--base <b>] <input>")
	}
	opts, err := rf.options()
	if err != nil {
		return c.fail(err)
	}
	l, err := resolver.ResolveWithOptions(fs.Arg(0), opts)
	if err != nil {
		return c.fail(err)
	}
	return c.json(model.FromLocator(l))
}

func (c *cli) cmdLocator(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(c.errOut, "usage: xdao-nrs locator <subcommand> ...")
		fmt.Fprintln(c.errOut, "subcommands: decode, encode, kinds")
		return 2
	}
	switch args[0] {
	case "decode":
		fs := c.flagSet("locator decode")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if fs.NArg() != 1 {
			return c.usage("locator decode <locator>")
		}
		l, err := locator.Decode(fs.Arg(0))
		if err != nil {
			return c.fail(err)
		}
		return c.json(model.FromLocator(l))
	case "encode":
		return c.cmdLocatorEncode(args[1:])
	case "kinds":
		fmt.Fprintln(c.out, "data kinds:")
		for k := locator.DataKind(0); k.Valid(); k++ {
			fmt.Fprintf(c.out, "  %d\t%s\n", uint8(k), k)
		}
		fmt.Fprintln(c.out, "content kinds:")
		for _, name := range locator.ContentKindNames() {
			k, _ := locator.ParseContentKind(name)
			fmt.Fprintf(c.out, "  %#04x\t%s\n", uint16(k), name)
		}
		return 0
	default:
		fmt.Fprintf(c.errOut, "unknown locator subcommand: %s\n", args[0])
		return 2
	}
}

func (c *cli) cmdLocatorEncode(args []string) int {
	fs := c.flagSet("locator encode")
	var req model.EncodeRequest
	fs.StringVar(&req.Address, "address", "", "content address (64 hex chars)")
	fs.Uint64Var(&req.VersionTag, "version-tag", 0, "version tag")
	fs.StringVar(&req.DataKind, "data-kind", "", "data kind name")
	fs.StringVar(&req.ContentKind, "content-kind", "", "content kind name or media type")
	fs.StringVar(&req.Base, "base", "", "multibase of the header (default base32)")
	fs.StringVar(&req.Path, "path", "", "path suffix")
	fs.StringArrayVar(&req.Subnames, "subname", nil, "subname label, outermost first (repeatable)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 0 || req.Address == "" || req.DataKind == "" || req.ContentKind == "" {
		return c.usage("locator encode --address <hex> --version-tag <n> --data-kind <k> --content-kind <k> [--base <b>] [--path <p>] [--subname <s> ...]")
	}
	l, err := req.Encode()
	if err != nil {
		return c.fail(err)
	}
	fmt.Fprintln(c.out, l.String())
	return 0
}
