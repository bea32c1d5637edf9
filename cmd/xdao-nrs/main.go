package main

import (
	"fmt"
	"io"
	"os"

	_ "xdao.co/nameres/storage/grpcstore"
	_ "xdao.co/nameres/storage/ipfs"
	_ "xdao.co/nameres/storage/localfs"
	_ "xdao.co/nameres/storage/memstore"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, in io.Reader, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	c := &cli{in: in, out: out, errOut: errOut}
	switch args[0] {
	case "resolve":
		return c.cmdResolve(args[1:])
	case "locator":
		return c.cmdLocator(args[1:])
	case "name":
		return c.cmdName(args[1:])
	case "blob":
		return c.cmdBlob(args[1:])
	case "bundle":
		return c.cmdBundle(args[1:])
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "xdao-nrs: locators and public-name resolution maps")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  xdao-nrs resolve [--compliance permissive|strict] [--base <b>] <input>")
	fmt.Fprintln(w, "  xdao-nrs locator decode <locator>")
	fmt.Fprintln(w, "  xdao-nrs locator encode --address <hex> --version-tag <n> --data-kind <k> --content-kind <k> [--base <b>] [--path <p>] [--subname <s> ...]")
	fmt.Fprintln(w, "  xdao-nrs locator kinds")
	fmt.Fprintln(w, "  xdao-nrs name create <name> <destination> [--default] [--preview]")
	fmt.Fprintln(w, "  xdao-nrs name add <name> [<destination>] [--default] [--preview]")
	fmt.Fprintln(w, "  xdao-nrs name remove <name> [--preview]")
	fmt.Fprintln(w, "  xdao-nrs name get [--diag] <name|locator>")
	fmt.Fprintln(w, "  xdao-nrs name link <name|locator>")
	fmt.Fprintln(w, "  xdao-nrs blob put [--content-type <kind>] [<file>|-]")
	fmt.Fprintln(w, "  xdao-nrs blob get [-o <file>] <cid|locator>")
	fmt.Fprintln(w, "  xdao-nrs bundle export -o <file> [--name <name> ...] [--blob <cid> ...] [--index] [--compression zstd|lz4]")
	fmt.Fprintln(w, "  xdao-nrs bundle import [--ignore-unknown] [<file>|-]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Store flags (name, blob, bundle):")
	fmt.Fprintln(w, "  --backend <name>        storage backend (grpc, localfs, memory); default localfs")
	fmt.Fprintln(w, "  --store-config <file>   YAML or JSONC store config; overrides --backend")
	fmt.Fprintln(w, "  --log-level <level>     debug, info, warn, error, off; logs go to stderr")
	fmt.Fprintln(w, "  --format json|text      output of name commands; default json")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - names look like [sub.]*public[/path]; only the public label is hashed")
	fmt.Fprintln(w, "  - mutations print a JSON result; --preview computes it without writing")
	fmt.Fprintln(w, "  - name get honors ?v=<version> on its input")
	fmt.Fprintln(w, "  - failures print CODE: message to stderr and exit 1")
}
