// Command namehash prints the address and resolution-map locator derived for
// a public name. It reads names from arguments, or one per line from stdin.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"xdao.co/nameres/resolver"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, in io.Reader, out, errOut io.Writer) int {
	if len(args) == 1 && (args[0] == "-h" || args[0] == "--help") {
		fmt.Fprintln(out, "usage: namehash <name> [<name> ...]  (or names on stdin)")
		return 0
	}

	names := args
	if len(names) == 0 {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			if line := strings.TrimSpace(sc.Text()); line != "" {
				names = append(names, line)
			}
		}
		if err := sc.Err(); err != nil {
			fmt.Fprintf(errOut, "read: %v\n", err)
			return 1
		}
	}
	if len(names) == 0 {
		fmt.Fprintln(errOut, "usage: namehash <name> [<name> ...]")
		return 2
	}

	code := 0
	for _, raw := range names {
		n, err := resolver.ParseName(raw)
		if err != nil {
			fmt.Fprintf(errOut, "%s: %v\n", raw, err)
			code = 1
			continue
		}
		fmt.Fprintf(out, "%s\t%s\t%s\n", n.Host(), n.Address(), n.Locator())
	}
	return code
}
