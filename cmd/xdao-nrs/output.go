package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"xdao.co/nameres/model"
)

// cli carries the output streams of one invocation.
type cli struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

func (c *cli) flagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(c.errOut)
	return fs
}

func (c *cli) usage(line string) int {
	fmt.Fprintln(c.errOut, "usage: xdao-nrs "+line)
	return 2
}

// fail prints err as "CODE: message" and returns the failure exit code.
func (c *cli) fail(err error) int {
	fmt.Fprintln(c.errOut, model.FromError(err).Error())
	return 1
}

func (c *cli) json(v any) int {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return c.fail(err)
	}
	_, _ = c.out.Write(append(b, '\n'))
	return 0
}
