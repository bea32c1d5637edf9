package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"xdao.co/nameres/address"
	"xdao.co/nameres/resolver"
)

func TestRun_Args(t *testing.T) {
	var out, errOut bytes.Buffer
	code := run([]string{"blog.alice", "xdao://bob/index.html"}, strings.NewReader(""), &out, &errOut)
	require.Equal(t, 0, code, errOut.String())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)

	fields := strings.Split(lines[0], "\t")
	require.Equal(t, "blog.alice", fields[0])
	require.Equal(t, address.HashName("alice").String(), fields[1])

	want, err := resolver.Resolve("blog.alice")
	require.NoError(t, err)
	require.Equal(t, want.String(), fields[2])

	require.True(t, strings.HasPrefix(lines[1], "bob\t"+address.HashName("bob").String()))
}

func TestRun_Stdin(t *testing.T) {
	var out, errOut bytes.Buffer
	code := run(nil, strings.NewReader("alice\n\n  bob  \n"), &out, &errOut)
	require.Equal(t, 0, code)
	require.Equal(t, 2, strings.Count(out.String(), "\n"))
}

func TestRun_InvalidName(t *testing.T) {
	var out, errOut bytes.Buffer
	code := run([]string{"a..b", "ok"}, strings.NewReader(""), &out, &errOut)
	require.Equal(t, 1, code)
	require.Contains(t, errOut.String(), "a..b")
	require.Contains(t, out.String(), "ok\t")
}

func TestRun_NoInput(t *testing.T) {
	var out, errOut bytes.Buffer
	require.Equal(t, 2, run(nil, strings.NewReader(""), &out, &errOut))
}
