/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordInput(t *testing.T) {
	orig := readPassword
	t.Cleanup(func() {
		readPassword = orig
		flagPassword = ""
	})

	readPassword = func(int) ([]byte, error) { return []byte("s3cret"), nil }
	var out bytes.Buffer
	pw, err := passwordInput(&out)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", pw)
	assert.Contains(t, out.String(), "Password: ")

	readPassword = func(int) ([]byte, error) { return nil, errors.New("not a terminal") }
	_, err = passwordInput(&out)
	assert.ErrorContains(t, err, "not a terminal")

	flagPassword = "from-flag"
	pw, err = passwordInput(&out)
	require.NoError(t, err)
	assert.Equal(t, "from-flag", pw)
}

func TestPrompt(t *testing.T) {
	var out bytes.Buffer
	got := prompt(&out, bufio.NewReader(strings.NewReader("  ada@example.com \n")), "Email: ")
	assert.Equal(t, "ada@example.com", got)
	assert.Equal(t, "Email: ", out.String())
}
