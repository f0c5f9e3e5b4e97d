package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/autobear/autobear/internal/cli"
	"github.com/autobear/autobear/pkg/version"
)

func TestMainComponents(t *testing.T) {
	t.Run("version available", func(t *testing.T) {
		assert.NotEmpty(t, version.GetVersion())
	})

	t.Run("cli root command", func(t *testing.T) {
		root := cli.NewRootCmd(version.GetVersion())
		assert.NotNil(t, root)
		assert.Equal(t, "autobear", root.Use)
	})
}

func TestExtractExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "nil error returns 0",
			err:  nil,
			want: 0,
		},
		{
			name: "exit code error carries the script's code",
			err:  &cli.ExitCodeError{ExitCode: 3, Reason: "script failed"},
			want: 3,
		},
		{
			name: "interrupt maps to 1",
			err:  &cli.ExitCodeError{ExitCode: 1, Reason: "script execution interrupted by user"},
			want: 1,
		},
		{
			name: "wrapped exit code error is unwrapped",
			err:  errors.Join(errors.New("outer"), &cli.ExitCodeError{ExitCode: 7, Reason: "wrapped"}),
			want: 7,
		},
		{
			name: "generic error falls through to 1",
			err:  errors.New("generic error"),
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractExitCode(tt.err))
		})
	}
}
