package main

import (
	"bufio"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xiaobogaga/hq9plus/compiler/internal"
	"go.uber.org/zap/zaptest"
)

func TestBuildOptions_Precedence(t *testing.T) {
	t.Setenv("HQ9_HELLO_TEXT", "from env")
	t.Setenv("HQ9_BOTTLES", "5")
	t.Setenv("HQ9_ALLOW_OVERFLOW", "false")
	t.Setenv("HQ9_SOURCE_ENCODING", "ISO-8859-1")

	config := filepath.Join(t.TempDir(), "options.hcl")
	require.Nil(t, os.WriteFile(config, []byte("bottles_of_beer = 7\nq_method_name = \"quine\"\n"), 0644))
	require.Nil(t, flag.Set("config", config))
	require.Nil(t, flag.Set("qmn", "echo"))
	require.Nil(t, flag.Set("class", "com.example.Beer"))
	defer func() {
		*configPath = ""
		*qMethodName = "Q"
		*className = ""
	}()

	options, sourceEncoding, err := buildOptions("beer")
	require.Nil(t, err)
	assert.Equal(t, "from env", options.HelloWorldText)
	assert.False(t, options.AllowNumericOverflow)
	// the file overrides the environment, flags override the file
	assert.Equal(t, 7, options.BottlesOfBeer)
	assert.Equal(t, "echo", options.QMethodName)
	assert.Equal(t, "com.example.Beer", options.ClassName)
	assert.Equal(t, "ISO-8859-1", sourceEncoding)
	assert.Equal(t, "H", options.HMethodName)
	assert.Nil(t, options.Validate())
}

func TestBuildOptions_DisrespectCase(t *testing.T) {
	options, _, err := buildOptions("Case")
	require.Nil(t, err)
	assert.True(t, options.RespectCase)

	require.Nil(t, flag.Set("drc", "true"))
	defer func() {
		*disrespectCase = false
	}()
	options, _, err = buildOptions("Case")
	require.Nil(t, err)
	assert.False(t, options.RespectCase)
}

func TestCheckSource(t *testing.T) {
	logger := zaptest.NewLogger(t)
	assert.Nil(t, checkSource(logger, bufio.NewReader(strings.NewReader("HQ9+")), true))

	err := checkSource(logger, bufio.NewReader(strings.NewReader("HQx9y")), true)
	assert.True(t, internal.IsUnrecognizedToken(err))
	assert.Contains(t, err.Error(), "position 2")

	assert.NotNil(t, checkSource(logger, bufio.NewReader(strings.NewReader("hq")), true))
	assert.Nil(t, checkSource(logger, bufio.NewReader(strings.NewReader("hq")), false))
}
