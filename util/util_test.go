package util

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToUpperLetter(t *testing.T) {
	testData := []struct {
		r        rune
		expected rune
	}{
		{r: 'h', expected: 'H'},
		{r: 'H', expected: 'H'},
		{r: 'q', expected: 'Q'},
		{r: '9', expected: '9'},
		{r: '+', expected: '+'},
		{r: 'é', expected: 'é'},
	}
	for _, data := range testData {
		assert.Equal(t, data.expected, ToUpperLetter(data.r))
	}
	assert.True(t, IsLowerLetter('z'))
	assert.False(t, IsLowerLetter('Z'))
}

func TestClassNameFromPath(t *testing.T) {
	testData := []struct {
		path     string
		expected string
	}{
		{path: "hello.hq9", expected: "hello"},
		{path: filepath.Join("dir", "Beer.tar.hq9"), expected: "Beer"},
		{path: "noext", expected: "noext"},
	}
	for _, data := range testData {
		assert.Equal(t, data.expected, ClassNameFromPath(data.path))
	}
}

func TestClassFilePath(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "Hello.class"), ClassFilePath("out", "Hello"))
	assert.Equal(t, filepath.Join("out", "com", "example", "Main.class"), ClassFilePath("out", "com.example.Main"))
}
