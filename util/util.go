package util

import (
	"path/filepath"
	"strings"
)

func IsLowerLetter(r rune) bool {
	return r >= 'a' && r <= 'z'
}

// ToUpperLetter folds an ascii lowercase letter to uppercase. Anything else is returned as is,
// so digits, symbols and non ascii letters keep their identity.
func ToUpperLetter(r rune) rune {
	if IsLowerLetter(r) {
		return r - 'a' + 'A'
	}
	return r
}

// ClassNameFromPath returns the file name of path up to its first dot: "dir/hello.hq9" gives "hello".
func ClassNameFromPath(path string) string {
	base := filepath.Base(path)
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	return base
}

// ClassFilePath is where a class named like com.example.Main lives below dir.
func ClassFilePath(dir, className string) string {
	segments := strings.Split(className, ".")
	segments[len(segments)-1] += ".class"
	return filepath.Join(append([]string{dir}, segments...)...)
}
