package logging

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewWithoutPathWritesToStdout(t *testing.T) {
	l := New("test: ", "")
	require.NotNil(t, l)
}

func TestNewWithPathLogsThroughFileSink(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "msginfra.log")

	l := New("test: ", path)
	l.Println("hello")
}
