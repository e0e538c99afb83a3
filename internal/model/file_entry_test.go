package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanDirPath(t *testing.T) {
	assert.Equal(t, "/", CleanDirPath(""))
	assert.Equal(t, "/", CleanDirPath("/"))
	assert.Equal(t, "/public_html", CleanDirPath("public_html/"))
	assert.Equal(t, "/a/c", CleanDirPath("/a/b/../c"))
}

func TestFileEntry_FullPath(t *testing.T) {
	root := FileEntry{Name: "public_html", Path: "/"}
	assert.Equal(t, "/public_html", root.FullPath())

	nested := FileEntry{Name: "index.html", Path: "/public_html"}
	assert.Equal(t, "/public_html/index.html", nested.FullPath())
}
