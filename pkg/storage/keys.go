package storage

import (
	"fmt"
	"math/rand/v2"
	"path"
	"strings"
	"time"
)

const (
	FolderDefault = "ahlanjobs/"
	FolderSmall   = "small/"
)

// KeyPrefixes are the folders uploads are written under.
var KeyPrefixes = []string{FolderDefault, FolderSmall}

// NewObjectKey builds folder/{rand}_{unixms}_{name} with spaces replaced.
func NewObjectKey(folder, filename string, now time.Time) string {
	name := strings.ReplaceAll(path.Base(filename), " ", "_")
	return fmt.Sprintf("%s%d_%d_%s", folder, rand.IntN(999), now.UnixMilli(), name)
}
