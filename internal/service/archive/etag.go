package archive

import (
	"fmt"
	"hash/fnv"
	"io/fs"
	"sort"
	"time"
)

// directoryETag computes a weak validator for a directory's contents:
// a function of the directory's modification time, its entry count and
// an FNV hash over the sorted entry names and sizes. Adding, removing
// or resizing an entry changes the tag; an unchanged directory yields
// the same tag on every call.
func directoryETag(modTime time.Time, entries []fs.DirEntry) string {
	names := make([]string, 0, len(entries))
	sizes := make(map[string]int64, len(entries))

	for _, entry := range entries {
		names = append(names, entry.Name())
		if info, err := entry.Info(); err == nil && !info.IsDir() {
			sizes[entry.Name()] = info.Size()
		}
	}
	sort.Strings(names)

	h := fnv.New64a()
	for _, name := range names {
		fmt.Fprintf(h, "%s\x00%d\x00", name, sizes[name])
	}

	return fmt.Sprintf(`W/"%d-%x-%x"`, len(entries), modTime.UnixNano(), h.Sum64())
}
