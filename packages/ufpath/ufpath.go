// Package ufpath handles the slash separated paths exchanged between the
// sender and the receiver, relative to the transfer roots.
package ufpath

import (
	"fmt"
	"strings"
)

// Join joins any number of path elements into a single path,
// separating them with /, empty elements are skipped.
func Join(elem ...string) string {
	var kept []string
	for i, e := range elem {
		if e == "" {
			continue
		}
		if i > 0 {
			e = strings.TrimPrefix(e, "/")
		}
		if len(kept) > 0 && strings.HasSuffix(kept[len(kept)-1], "/") {
			kept[len(kept)-1] = strings.TrimSuffix(kept[len(kept)-1], "/")
		}
		kept = append(kept, e)
	}
	return strings.Join(kept, "/")
}

// Dir returns all but the last element of path, "" for a top level
// relative entry, "/" for an entry of the root directory.
func Dir(path string) string {
	path = strings.TrimRight(path, "/")
	i := strings.LastIndexByte(path, '/')
	if i < 0 {
		return ""
	}
	if i == 0 {
		return "/"
	}
	return path[:i]
}

// Rel returns path relative to root, "" for root itself.
// A root of "." or "" is the current directory, below which every
// relative path lies.
func Rel(root, path string) (string, error) {
	if root == "." || root == "" {
		if path == "." || path == "" {
			return "", nil
		}
		if strings.HasPrefix(path, "/") {
			return "", fmt.Errorf("%s is not below %s", path, root)
		}
		return strings.TrimPrefix(path, "./"), nil
	}
	root = strings.TrimRight(root, "/")
	if path == root {
		return "", nil
	}
	if root == "" {
		return strings.TrimPrefix(path, "/"), nil
	}
	if !strings.HasPrefix(path, root+"/") {
		return "", fmt.Errorf("%s is not below %s", path, root)
	}
	return path[len(root)+1:], nil
}

// Check fails for relative paths escaping their root or not in canonical form.
func Check(rel string) error {
	if rel == "" {
		return nil
	}
	if strings.HasPrefix(rel, "/") || strings.HasSuffix(rel, "/") {
		return fmt.Errorf("path %s is not relative", rel)
	}
	for _, e := range strings.Split(rel, "/") {
		if e == "" || e == "." || e == ".." {
			return fmt.Errorf("path %s has an invalid element %q", rel, e)
		}
	}
	return nil
}
