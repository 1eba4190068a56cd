// Package device is the Device I/O collaborator (SPEC_FULL.md §4.I):
// evdev discovery/grab/read behind a Source, a uinput Sink, and the
// devices-file format of spec §6. Grounded on
// other_examples/Danondso-palaver's hotkey_linux.go for the
// open-grab-ReadOne shape and on riffkey's config-file line-parsing
// style for ParseDevicesFile.
package device

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ParseDevicesFile reads the devices file format of spec §6: one
// entry per line, blank lines and `# ...` comments ignored. Each
// entry is either an absolute /dev/input/... path, kept verbatim, or
// a POSIX ERE to be matched against /dev/input/by-id and
// /dev/input/by-path entries (resolved by ResolveEntries).
func ParseDevicesFile(r io.Reader) ([]string, error) {
	var entries []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		entries = append(entries, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// byIDDir and byPathDir are the symlink directories an ERE entry
// matches against (spec §6); overridable in tests.
var (
	byIDDir   = "/dev/input/by-id"
	byPathDir = "/dev/input/by-path"
)

// ResolveEntries turns each devices-file entry into zero or more
// absolute /dev/input/eventN paths: an absolute path entry resolves to
// itself, an ERE entry resolves to every by-id/by-path symlink whose
// name matches, deduplicated against the link's target.
func ResolveEntries(entries []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(path string) {
		if path != "" && !seen[path] {
			seen[path] = true
			out = append(out, path)
		}
	}

	for _, e := range entries {
		if strings.HasPrefix(e, "/dev/input/") {
			add(e)
			continue
		}
		re, err := regexp.CompilePOSIX(e)
		if err != nil {
			return nil, err
		}
		for _, dir := range []string{byIDDir, byPathDir} {
			matches, err := matchSymlinks(dir, re)
			if err != nil {
				continue // a missing by-id/by-path dir is not fatal
			}
			for _, m := range matches {
				add(m)
			}
		}
	}
	return out, nil
}

// matchSymlinks lists dir and resolves every entry whose name matches
// re to its target /dev/input/eventN path.
func matchSymlinks(dir string, re *regexp.Regexp) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !re.MatchString(e.Name()) {
			continue
		}
		target, err := os.Readlink(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(dir, target)
		}
		abs, err := filepath.Abs(target)
		if err != nil {
			continue
		}
		out = append(out, filepath.Clean(abs))
	}
	return out, nil
}
