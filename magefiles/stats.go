//go:build mage

package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Stats prints Go line counts for production and test code per package.
func Stats() error {
	type counts struct{ prod, test int }
	perDir := map[string]*counts{}
	var dirs []string

	err := filepath.Walk(".", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			name := info.Name()
			if path != "." && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "vendor" || name == binaryDir || name == "magefiles") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") {
			return nil
		}
		n, err := countLines(path)
		if err != nil {
			return nil
		}
		dir := filepath.Dir(path)
		c, ok := perDir[dir]
		if !ok {
			c = &counts{}
			perDir[dir] = c
			dirs = append(dirs, dir)
		}
		if strings.HasSuffix(path, "_test.go") {
			c.test += n
		} else {
			c.prod += n
		}
		return nil
	})
	if err != nil {
		return err
	}

	var total counts
	fmt.Printf("%-24s %8s %8s\n", "package", "prod", "test")
	for _, dir := range dirs {
		c := perDir[dir]
		total.prod += c.prod
		total.test += c.test
		fmt.Printf("%-24s %8d %8d\n", dir, c.prod, c.test)
	}
	fmt.Printf("%-24s %8d %8d\n", "total", total.prod, total.test)
	return nil
}

// countLines counts non-blank lines.
func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	n := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) != "" {
			n++
		}
	}
	return n, sc.Err()
}
