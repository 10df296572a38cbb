// Package sessiontest holds recorded sessions shared by tests.
package sessiontest

import "strings"

// CanonicalLog describes "/" with directories a, d and two files; a holds e.
const CanonicalLog = `$ cd /
$ ls
dir a
14848514 b.txt
8504156 c.dat
dir d
$ cd a
$ ls
dir e
29116 f
2557 g
62596 h.lst
$ cd e
$ ls
584 i
$ cd ..
$ cd ..
$ cd d
$ ls
4060174 j
8033020 d.log
5626152 d.ext
7214296 k
`

// Canonical sizes of CanonicalLog.
const (
	CanonicalRootSize int64 = 48381165
	CanonicalASize    int64 = 94853
	CanonicalESize    int64 = 584
	CanonicalDSize    int64 = 24933642
	CanonicalSmallSum int64 = 95437
)

// CanonicalLines returns CanonicalLog split into lines without the trailing empty line.
func CanonicalLines() []string {
	return Lines(CanonicalLog)
}

// Lines splits a literal session into lines.
func Lines(text string) []string {
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}
