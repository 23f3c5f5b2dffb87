package object

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Serialization is deliberately hand-rolled and byte-stable: these bytes are
// the hash input for object ids, so the format can never drift.

// ---------------------------------------------------------------------------
// FileContent
// ---------------------------------------------------------------------------

// MarshalFileContent serializes a FileContent to raw bytes (identity).
func MarshalFileContent(f *FileContent) []byte {
	out := make([]byte, len(f.Data))
	copy(out, f.Data)
	return out
}

// UnmarshalFileContent deserializes raw bytes into a FileContent.
func UnmarshalFileContent(data []byte) (*FileContent, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return &FileContent{Data: out}, nil
}

// ---------------------------------------------------------------------------
// Tree
// ---------------------------------------------------------------------------

// MarshalTree serializes a Tree. Entries are sorted by Name for deterministic
// output. Each entry is one line:
//
//	f <fileid> <name>
//	d <treeid> <name>
//
// The name comes last so entry names may contain spaces.
func MarshalTree(t *Tree) []byte {
	sorted := make([]TreeEntry, len(t.Entries))
	copy(sorted, t.Entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	var buf bytes.Buffer
	for _, e := range sorted {
		if e.IsDir {
			fmt.Fprintf(&buf, "d %s %s\n", string(e.SubtreeID), e.Name)
		} else {
			fmt.Fprintf(&buf, "f %s %s\n", string(e.FileID), e.Name)
		}
	}
	return buf.Bytes()
}

// UnmarshalTree parses a Tree from its serialized form.
func UnmarshalTree(data []byte) (*Tree, error) {
	t := &Tree{}
	text := strings.TrimRight(string(data), "\n")
	if text == "" {
		return t, nil
	}
	for _, line := range strings.Split(text, "\n") {
		parts := strings.SplitN(line, " ", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("unmarshal tree: malformed entry %q", line)
		}
		if len(parts[1]) != IDHexLen {
			return nil, fmt.Errorf("unmarshal tree: bad id %q in entry %q", parts[1], line)
		}
		if parts[2] == "" {
			return nil, fmt.Errorf("unmarshal tree: empty name in entry %q", line)
		}
		switch parts[0] {
		case "f":
			t.Entries = append(t.Entries, TreeEntry{
				Name:   parts[2],
				FileID: FileContentID(parts[1]),
			})
		case "d":
			t.Entries = append(t.Entries, TreeEntry{
				Name:      parts[2],
				IsDir:     true,
				SubtreeID: TreeID(parts[1]),
			})
		default:
			return nil, fmt.Errorf("unmarshal tree: unknown entry kind %q", parts[0])
		}
	}
	return t, nil
}

// ---------------------------------------------------------------------------
// Commit
// ---------------------------------------------------------------------------

// MarshalCommit serializes a Commit:
//
//	tree H
//	parent H     (zero or more)
//	author A
//	timestamp T
//
//	description
func MarshalCommit(c *Commit) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "tree %s\n", string(c.RootTreeID))
	for _, p := range c.Parents {
		fmt.Fprintf(&buf, "parent %s\n", string(p))
	}
	fmt.Fprintf(&buf, "author %s\n", c.Author)
	fmt.Fprintf(&buf, "timestamp %d\n", c.Timestamp)
	buf.WriteByte('\n')
	buf.WriteString(c.Description)
	return buf.Bytes()
}

// UnmarshalCommit parses a Commit from its serialized form.
func UnmarshalCommit(data []byte) (*Commit, error) {
	idx := bytes.Index(data, []byte("\n\n"))
	if idx < 0 {
		return nil, fmt.Errorf("unmarshal commit: missing header/description separator")
	}
	header := string(data[:idx])
	description := string(data[idx+2:])

	c := &Commit{Description: description}
	for _, line := range strings.Split(header, "\n") {
		key, val, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("unmarshal commit: malformed header line %q", line)
		}
		switch key {
		case "tree":
			c.RootTreeID = TreeID(val)
		case "parent":
			if len(val) != IDHexLen {
				return nil, fmt.Errorf("unmarshal commit: bad parent id %q", val)
			}
			c.Parents = append(c.Parents, CommitID(val))
		case "author":
			c.Author = val
		case "timestamp":
			ts, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("unmarshal commit: bad timestamp %q: %w", val, err)
			}
			c.Timestamp = ts
		default:
			return nil, fmt.Errorf("unmarshal commit: unknown header key %q", key)
		}
	}
	if len(c.RootTreeID) != IDHexLen {
		return nil, fmt.Errorf("unmarshal commit: bad tree id %q", c.RootTreeID)
	}
	return c, nil
}
