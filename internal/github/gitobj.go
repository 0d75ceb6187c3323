package github

import (
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"sort"
	"strings"
	"time"
)

// blobSHA hashes file content the way git hashes blob objects.
func blobSHA(content []byte) string {
	h := sha1.New()
	fmt.Fprintf(h, "blob %d\x00", len(content))
	h.Write(content)
	return fmt.Sprintf("%x", h.Sum(nil))
}

// treeSHA hashes a path -> blob SHA map as a flat pseudo tree. Entries are
// sorted by path so the hash is stable.
func treeSHA(blobs map[string]string) string {
	paths := make([]string, 0, len(blobs))
	for p := range blobs {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var sb strings.Builder
	for _, p := range paths {
		fmt.Fprintf(&sb, "100644 blob %s\t%s\n", blobs[p], p)
	}
	return fmt.Sprintf("%x", sha1.Sum([]byte(sb.String())))
}

// commitSHA hashes a git-style commit text: tree, optional parent, author
// and committer lines with epoch timestamps, then the message.
func commitSHA(tree, parent string, author, committer GitActor, message string) string {
	lines := []string{fmt.Sprintf("tree %s", tree)}
	if parent != "" {
		lines = append(lines, fmt.Sprintf("parent %s", parent))
	}
	lines = append(lines,
		fmt.Sprintf("author %s <%s> %d +0000", author.Name, author.Email, actorEpoch(author)),
		fmt.Sprintf("committer %s <%s> %d +0000", committer.Name, committer.Email, actorEpoch(committer)),
		"\n"+message,
	)
	return fmt.Sprintf("%x", sha1.Sum([]byte(strings.Join(lines, "\n"))))
}

func actorEpoch(a GitActor) int64 {
	t, err := parseISOTimestamp(a.Date)
	if err != nil {
		return 0
	}
	return t.Unix()
}

// parseISOTimestamp accepts the ISO 8601 forms used throughout the store.
func parseISOTimestamp(v string) (time.Time, error) {
	for _, layout := range []string{
		time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04:05.000000", "2006-01-02",
	} {
		if t, err := time.Parse(layout, strings.TrimSuffix(v, "Z")); err == nil {
			return t.UTC(), nil
		}
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp %q", v)
}

func repoNodeID(repoID int) string {
	return base64.StdEncoding.EncodeToString([]byte(fmt.Sprintf("Repository:%d", repoID)))
}

func refNodeID(fullName, ref string) string {
	return base64.StdEncoding.EncodeToString([]byte(fmt.Sprintf("ref:%s:%s", fullName, ref)))
}

func commitNodeID(sha string) string {
	return "C_NODE_" + sha
}

func sha1Hex(s string) string {
	return fmt.Sprintf("%x", sha1.Sum([]byte(s)))
}

func dirSHA(name string) string {
	return sha1Hex(name)
}
