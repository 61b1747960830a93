package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatCompact formats a count for narrow table cells: 999, 1.2K, 3.4M.
func FormatCompact(n int64) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return strconv.FormatInt(n, 10)
	}
}

// RepoKey builds the drill-down context string for a repository.
func RepoKey(org, repo string) string {
	return org + "/" + repo
}

// SplitRepoKey splits a context string built by RepoKey.
// Organization logins cannot contain a slash, so the first one separates the parts.
func SplitRepoKey(key string) (org, repo string, err error) {
	org, repo, ok := strings.Cut(key, "/")
	if !ok || org == "" || repo == "" {
		return "", "", fmt.Errorf("invalid repository key %q (expected org/repo)", key)
	}
	return org, repo, nil
}

// ResolveAuthor maps a missing username to AnonymousAuthor.
func ResolveAuthor(username string) string {
	if strings.TrimSpace(username) == "" {
		return AnonymousAuthor
	}
	return username
}
