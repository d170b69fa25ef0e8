package cache

import "strings"

// Cache keys are deterministic functions of entity id or query so producers
// and the worker always agree on what to invalidate.
const KeyFolderTree = "folder:tree"

func KeyFolder(folderID string) string {
	return "folder:" + folderID
}

func KeyFolderChildren(folderID string) string {
	return "folder:" + folderID + ":children"
}

func KeyFolderFiles(folderID string) string {
	return "folder:" + folderID + ":files"
}

func KeySearch(query string) string {
	return "search:" + NormalizeQuery(query)
}

func NormalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}
