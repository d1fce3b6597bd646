package storage

import "fmt"

// DocumentKey builds the object key for an uploaded source document.
// Keys are namespaced per user so object-level cleanup and per-user
// accounting stay cheap prefix scans.
func DocumentKey(userID uint, documentUUID, fileExtension string) string {
	return fmt.Sprintf("docs/%d/%s%s", userID, documentUUID, fileExtension)
}

// ResultKey builds the object key for a finished conversion output
func ResultKey(userID uint, jobUUID, fileExtension string) string {
	return fmt.Sprintf("results/%d/%s%s", userID, jobUUID, fileExtension)
}
