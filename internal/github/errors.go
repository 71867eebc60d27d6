package github

import "fmt"

// RepositoryAccessError is returned when GitHub answers 404 for a write to a repository. GitHub uses 404 both for
// repositories that do not exist and for repositories the token cannot see
type RepositoryAccessError struct {
	Repo Repo
}

func (e *RepositoryAccessError) Error() string {
	return fmt.Sprintf("repository %s was not found or is not accessible: check that the repository exists and that the token has the 'repo' scope", e.Repo)
}
