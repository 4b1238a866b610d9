package deployment

import (
	"fmt"
	"strings"
)

// =============================================================================
// Resource Naming Functions
// =============================================================================

// WorkspacePrefix prefixes every workspace directory name.
const WorkspacePrefix = "project_"

// WorkspaceName generates a workspace directory name for a deployment.
// Pattern: project_{id}
//
// Example:
//
//	WorkspaceName("9b2f0c1d") // returns "project_9b2f0c1d"
func WorkspaceName(id string) string {
	return WorkspacePrefix + id
}

// ImageTag generates the image reference for a workspace.
// Pattern: {registryUser}/{workspaceName}, lowercased.
//
// Example:
//
//	ImageTag("Alice", "project_9b2f") // returns "alice/project_9b2f"
func ImageTag(registryUser, workspaceName string) string {
	return strings.ToLower(fmt.Sprintf("%s/%s", registryUser, workspaceName))
}

// QualifiedImageTag prefixes ImageTag with the registry host when one is
// configured. An empty server leaves the tag for the default registry.
//
// Example:
//
//	QualifiedImageTag("https://ghcr.io/", "Alice", "project_9b2f") // returns "ghcr.io/alice/project_9b2f"
func QualifiedImageTag(server, registryUser, workspaceName string) string {
	tag := ImageTag(registryUser, workspaceName)
	host := strings.TrimPrefix(strings.TrimPrefix(server, "https://"), "http://")
	host = strings.TrimRight(host, "/")
	if host == "" {
		return tag
	}
	return strings.ToLower(host) + "/" + tag
}

// RepositoryURL generates the browsable address of a hosted repository.
// Pattern: {gitBase}/{owner}/{repo}
//
// Example:
//
//	RepositoryURL("https://github.com", "alice", "demo") // returns "https://github.com/alice/demo"
func RepositoryURL(gitBase, owner, repo string) string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(gitBase, "/"), owner, repo)
}

// RemoteURL generates the git transport address of a hosted repository.
// Pattern: {gitBase}/{owner}/{repo}.git
func RemoteURL(gitBase, owner, repo string) string {
	return RepositoryURL(gitBase, owner, repo) + ".git"
}

// CommitterEmail generates the no-reply committer address for a hosting user.
// Pattern: {user}@users.noreply.github.com
func CommitterEmail(user string) string {
	return fmt.Sprintf("%s@users.noreply.github.com", user)
}
