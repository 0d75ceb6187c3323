// Package github_tools provides MCP (Model Context Protocol) tools over the
// simulated GitHub store.
//
// Every tool maps to one store operation. Read tools are always registered;
// write tools (file commits, repository creation, forking, branch creation)
// are only registered when the server runs with writes enabled.
//
// File tools:
//   - github_get_file_contents, github_create_or_update_file, github_push_files
//
// Repository tools:
//   - github_search_repositories, github_create_repository, github_fork_repository
//
// Branch and commit tools:
//   - github_list_branches, github_create_branch
//   - github_list_commits, github_get_commit
//
// Search tools:
//   - github_search_code
package github_tools
