// Package deployment provides pure types and functions describing a
// deployment pipeline run.
//
// This package contains the functional core for the pipeline outcome model:
// the tagged Result value, the failure taxonomy, and resource naming. All
// functions are pure (no I/O, no side effects).
//
// # Functions
//
//   - Naming: Derive consistent names (WorkspaceName, ImageTag, QualifiedImageTag, RepositoryURL, RemoteURL)
//   - Results: Build outcomes (Succeeded, Degraded, Failed) and render them (Result.Report)
//   - Errors: Classify failures into kinds (KindOf, StageError)
//
// # Usage
//
// The imperative shell (internal/shell/pipeline) drives the stages and uses
// these values to report what happened:
//
//	image := deployment.QualifiedImageTag(server, registryUser, ws.Name())
//	result := deployment.Succeeded(base, image, repoURL)
//	fmt.Println(result.Report())
package deployment
