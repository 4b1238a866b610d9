package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jwrhw7tueydwtt7575g/DockaForge/internal/core/deployment"
)

// outputFormat selects how results are written to stdout.
type outputFormat string

const (
	formatText outputFormat = "text"
	formatJSON outputFormat = "json"
	formatYAML outputFormat = "yaml"
)

func parseFormat(s string) (outputFormat, error) {
	switch outputFormat(s) {
	case formatText, formatJSON, formatYAML:
		return outputFormat(s), nil
	}
	return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", s)
}

// resultView is the serialized form of a deployment result.
type resultView struct {
	ID            string     `json:"id" yaml:"id"`
	Status        string     `json:"status" yaml:"status"`
	Stage         string     `json:"stage" yaml:"stage"`
	Kind          string     `json:"kind,omitempty" yaml:"kind,omitempty"`
	Language      string     `json:"language,omitempty" yaml:"language,omitempty"`
	WorkspaceDir  string     `json:"workspace_dir,omitempty" yaml:"workspace_dir,omitempty"`
	ImageRef      string     `json:"image_ref,omitempty" yaml:"image_ref,omitempty"`
	ImageDigest   string     `json:"image_digest,omitempty" yaml:"image_digest,omitempty"`
	RepositoryURL string     `json:"repository_url,omitempty" yaml:"repository_url,omitempty"`
	Error         string     `json:"error,omitempty" yaml:"error,omitempty"`
	StartedAt     time.Time  `json:"started_at" yaml:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
}

func toView(r deployment.Result) resultView {
	v := resultView{
		ID:            r.ID,
		Status:        string(r.Status),
		Stage:         string(r.Stage),
		Kind:          string(r.Kind),
		Language:      r.Language,
		WorkspaceDir:  r.WorkspaceDir,
		ImageRef:      r.ImageRef,
		ImageDigest:   r.ImageDigest,
		RepositoryURL: r.RepositoryURL,
		Error:         r.Error,
		StartedAt:     r.StartedAt,
	}
	if !r.FinishedAt.IsZero() {
		finished := r.FinishedAt
		v.FinishedAt = &finished
	}
	return v
}

// writeResult renders one result. Text output is the human-readable report.
func writeResult(w io.Writer, format outputFormat, r deployment.Result) error {
	switch format {
	case formatJSON:
		return writeJSON(w, toView(r))
	case formatYAML:
		return writeYAML(w, toView(r))
	default:
		_, err := fmt.Fprintln(w, r.Report())
		return err
	}
}

// writeResults renders a history listing. Text output is a table.
func writeResults(w io.Writer, format outputFormat, results []deployment.Result) error {
	views := make([]resultView, 0, len(results))
	for _, r := range results {
		views = append(views, toView(r))
	}

	switch format {
	case formatJSON:
		return writeJSON(w, views)
	case formatYAML:
		return writeYAML(w, views)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tSTAGE\tLANGUAGE\tIMAGE\tSTARTED")
	for _, v := range views {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			v.ID, v.Status, v.Stage, dash(v.Language), dash(v.ImageRef), v.StartedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
