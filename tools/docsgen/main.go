// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// docsgen renders markdown and man pages for each deepcmp subcommand from the
// live command definitions.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/tfctl/deepcmp/internal/command"
)

type Subcommand struct {
	ID          string
	Short       string
	Description string
	Usage       string
	Flags       []Flag
}

type Flag struct {
	ID          string
	Syntax      string
	Description string
	Default     string
	Env         string
}

type TemplateData struct {
	Subcommand
	Date    string
	Version string
	IDUpper string
}

type Outputs struct {
	Template *template.Template
	Folder   string
	Prefix   string
	Suffix   string
}

var markdownTemplate = template.Must(template.New("md").Parse(`# deepcmp {{.ID}}

{{.Short}}

## Usage

` + "```" + `
{{.Usage}}
` + "```" + `
{{if .Description}}
{{.Description}}
{{end}}
## Flags
{{range .Flags}}
- ` + "`{{.Syntax}}`" + `: {{.Description}}{{if .Default}} (default ` + "`{{.Default}}`" + `){{end}}{{if .Env}} [` + "`${{.Env}}`" + `]{{end}}
{{- end}}

_Generated {{.Date}} for version {{.Version}}._
`))

var manTemplate = template.Must(template.New("man").Parse(`.TH DEEPCMP-{{.IDUpper}} 1 "{{.Date}}" "deepcmp {{.Version}}"
.SH NAME
deepcmp-{{.ID}} \- {{.Short}}
.SH SYNOPSIS
{{.Usage}}
{{- if .Description}}
.SH DESCRIPTION
{{.Description}}
{{- end}}
.SH OPTIONS
{{- range .Flags}}
.TP
.B {{.Syntax}}
{{.Description}}{{if .Default}} Default: {{.Default}}.{{end}}
{{- end}}
`))

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: docsgen DOCS_DIR")
		os.Exit(2)
	}

	app, err := command.InitApp(context.Background(), []string{"deepcmp"})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := generate(app, os.Args[1], getVersion(), time.Now()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// generate writes one page per subcommand and output type below docs.
func generate(app *cli.Command, docs, version string, now time.Time) error {
	types := []Outputs{
		{Template: markdownTemplate, Folder: filepath.Join(docs, "commands"), Suffix: ".md"},
		{Template: manTemplate, Folder: filepath.Join(docs, "man", "share", "man1"), Prefix: "deepcmp-", Suffix: ".1"},
	}

	for _, sub := range collect(app) {
		metadata := TemplateData{
			Subcommand: sub,
			Date:       now.Format("January 2, 2006"),
			Version:    version,
			IDUpper:    strings.ToUpper(sub.ID),
		}

		for _, t := range types {
			if err := os.MkdirAll(t.Folder, 0o755); err != nil {
				return err
			}

			name := filepath.Join(t.Folder, t.Prefix+sub.ID+t.Suffix)
			fmt.Println("Generating", name)
			file, err := os.Create(name)
			if err != nil {
				return err
			}
			if err := t.Template.Execute(file, metadata); err != nil {
				file.Close()
				return fmt.Errorf("%s: %w", name, err)
			}
			if err := file.Close(); err != nil {
				return err
			}
		}
	}
	return nil
}

// collect describes the visible subcommands and their flags.
func collect(app *cli.Command) []Subcommand {
	var subs []Subcommand
	for _, cmd := range app.Commands {
		if cmd.Hidden {
			continue
		}
		sub := Subcommand{
			ID:          cmd.Name,
			Short:       cmd.Usage,
			Description: cmd.Description,
			Usage:       cmd.UsageText,
		}
		if sub.Usage == "" {
			sub.Usage = "deepcmp " + cmd.Name + " [options]"
		}
		for _, f := range cmd.Flags {
			sub.Flags = append(sub.Flags, describe(f))
		}
		sort.Slice(sub.Flags, func(i, j int) bool {
			return sub.Flags[i].ID < sub.Flags[j].ID
		})
		subs = append(subs, sub)
	}
	return subs
}

func describe(f cli.Flag) Flag {
	names := f.Names()
	syntax := make([]string, len(names))
	for i, n := range names {
		if len(n) == 1 {
			syntax[i] = "-" + n
		} else {
			syntax[i] = "--" + n
		}
	}

	fl := Flag{ID: names[0], Syntax: strings.Join(syntax, ", ")}
	if df, ok := f.(cli.DocGenerationFlag); ok {
		fl.Description = df.GetUsage()
		if df.TakesValue() {
			fl.Syntax += " " + strings.ToUpper(df.TypeName())
			fl.Default = df.GetValue()
		}
		if envs := df.GetEnvVars(); len(envs) > 0 {
			fl.Env = envs[0]
		}
	}
	return fl
}

// getVersion returns the version string from git tags, stripping the leading
// "v" prefix. Falls back to "dev" if git describe fails.
func getVersion() string {
	out, err := exec.Command("git", "describe", "--tags", "--abbrev=0").Output()
	if err != nil {
		return "dev"
	}

	version := strings.TrimSpace(string(out))
	return strings.TrimPrefix(version, "v")
}
