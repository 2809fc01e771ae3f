// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/tfctl/deepcmp/internal/meta"
)

const bashCompletionScript = `# bash completion for deepcmp
# Fallback if bash-completion is not installed
if ! declare -F _get_comp_words_by_ref >/dev/null 2>&1; then
  _get_comp_words_by_ref() {
    cur=${COMP_WORDS[COMP_CWORD]}
    prev=${COMP_WORDS[COMP_CWORD-1]}
  }
fi

_deepcmp()
{
    local cur prev cmd
    COMPREPLY=()
    _get_comp_words_by_ref -n : cur prev

    if [[ ${COMP_CWORD} -eq 1 ]]; then
        COMPREPLY=( $(compgen -W "cache compare completion tools --help --version" -- "$cur") )
        COMPREPLY+=( $(compgen -f -- "$cur") )
        return 0
    fi

    cmd=${COMP_WORDS[1]}
    case "$cmd" in
        cache)
            local opts="--purge"
            ;;
        completion)
            COMPREPLY=( $(compgen -W "bash zsh" -- "$cur") )
            return 0
            ;;
        tools)
            local opts="--disable-tool"
            ;;
        *)
            local opts="--browse -b --color -c --context --disable-tool --endpoint --jobs -j --max-depth --max-diff-size --max-elements --max-extracted-files --max-extracted-size --output -o --profile --region --summary -s --tempdir --timeout -t"
            ;;
    esac

    case "$prev" in
        --output|-o)
            COMPREPLY=( $(compgen -W "text json yaml" -- "$cur") )
            return 0
            ;;
        --disable-tool)
            COMPREPLY=( $(compgen -W "objdump pdfinfo pdftotext readelf" -- "$cur") )
            return 0
            ;;
        --tempdir)
            COMPREPLY=( $(compgen -o dirnames -- "$cur") )
            return 0
            ;;
    esac

    if [[ "$cur" == -* ]]; then
        COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
        return 0
    fi

    # LEFT and RIGHT are files or directories.
    COMPREPLY=( $(compgen -f -- "$cur") )
    return 0
}

complete -o filenames -F _deepcmp deepcmp
`

const zshCompletionScript = `#compdef deepcmp

_deepcmp() {
  local -a cmds
  cmds=(
    'cache:show or purge the download cache'
    'compare:recursively compare two inputs'
    'completion:generate shell completion script'
    'tools:list external tools and comparators'
  )

  local -a compare
  compare=(
  '(-b --browse)'{-b,--browse}'[interactive browser]'
  '(-c --color)'{-c,--color}'[color text output]'
  '--context[unchanged context lines]:lines'
  '*--disable-tool[leave a tool unused]:tool:(objdump pdfinfo pdftotext readelf)'
  '--endpoint[S3-compatible endpoint]:url'
  '(-j --jobs)'{-j,--jobs}'[parallel comparator steps]:jobs'
  '--max-depth[container nesting depth]:depth'
  '--max-diff-size[text diff size ceiling]:size'
  '--max-elements[entries compared per run]:count'
  '--max-extracted-files[files per container]:count'
  '--max-extracted-size[bytes per container]:size'
  '(-o --output)'{-o,--output}'[output format]:format:(text json yaml)'
  '--profile[AWS profile]:profile'
  '--region[AWS region]:region'
  '(-s --summary)'{-s,--summary}'[append summary table]'
  '--tempdir[directory for extracted files]:dir:_directories'
  '(-t --timeout)'{-t,--timeout}'[per-step timeout]:duration'
  )

  if (( CURRENT == 2 )); then
    _describe -t commands 'deepcmp commands' cmds
    _files
    return
  fi

  local curcontext="$curcontext" state line
  case $words[2] in
    cache)
      _arguments '--purge[remove entries older than hours]:hours'
      ;;
    completion)
      _arguments '1: :((bash zsh))'
      ;;
    tools)
      _arguments '*--disable-tool[leave a tool unused]:tool:(objdump pdfinfo pdftotext readelf)'
      ;;
    *)
      _arguments -C $compare '1:LEFT:_files' '2:RIGHT:_files'
      ;;
  esac
}

# If this file is sourced directly (not autoloaded via fpath), ensure compsys
# is initialized and register the completion
if ! typeset -f compdef >/dev/null 2>&1; then
  autoload -Uz compinit && compinit -i
fi
compdef _deepcmp deepcmp
`

func completionCommandAction(ctx context.Context, cmd *cli.Command) error {
	shell := ""
	if args := cmd.Args().Slice(); len(args) > 0 {
		shell = args[0]
	}
	switch shell {
	case "bash":
		fmt.Fprint(cmd.Root().Writer, bashCompletionScript)
	case "zsh":
		fmt.Fprint(cmd.Root().Writer, zshCompletionScript)
	default:
		// Try to detect from SHELL or print help
		sh := os.Getenv("SHELL")
		switch {
		case strings.HasSuffix(sh, "zsh"):
			fmt.Fprint(cmd.Root().Writer, zshCompletionScript)
		case strings.HasSuffix(sh, "bash"):
			fmt.Fprint(cmd.Root().Writer, bashCompletionScript)
		default:
			fmt.Fprintln(os.Stderr, "usage: deepcmp completion [bash|zsh]")
			return nil
		}
	}
	return nil
}

func completionCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "completion",
		Usage:     "generate shell completion script",
		UsageText: "deepcmp completion [bash|zsh]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Action: completionCommandAction,
	}
}
