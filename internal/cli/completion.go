package cli

import (
	"fmt"
	"io"
)

// BashCompletion is the bash completion script for fastfood.
const BashCompletion = `#!/bin/bash
# Bash completion for fastfood

_fastfood_completion() {
    local cur prev
    COMPREPLY=()
    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"

    local commands="serve migrate completion help"
    local global_flags="--config --env-file --help --version"

    case "${prev}" in
        migrate)
            COMPREPLY=( $(compgen -W "up down" -- ${cur}) )
            return 0
            ;;
        completion)
            COMPREPLY=( $(compgen -W "bash zsh fish" -- ${cur}) )
            return 0
            ;;
        --config|--env-file)
            COMPREPLY=( $(compgen -f -- ${cur}) )
            return 0
            ;;
    esac

    COMPREPLY=( $(compgen -W "${commands} ${global_flags}" -- ${cur}) )
}

complete -F _fastfood_completion fastfood
`

// ZshCompletion is the zsh completion script for fastfood.
const ZshCompletion = `#compdef fastfood

_fastfood() {
    local -a commands
    commands=(
        'serve:Run the HTTP API'
        'migrate:Apply or revert the database schema'
        'completion:Print a shell completion script'
        'help:Show help'
    )

    _arguments -C \
        '--config[YAML configuration file]:file:_files' \
        '--env-file[dotenv file]:file:_files' \
        '1: :->command' \
        '2: :->argument'

    case $state in
        command)
            _describe 'command' commands
            ;;
        argument)
            case $words[2] in
                migrate) _values 'direction' up down ;;
                completion) _values 'shell' bash zsh fish ;;
            esac
            ;;
    esac
}

_fastfood "$@"
`

// FishCompletion is the fish completion script for fastfood.
const FishCompletion = `# Fish completion for fastfood

complete -c fastfood -f -n "__fish_use_subcommand" -a "serve" -d "Run the HTTP API"
complete -c fastfood -f -n "__fish_use_subcommand" -a "migrate" -d "Apply or revert the database schema"
complete -c fastfood -f -n "__fish_use_subcommand" -a "completion" -d "Print a shell completion script"

complete -c fastfood -f -n "__fish_seen_subcommand_from migrate" -a "up" -d "Apply pending migrations"
complete -c fastfood -f -n "__fish_seen_subcommand_from migrate" -a "down" -d "Revert all migrations"

complete -c fastfood -f -n "__fish_seen_subcommand_from completion" -a "bash zsh fish"

complete -c fastfood -l config -r -d "YAML configuration file"
complete -c fastfood -l env-file -r -d "dotenv file"
`

// GenerateCompletion writes the completion script for shell to w.
func GenerateCompletion(w io.Writer, shell string) error {
	var script string

	switch shell {
	case "bash":
		script = BashCompletion
	case "zsh":
		script = ZshCompletion
	case "fish":
		script = FishCompletion
	default:
		return fmt.Errorf("unsupported shell: %s (supported: bash, zsh, fish)", shell)
	}

	_, err := io.WriteString(w, script)
	return err
}
