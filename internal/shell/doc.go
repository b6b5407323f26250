// Package shell runs install commands written as shell strings.
//
// Manifest strategies may give a command either as an argv array, which runs
// directly, or as a single string, which needs a shell to interpret pipes,
// globs and redirections. This package picks that shell.
//
// # Shell Detection
//
// Detection tries, in order:
//  1. $SHELL environment variable (most reliable)
//  2. Parent process name via gopsutil (when $SHELL is unset or unknown)
//  3. The platform default: /bin/sh, or cmd.exe on windows
//
// # Invocation
//
// Each shell has its own "run this string" flag:
//
//	sh, bash, zsh, fish   -c <script>
//	cmd                   /C <script>
//	powershell, pwsh      -NoProfile -NonInteractive -Command <script>
package shell
