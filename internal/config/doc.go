// Package config loads the installation manifest and the user settings.
//
// # Installation Manifest
//
// The manifest, tracker.lua at the installation root, declares which variant is
// installed and what the tracker engine needs at runtime. It is plain Lua run in a
// sandboxed gopher-lua VM with a read-only platform table injected, so entries can
// be platform-conditional:
//
//	tracker = {
//	  name = "ai-coding-tracker",
//	  version = "1.4.0",
//	  variant = "interpreter",
//	  script = "cli_tool/cli.py",
//	  interpreter = { minimum = "3.8" },
//	  dependencies = {
//	    {
//	      name = "requests",
//	      minimum = "2.28",
//	      check = { "{interpreter}", "-c", "import requests; print(requests.__version__)" },
//	      strategies = {
//	        { "{interpreter}", "-m", "pip", "install", "--user", "requests" },
//	        "{interpreter} -m pip install --user --break-system-packages requests",
//	      },
//	    },
//	    platform.when(platform.is_linux, { name = "xdg-open", check = { "xdg-open", "--version" } }),
//	  },
//	}
//
// A strategy is an argv array, a shell string, or a table with a kind of
// "command", "git" or "release". Nil entries produced by platform conditionals
// are skipped.
//
// # Sandbox
//
// Manifest code cannot run commands, touch files, load other code or bypass the
// read-only platform table: os, io, require, dofile, loadfile, load, loadstring,
// debug, rawset, rawget, setfenv, getfenv and collectgarbage are removed. Parsing
// is bounded by the caller's context and a 1MB size limit.
//
// # User Settings
//
// Settings live in ~/.ai-usage-tracker/config.toml:
//
//	token = "..."
//	api_url = "https://..."
//	policy = "lenient"
//	log_level = "warn"
//
// The older single-line "token=<value>" file at ~/.ai-usage-tracker/config is still
// read when no TOML file exists. Environment variables override both.
package config
