package config

import "time"

// Lua schema field names and globals
const (
	luaGlobalTracker    = "tracker"
	luaFieldName        = "name"
	luaFieldVersion     = "version"
	luaFieldVariant     = "variant"
	luaFieldScript      = "script"
	luaFieldBinary      = "binary"
	luaFieldPolicy      = "policy"
	luaFieldInterpreter = "interpreter"
	luaFieldCandidates  = "candidates"
	luaFieldPattern     = "pattern"
	luaFieldMinimum     = "minimum"
	luaFieldHealth      = "health"
	luaFieldArg         = "arg"
	luaFieldTimeout     = "timeout"
	luaFieldMarker      = "marker"
	luaFieldDeps        = "dependencies"
	luaFieldCheck       = "check"
	luaFieldFile        = "file"
	luaFieldStrategies  = "strategies"
	luaFieldRemediation = "remediation"
	luaFieldKind        = "kind"
	luaFieldLabel       = "label"
	luaFieldRun         = "run"
	luaFieldURL         = "url"
	luaFieldRef         = "ref"
	luaFieldDest        = "dest"
	luaFieldSignature   = "signature_url"
	luaFieldChecksums   = "checksums_url"
	luaFieldKeyring     = "keyring"
)

// Manifest file and limits
const (
	ManifestFile        = "tracker.lua"
	MaxManifestSize     = 1 << 20
	DefaultParseTimeout = 5 * time.Second
	MaxDependencyCount  = 100
	MaxStrategyCount    = 16
)

// Variants
const (
	VariantBinary      = "binary"
	VariantInterpreter = "interpreter"
)

// Strategy kinds
const (
	StrategyCommand = "command"
	StrategyGit     = "git"
	StrategyRelease = "release"
)

// Defaults applied when the manifest leaves a field out.
const (
	DefaultName   = "ai-coding-tracker"
	DefaultScript = "cli_tool/cli.py"
)
