package config

import (
	lua "github.com/yuin/gopher-lua"
)

// removedGlobals are stripped from every manifest VM.
var removedGlobals = []string{
	"os", "io", "debug",
	"require", "dofile", "loadfile", "load", "loadstring", "module",
	// raw access would let manifests write through the read-only platform table
	"rawset", "rawget", "rawequal",
	"setfenv", "getfenv",
	"collectgarbage",
}

// sandboxLuaVM removes everything that reaches outside the VM. string, table,
// math and the basic functions (type, tostring, pairs, ipairs...) remain.
func sandboxLuaVM(L *lua.LState) {
	for _, name := range removedGlobals {
		L.SetGlobal(name, lua.LNil)
	}
}

// newSandboxedVM creates a Lua state with bounded stacks and sandboxing applied.
func newSandboxedVM() *lua.LState {
	L := lua.NewState(lua.Options{
		CallStackSize: 256,
		RegistrySize:  1024 * 8,
	})
	sandboxLuaVM(L)
	return L
}
