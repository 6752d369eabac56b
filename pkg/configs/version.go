package configs

// AppName 应用名称.
const AppName = "worksheethub"

// AppVersion 构建时可通过 -ldflags "-X" 覆盖.
var AppVersion = "0.1.0"
