package version

// Version is the build version, overridden at link time with
// -ldflags "-X github.com/livp123/axtext/internal/version.Version=v1.2.3".
// Version 是构建版本，在链接时通过 -ldflags 覆盖。
var Version = "dev"
