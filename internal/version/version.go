// Package version 客户端版本信息
package version

import (
	"os"
	"runtime/debug"
	"strings"
)

// ProductName 产品名
const ProductName = "WeRSS Client"

// 构建时通过 -ldflags "-X werss-client/internal/version.Version=..." 注入
var (
	Version   = "dev"
	BuildTime = ""
	GitCommit = ""
)

func init() {
	if Version != "dev" {
		return
	}
	if v := fromFile("VERSION"); v != "" {
		Version = v
		return
	}
	// go install 构建时取模块版本与 vcs 信息
	if info, ok := debug.ReadBuildInfo(); ok {
		if v := strings.TrimPrefix(info.Main.Version, "v"); v != "" && v != "(devel)" {
			Version = v
		}
		for _, s := range info.Settings {
			switch {
			case s.Key == "vcs.revision" && GitCommit == "":
				GitCommit = s.Value
			case s.Key == "vcs.time" && BuildTime == "":
				BuildTime = s.Value
			}
		}
	}
}

// fromFile 读取当前目录的版本文件，去掉 v 前缀
func fromFile(name string) string {
	data, err := os.ReadFile(name)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.TrimSpace(string(data)), "v")
}

// GetVersion 完整版本信息
func GetVersion() string {
	v := GetShortVersion()
	if BuildTime != "" {
		v += " (built " + BuildTime + ")"
	}
	if GitCommit != "" {
		commit := GitCommit
		if len(commit) > 8 {
			commit = commit[:8]
		}
		v += " commit " + commit
	}
	return v
}

// GetShortVersion 简短版本号
func GetShortVersion() string {
	return "v" + Version
}
