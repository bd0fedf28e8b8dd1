// Package mozinfo writes mozinfo.json, the small description of the build
// target that test harnesses read to decide what to run.
package mozinfo

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/specialistvlad/buildstatus/internal/configenv"
)

// FileName is the descriptor's name inside topobjdir.
const FileName = "mozinfo.json"

var x86Pattern = regexp.MustCompile(`^i[3-9]86$`)

// Build derives the descriptor from the configured substitutions.
// environ supplies MOZCONFIG when it is set.
func Build(env *configenv.Environment, environ map[string]string) map[string]any {
	subst := func(name string) string {
		v, _ := env.Subst(name)
		return v
	}

	info := map[string]any{
		"topsrcdir":     env.TopSrcDir(),
		"debug":         subst("MOZ_DEBUG") == "1",
		"crashreporter": subst("MOZ_CRASHREPORTER") == "1",
	}

	if osTarget := subst("OS_TARGET"); osTarget != "" {
		info["os"] = osName(osTarget)
	}

	if cpu := subst("TARGET_CPU"); cpu != "" {
		processor := cpu
		switch {
		case x86Pattern.MatchString(cpu):
			processor = "x86"
		case strings.HasPrefix(cpu, "arm"):
			processor = "arm"
		}
		info["processor"] = processor
		switch processor {
		case "x86", "arm", "ppc":
			info["bits"] = 32
		case "x86_64", "ia64", "aarch64", "ppc64", "s390x":
			info["bits"] = 64
		}
	}

	for key, name := range map[string]string{
		"appname":  "MOZ_APP_NAME",
		"toolkit":  "MOZ_WIDGET_TOOLKIT",
		"buildapp": "MOZ_BUILD_APP",
	} {
		if v := subst(name); v != "" {
			info[key] = v
		}
	}

	if mozconfig, ok := environ["MOZCONFIG"]; ok {
		info["mozconfig"] = mozconfig
	}
	return info
}

func osName(target string) string {
	switch target {
	case "WINNT":
		return "win"
	case "Darwin":
		return "mac"
	case "Linux":
		return "linux"
	case "Android":
		return "android"
	}
	return strings.ToLower(target)
}

// Write renders Build's result as indented JSON at path. The same inputs
// always produce the same bytes, so repeated writes are harmless.
func Write(path string, env *configenv.Environment, environ map[string]string) error {
	data, err := json.MarshalIndent(Build(env, environ), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding mozinfo: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing mozinfo: %w", err)
	}
	return nil
}
