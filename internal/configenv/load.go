package configenv

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/buildstatus/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// DefaultResultsFile is the name configure gives its results file.
const DefaultResultsFile = "config.status.hcl"

// ErrMissingTopsrcdir is returned when a results file has no topsrcdir.
var ErrMissingTopsrcdir = errors.New("configure results do not define topsrcdir")

// Results is the decoded content of a configure results file.
type Results struct {
	// TopObjDir is the directory holding the results file.
	TopObjDir        string
	TopSrcDir        string
	Source           string
	Defines          map[string]string
	NonGlobalDefines map[string]string
	Substs           map[string]string
}

// resultsFile mirrors the on-disk layout. Map attributes are kept as raw
// expressions so any primitive value can be coerced to a string.
type resultsFile struct {
	TopSrcDir        string         `hcl:"topsrcdir,optional"`
	Source           string         `hcl:"source,optional"`
	Defines          hcl.Expression `hcl:"defines,optional"`
	NonGlobalDefines hcl.Expression `hcl:"non_global_defines,optional"`
	Substs           hcl.Expression `hcl:"substs,optional"`
}

// LoadResults parses the configure results file at path.
func LoadResults(ctx context.Context, path string) (*Results, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading configure results.", "path", path)

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(abs)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse configure results %s: %w", abs, diags)
	}

	var raw resultsFile
	if diags := gohcl.DecodeBody(file.Body, nil, &raw); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode configure results %s: %w", abs, diags)
	}
	if raw.TopSrcDir == "" {
		return nil, fmt.Errorf("%s: %w", abs, ErrMissingTopsrcdir)
	}

	res := &Results{
		TopObjDir: filepath.Dir(abs),
		TopSrcDir: raw.TopSrcDir,
		Source:    raw.Source,
	}
	if res.Source == "" {
		res.Source = abs
	}
	for _, field := range []struct {
		name string
		expr hcl.Expression
		dst  *map[string]string
	}{
		{"defines", raw.Defines, &res.Defines},
		{"non_global_defines", raw.NonGlobalDefines, &res.NonGlobalDefines},
		{"substs", raw.Substs, &res.Substs},
	} {
		m, err := decodeStringMap(field.expr)
		if err != nil {
			return nil, fmt.Errorf("%s: attribute %q: %w", abs, field.name, err)
		}
		*field.dst = m
	}

	logger.Debug("Configure results loaded.",
		"topsrcdir", res.TopSrcDir,
		"defines", len(res.Defines),
		"non_global_defines", len(res.NonGlobalDefines),
		"substs", len(res.Substs),
	)
	return res, nil
}

// Environment builds the Environment described by the results, rooted at
// the given object directory.
func (r *Results) Environment(topObjDir string) *Environment {
	return New(r.TopSrcDir, topObjDir, r.Defines, r.NonGlobalDefines, r.Substs, r.Source)
}

// decodeStringMap evaluates an object or map expression and converts every
// element to a string. An absent attribute yields an empty map.
func decodeStringMap(expr hcl.Expression) (map[string]string, error) {
	out := make(map[string]string)
	if expr == nil {
		return out, nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	if val.IsNull() {
		return out, nil
	}
	if !val.Type().IsObjectType() && !val.Type().IsMapType() {
		return nil, fmt.Errorf("expected an object, got %s", val.Type().FriendlyName())
	}
	if val.LengthInt() == 0 {
		return out, nil
	}

	converted, err := convert.Convert(val, cty.Map(cty.String))
	if err != nil {
		return nil, fmt.Errorf("cannot convert %s to a map of strings: %w", val.Type().FriendlyName(), err)
	}
	if err := gocty.FromCtyValue(converted, &out); err != nil {
		return nil, err
	}
	return out, nil
}
