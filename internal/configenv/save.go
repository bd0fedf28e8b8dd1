package configenv

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"
)

// Save writes the results in the format LoadResults reads. Map keys are
// emitted in sorted order so the same results always produce the same bytes.
func Save(path string, r *Results) error {
	f := hclwrite.NewEmptyFile()
	body := f.Body()

	body.SetAttributeValue("topsrcdir", cty.StringVal(r.TopSrcDir))
	if r.Source != "" {
		body.SetAttributeValue("source", cty.StringVal(r.Source))
	}
	body.AppendNewline()
	body.SetAttributeValue("defines", stringMapVal(r.Defines))
	body.SetAttributeValue("non_global_defines", stringMapVal(r.NonGlobalDefines))
	body.SetAttributeValue("substs", stringMapVal(r.Substs))

	if err := os.WriteFile(path, f.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing configure results %s: %w", path, err)
	}
	return nil
}

func stringMapVal(m map[string]string) cty.Value {
	if len(m) == 0 {
		return cty.MapValEmpty(cty.String)
	}
	vals := make(map[string]cty.Value, len(m))
	for k, v := range m {
		vals[k] = cty.StringVal(v)
	}
	return cty.MapVal(vals)
}
