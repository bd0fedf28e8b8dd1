package frontend

// buildFileSchema is the decoding target for a build.hcl file.
type buildFileSchema struct {
	Dirs                 []string          `hcl:"dirs,optional"`
	ParallelDirs         []string          `hcl:"parallel_dirs,optional"`
	TestDirs             []string          `hcl:"test_dirs,optional"`
	ConfigureSubstFiles  []string          `hcl:"configure_subst_files,optional"`
	ConfigureDefineFiles []string          `hcl:"configure_define_files,optional"`
	Defines              map[string]string `hcl:"defines,optional"`
	Variables            map[string]string `hcl:"variables,optional"`
	Exports              []*exportBlock    `hcl:"export,block"`
}

// exportBlock lists headers exported under a namespace, e.g.
//
//	export "mozilla" {
//	  files = ["Attributes.h"]
//	}
type exportBlock struct {
	Namespace string   `hcl:"namespace,label"`
	Files     []string `hcl:"files"`
}

// BuildFile is the evaluated content of one build.hcl.
type BuildFile struct {
	// Path is the absolute path of the build file.
	Path string
	// RelDir is the directory relative to topsrcdir; empty for the root.
	RelDir string

	Dirs                 []string
	ParallelDirs         []string
	TestDirs             []string
	ConfigureSubstFiles  []string
	ConfigureDefineFiles []string
	Defines              map[string]string
	Variables            map[string]string
	// Exports maps a namespace to its files. The empty namespace is the
	// top-level include directory.
	Exports map[string][]string
}

func newBuildFile(path, relDir string, s *buildFileSchema) *BuildFile {
	bf := &BuildFile{
		Path:                 path,
		RelDir:               relDir,
		Dirs:                 s.Dirs,
		ParallelDirs:         s.ParallelDirs,
		TestDirs:             s.TestDirs,
		ConfigureSubstFiles:  s.ConfigureSubstFiles,
		ConfigureDefineFiles: s.ConfigureDefineFiles,
		Defines:              s.Defines,
		Variables:            s.Variables,
		Exports:              make(map[string][]string),
	}
	for _, exp := range s.Exports {
		bf.Exports[exp.Namespace] = append(bf.Exports[exp.Namespace], exp.Files...)
	}
	return bf
}
