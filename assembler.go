package greyhorse

import (
	"fmt"

	"github.com/max-plutonium/greyhorse-sub000/internal/rtlog"
)

// Assembler builds a live Module tree from a ModuleConf, the Go
// realisation of builders/module.py's ModuleBuilder: where the source
// walks the filesystem, import_path-ing every component/submodule package
// it discovers, Assembler instead looks every conf entry's declared Type
// string up in two caller-supplied factory tables, since Go has no
// dynamic import by dotted path.
type Assembler struct {
	svcFactories  map[string]ServiceFactory
	ctrlFactories map[string]ControllerFactory
}

// NewAssembler builds an Assembler backed by the given factory tables.
func NewAssembler(svcFactories map[string]ServiceFactory, ctrlFactories map[string]ControllerFactory) *Assembler {
	return &Assembler{svcFactories: svcFactories, ctrlFactories: ctrlFactories}
}

// Build assembles the Module tree described by conf, rooted at path, then
// runs its Create pass exactly once at the root - Module.Create already
// recurses through every submodule and component itself, so build only
// wires the tree together; it never calls Create along the way, or every
// submodule would be created once per ancestor on the way back up.
func (a *Assembler) Build(path string, conf ModuleConf) (*Module, error) {
	mod, err := a.wire(path, conf)
	if err != nil {
		return nil, err
	}

	rtlog.Get().Info("assembling module", "path", path)

	if err := mod.Create(a.svcFactories, a.ctrlFactories); err != nil {
		return nil, err
	}

	return mod, nil
}

// wire constructs the Module/Component tree described by conf without
// running any Create pass.
func (a *Assembler) wire(path string, conf ModuleConf) (*Module, error) {
	if !conf.Enabled {
		return nil, &ModuleError{Kind: ModuleComponent, Path: path, Cause: ErrModuleDisabled}
	}

	mod := NewModule(path, conf)

	for i, compConf := range conf.Components {
		compPath := fmt.Sprintf("%s.%s", path, compConf.Name)
		if compConf.Name == "" {
			compPath = fmt.Sprintf("%s.component%d", path, i)
		}
		mod.AddComponent(NewComponent(compPath, compConf))
	}

	for _, subConf := range conf.Submodules {
		subPath := fmt.Sprintf("%s.%s", path, subConf.Name)
		sub, err := a.wire(subPath, subConf)
		if err != nil {
			return nil, &ModuleError{Kind: ModuleComponent, Path: path, Cause: err}
		}
		mod.AddSubmodule(sub)
	}

	return mod, nil
}
