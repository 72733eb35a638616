package inspector

import (
	"fmt"
	"os"
	"path/filepath"
	goruntime "runtime"

	cwl "github.com/lijiang2014/cwl.inspect"
)

type Mebibyte int64

// Runtime is the record visible to expressions as `runtime`, plus the
// docdir search list which is stripped before evaluation.
type Runtime struct {
	Outdir  string   `json:"outdir"`
	Tmpdir  string   `json:"tmpdir"`
	Cores   int      `json:"cores"`
	RAM     Mebibyte `json:"ram"`
	DocDirs []string `json:"docdir,omitempty"`
}

const defaultRAM Mebibyte = 1024

// CheckPlatform rejects hosts other than Linux and macOS.
func CheckPlatform() error {
	switch goruntime.GOOS {
	case "linux", "darwin":
		return nil
	}
	return fmt.Errorf("unsupported platform %q: only linux and darwin are supported", goruntime.GOOS)
}

// vardir is the base of the in-container layout.
func vardir() string {
	if goruntime.GOOS == "darwin" {
		return "/private/var"
	}
	return "/var"
}

// shellPath picks the shell for the materialized command. /bin/sh
// everywhere, except directly on macOS where /bin/bash avoids an echo
// builtin difference.
func shellPath(inContainer bool) string {
	if !inContainer && goruntime.GOOS == "darwin" {
		return "/bin/bash"
	}
	return "/bin/sh"
}

// NewRuntime builds a Runtime for a document located in docdir.
// The docdir search list follows the priority order: the CWL file's
// directory, the system share dirs, then the user share dir.
func NewRuntime(outdir, tmpdir, docdir string) (Runtime, error) {
	if err := CheckPlatform(); err != nil {
		return Runtime{}, err
	}
	if outdir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return Runtime{}, err
		}
		outdir = wd
	}
	if tmpdir == "" {
		tmpdir = "/tmp"
	}
	dirs := []string{}
	if docdir != "" {
		dirs = append(dirs, docdir)
	}
	dirs = append(dirs, "/usr/share/commonwl", "/usr/local/share/commonwl")
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		dirs = append(dirs, filepath.Join(xdg, "commonwl"))
	} else if home := os.Getenv("HOME"); home != "" {
		dirs = append(dirs, filepath.Join(home, ".local/share/commonwl"))
	}
	return Runtime{
		Outdir:  outdir,
		Tmpdir:  tmpdir,
		Cores:   goruntime.NumCPU(),
		RAM:     defaultRAM,
		DocDirs: dirs,
	}, nil
}

// evalContext is the runtime mapping handed to expressions; docdir is
// not part of the contract.
func (r Runtime) evalContext() map[string]interface{} {
	return map[string]interface{}{
		"outdir": r.Outdir,
		"tmpdir": r.Tmpdir,
		"cores":  r.Cores,
		"ram":    int64(r.RAM),
	}
}

// resolveResources applies a ResourceRequirement to the runtime.
// Expressions that cannot be resolved (uninstantiated inputs) leave the
// affected limit untouched.
func (p *Process) resolveResources() error {
	req := p.root.Base().RequiresResource()
	if req == nil {
		return nil
	}
	coresMin, okMin, err := p.resolveLimit(req.CoresMin)
	if err != nil {
		return err
	}
	coresMax, okMax, err := p.resolveLimit(req.CoresMax)
	if err != nil {
		return err
	}
	if okMin && okMax && coresMax < coresMin {
		return cwl.NewInspectionError("coresMax (%d) is below coresMin (%d)", coresMax, coresMin)
	}
	hostCores := int64(p.runtime.Cores)
	if okMin && hostCores < coresMin {
		return cwl.NewInspectionError("host provides %d cores but coresMin requires %d", hostCores, coresMin)
	}
	cores := hostCores
	switch {
	case okMax:
		cores = min64(hostCores, coresMax)
	case okMin:
		cores = min64(hostCores, coresMin)
	}
	p.runtime.Cores = int(cores)

	ramMin, okMin, err := p.resolveLimit(req.RAMMin)
	if err != nil {
		return err
	}
	ramMax, okMax, err := p.resolveLimit(req.RAMMax)
	if err != nil {
		return err
	}
	if okMin && okMax && ramMax < ramMin {
		return cwl.NewInspectionError("ramMax (%d) is below ramMin (%d)", ramMax, ramMin)
	}
	ram := int64(defaultRAM)
	if okMax && ramMax < ram {
		ram = ramMax
	}
	if okMin && ram < ramMin {
		return cwl.NewInspectionError("cannot reserve %d MiB of RAM with ramMin %d", ram, ramMin)
	}
	p.runtime.RAM = Mebibyte(ram)
	return nil
}

// resolveLimit evaluates a literal-or-expression resource bound.
// ok is false when the bound is absent or still symbolic.
func (p *Process) resolveLimit(e cwl.LongFloatExpression) (int64, bool, error) {
	if e.IsNull() {
		return 0, false, nil
	}
	if e.Long != nil {
		return *e.Long, true, nil
	}
	if e.Float != nil {
		return int64(*e.Float), true, nil
	}
	out, err := p.Eval(e.Expression, nil)
	if err != nil {
		return 0, false, err
	}
	switch v := out.(type) {
	case Evaled:
		return 0, false, nil
	case int64:
		return v, true, nil
	case float64:
		return int64(v), true, nil
	case int:
		return int64(v), true, nil
	}
	return 0, false, cwl.NewInspectionError("resource bound %q did not evaluate to a number", e.Expression)
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
