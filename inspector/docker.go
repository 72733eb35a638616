package inspector

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	cwl "github.com/lijiang2014/cwl.inspect"
)

// dockerDetect reports whether a docker binary is reachable; a
// DockerRequirement appearing as a hint only takes effect when it is.
var dockerDetect = func() bool {
	_, err := exec.LookPath("docker")
	return err == nil
}

// containerWorkdir is W: dockerOutputDirectory when given, else the
// spool directory under the host's vardir layout.
func containerWorkdir(req *cwl.DockerRequirement) string {
	if req.DockerOutputDirectory != "" {
		return req.DockerOutputDirectory
	}
	return vardir() + "/spool/cwl"
}

func containerInputDir() string {
	return vardir() + "/lib/cwl/inputs"
}

// dockerPreamble builds the docker invocation tokens and rewrites the
// paths of File/Directory inputs to their in-container mount points.
// The per-input mounts are pushed into the outer command vector.
func (p *Process) dockerPreamble() (bool, []string, error) {
	req := p.dockerReq
	if req == nil {
		return false, nil, nil
	}
	image := req.DockerPull
	if image == "" {
		image = req.DockerImageID
	}
	if image == "" {
		return false, nil, cwl.NewInspectionError("DockerRequirement without dockerPull or dockerImageId")
	}

	w := containerWorkdir(req)
	cmd := []string{
		"docker", "run", "-i", "--read-only", "--rm",
		"--workdir=" + w,
		"--env=HOME=" + w,
		"--env=TMPDIR=/tmp",
		fmt.Sprintf("--user=%d:%d", os.Geteuid(), os.Getegid()),
		"-v", p.runtime.Outdir + ":" + w,
		"-v", p.runtime.Tmpdir + ":/tmp",
	}

	// one read-only mount per staged input, rewriting the value's path
	// to the container side for all subsequent rendering. The host side
	// comes from the location so the rewrite is idempotent.
	for _, b := range flatBinding(p.bindings, false) {
		switch v := b.Value.(type) {
		case cwl.File:
			hostPath := hostSide(v.Location, v.Path)
			if hostPath == "" {
				continue
			}
			v.Path = containerInputDir() + "/" + v.Basename
			b.Value = v
			cmd = append(cmd, "-v", hostPath+":"+v.Path+":ro")
		case cwl.Directory:
			hostPath := hostSide(v.Location, v.Path)
			if hostPath == "" {
				continue
			}
			v.Path = containerInputDir() + "/" + v.Basename
			b.Value = v
			cmd = append(cmd, "-v", hostPath+":"+v.Path+":ro")
		}
	}

	for _, k := range sortedKeys(p.env) {
		cmd = append(cmd, "--env="+k+"='"+p.env[k]+"'")
	}

	cmd = append(cmd, image)
	return true, cmd, nil
}

// hostSide picks the host path of a staged entry.
func hostSide(location, path string) string {
	if strings.HasPrefix(location, "file://") {
		return strings.TrimPrefix(location, "file://")
	}
	if location != "" {
		return location
	}
	if strings.HasPrefix(path, containerInputDir()) {
		return ""
	}
	return path
}
