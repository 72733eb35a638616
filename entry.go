package cwl

import (
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ContentLimit is the largest number of bytes loadContents may read.
const ContentLimit = 64 * 1024

type FileDirI interface {
	filedir()
	Classable
}

func (File) filedir()      {}
func (Directory) filedir() {}

// FileDir represents a fs entry that is either a File or a Directory.
type FileDir struct {
	ClassBase `json:",inline"`
	entry     FileDirI
}

func NewFileDir(entry FileDirI) FileDir {
	return FileDir{ClassBase{entry.ClassName()}, entry}
}

func (e *FileDir) UnmarshalJSON(b []byte) error {
	err := json.Unmarshal(b, &e.ClassBase)
	if err != nil {
		return err
	}
	switch e.Class {
	case "File":
		entry := &File{}
		err = json.Unmarshal(b, entry)
		e.entry = entry
		return err
	case "Directory":
		entry := &Directory{}
		err = json.Unmarshal(b, entry)
		e.entry = entry
		return err
	}
	return NewParseError("class needs to be File/Directory")
}

func (e FileDir) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.entry)
}

func (e *FileDir) Entry() FileDirI { return e.entry }

func (e *FileDir) Value() (*File, *Directory, error) {
	switch v := e.entry.(type) {
	case *File:
		return v, nil, nil
	case *Directory:
		return nil, v, nil
	}
	return nil, nil, fmt.Errorf("bad FileDir entry")
}

// File represents a file entry.
// @see http://www.commonwl.org/v1.0/CommandLineTool.html#File
type File struct {
	ClassBase      `json:",inline"`
	Location       string    `json:"location,omitempty"`
	Path           string    `json:"path,omitempty"`
	Basename       string    `json:"basename,omitempty"`
	Dirname        string    `json:"dirname,omitempty"`
	Nameroot       string    `json:"nameroot,omitempty"`
	Nameext        string    `json:"nameext,omitempty"`
	Checksum       string    `json:"checksum,omitempty"`
	Size           int64     `json:"size"`
	Format         string    `json:"format,omitempty"`
	Contents       string    `json:"contents,omitempty"` // UTF-8 text, 64 KiB or smaller
	SecondaryFiles []FileDir `json:"secondaryFiles,omitempty"`
}

// Directory represents a directory entry.
// @see http://www.commonwl.org/v1.0/CommandLineTool.html#Directory
type Directory struct {
	ClassBase `json:",inline"`
	Location  string    `json:"location,omitempty"`
	Path      string    `json:"path,omitempty"`
	Basename  string    `json:"basename,omitempty"`
	Listing   []FileDir `json:"listing,omitempty"`
}

// locationToPath strips the file:// scheme; remote schemes are not
// inspectable.
func locationToPath(loc string) (string, error) {
	if strings.HasPrefix(loc, "file://") {
		return strings.TrimPrefix(loc, "file://"), nil
	}
	for _, scheme := range []string{"http://", "https://", "ftp://"} {
		if strings.HasPrefix(loc, scheme) {
			return "", NewInspectionError("remote location %q is not supported", loc)
		}
	}
	return loc, nil
}

// findInDocDirs resolves a relative path against the docdir search
// list, in priority order.
func findInDocDirs(rel string, docdirs []string) string {
	for _, dir := range docdirs {
		cand := filepath.Join(dir, rel)
		if _, err := os.Stat(cand); err == nil {
			return cand
		}
	}
	if len(docdirs) > 0 {
		return filepath.Join(docdirs[0], rel)
	}
	return rel
}

// Evaluate fills the derived fields of a File against the document
// directory search list. The receiver is unchanged; a new value is
// returned.
func (f File) Evaluate(docdirs []string, loadContents bool) (File, error) {
	x := f
	x.Class = "File"

	if x.Location == "" && x.Path != "" && x.Contents == "" {
		x.Location = x.Path
		x.Path = ""
	}
	if x.Location == "" && x.Contents == "" {
		return x, NewInspectionError("File has neither location, path nor contents")
	}

	if x.Contents != "" && x.Location == "" {
		// file literal
		name := x.Path
		if name == "" {
			name = x.Basename
		}
		if name == "" {
			name = uuid.New().String()
		}
		x.Path = name
		x.Basename = filepath.Base(name)
		x.Nameroot, x.Nameext = splitname(x.Basename)
		x.Size = int64(len(x.Contents))
		x.Checksum = fmt.Sprintf("sha1$%x", sha1.Sum([]byte(x.Contents)))
		return x, nil
	}

	loc, err := locationToPath(x.Location)
	if err != nil {
		return x, err
	}
	if !filepath.IsAbs(loc) {
		loc = findInDocDirs(loc, docdirs)
	}
	x.Location = "file://" + loc
	x.Path = loc
	x.Basename = filepath.Base(loc)
	x.Dirname = filepath.Dir(loc)
	x.Nameroot, x.Nameext = splitname(x.Basename)

	if info, err := os.Stat(loc); err == nil {
		x.Size = info.Size()
		if sum, err := sha1sum(loc); err == nil {
			x.Checksum = sum
		}
	}
	if loadContents && x.Contents == "" {
		contents, err := headFile(loc, ContentLimit)
		if err != nil {
			return x, NewInspectionError("loading contents of %q: %s", loc, err)
		}
		x.Contents = contents
	}

	sf := make([]FileDir, 0, len(x.SecondaryFiles))
	for _, sfi := range x.SecondaryFiles {
		evaled, err := sfi.evaluate(docdirs)
		if err != nil {
			return x, err
		}
		sf = append(sf, evaled)
	}
	if len(sf) > 0 {
		x.SecondaryFiles = sf
	}
	return x, nil
}

// Evaluate fills the derived fields of a Directory. The receiver is
// unchanged; a new value is returned.
func (d Directory) Evaluate(docdirs []string) (Directory, error) {
	x := d
	x.Class = "Directory"

	if x.Location == "" && x.Path != "" {
		x.Location = x.Path
		x.Path = ""
	}
	if x.Location == "" && x.Listing == nil {
		return x, NewInspectionError("Directory has neither location, path nor listing")
	}
	if x.Location != "" {
		loc, err := locationToPath(x.Location)
		if err != nil {
			return x, err
		}
		if !filepath.IsAbs(loc) {
			loc = findInDocDirs(loc, docdirs)
		}
		x.Location = "file://" + loc
		x.Path = loc
		x.Basename = filepath.Base(loc)
	}
	listing := make([]FileDir, 0, len(x.Listing))
	for _, li := range x.Listing {
		evaled, err := li.evaluate(docdirs)
		if err != nil {
			return x, err
		}
		listing = append(listing, evaled)
	}
	if len(listing) > 0 {
		x.Listing = listing
	}
	return x, nil
}

func (e FileDir) evaluate(docdirs []string) (FileDir, error) {
	switch v := e.entry.(type) {
	case *File:
		f, err := v.Evaluate(docdirs, false)
		if err != nil {
			return e, err
		}
		return NewFileDir(&f), nil
	case *Directory:
		d, err := v.Evaluate(docdirs)
		if err != nil {
			return e, err
		}
		return NewFileDir(&d), nil
	}
	return e, fmt.Errorf("bad FileDir entry")
}

func splitname(basename string) (nameroot, nameext string) {
	idx := strings.LastIndex(basename, ".")
	if idx <= 0 {
		return basename, ""
	}
	return basename[:idx], basename[idx:]
}

func sha1sum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha1.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("sha1$%x", h.Sum(nil)), nil
}

func headFile(path string, limit int64) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	buf, err := ioutil.ReadAll(io.LimitReader(f, limit))
	if err != nil {
		return "", err
	}
	return string(buf), nil
}
