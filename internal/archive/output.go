package archive

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	vouchersDir    = "vouchers"
	attachmentsDir = "attachments"
	incompleteFile = "EXPORT_INCOMPLETE.txt"
)

// Output is the directory an export is written into. Pages are staged in a
// hidden sibling of the final directory and only moved into place by Commit.
type Output struct {
	root    string
	tag     string
	staging string
}

// NewOutput creates a fresh staging tree for the period tag below root.
func NewOutput(root, tag, runID string) (*Output, error) {
	if root == "" {
		return nil, errors.New("archive: root directory required")
	}
	if tag == "" || tag != filepath.Base(tag) || tag == "." || tag == ".." {
		return nil, fmt.Errorf("archive: invalid period tag %q", tag)
	}
	out := &Output{
		root:    root,
		tag:     tag,
		staging: filepath.Join(root, fmt.Sprintf(".%s.%s.partial", tag, runID)),
	}
	if err := os.RemoveAll(out.staging); err != nil {
		return nil, fsError("remove", out.staging, err)
	}
	for _, dir := range []string{out.staging, filepath.Join(out.staging, vouchersDir), filepath.Join(out.staging, attachmentsDir)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fsError("mkdir", dir, err)
		}
	}
	return out, nil
}

// Staging returns the directory currently being written.
func (o *Output) Staging() string {
	return o.staging
}

// Final returns the directory the archive is committed to.
func (o *Output) Final() string {
	return filepath.Join(o.root, o.tag)
}

// WriteFile writes data to rel inside the staging tree, replacing any
// existing file.
func (o *Output) WriteFile(rel string, data []byte) (err error) {
	path := filepath.Join(o.staging, filepath.FromSlash(rel))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fsError("create", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fsError("close", path, cerr)
		}
	}()
	if _, err := f.Write(data); err != nil {
		return fsError("write", path, err)
	}
	return nil
}

// Commit replaces the previous archive of the period with the staging tree.
func (o *Output) Commit() (string, error) {
	final := o.Final()
	if err := os.RemoveAll(final); err != nil {
		return "", fsError("remove", final, err)
	}
	if err := os.Rename(o.staging, final); err != nil {
		return "", fsError("rename", o.staging, err)
	}
	return final, nil
}

// Abandon leaves the staging tree in place with a note describing why the
// export stopped.
func (o *Output) Abandon(cause error, at time.Time) error {
	note := fmt.Sprintf("Export of %s stopped at %s and is incomplete.\n\n%v\n", o.tag, at.Format(time.RFC3339), cause)
	return o.WriteFile(incompleteFile, []byte(note))
}
