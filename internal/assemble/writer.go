package assemble

import (
	"fmt"
	"os"
	"path/filepath"
)

// ManifestFileName is written next to the output units.
const ManifestFileName = "cleave-manifest.json"

// WriteUnits persists verified units to outputDir with write-after-verify
// discipline: every unit is staged to a temporary file first, and the
// staged files are renamed into place only after all of them were written
// successfully. A failure at any point removes the staged files and leaves
// previously existing output untouched.
func WriteUnits(outputDir string, units []Unit, m *Manifest) error {
	if err := VerifyBalance(units); err != nil {
		return err
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	type staged struct {
		tmp  string
		dest string
	}
	var stage []staged
	cleanup := func() {
		for _, s := range stage {
			os.Remove(s.tmp)
		}
	}

	for i := range units {
		u := &units[i]
		dest := filepath.Join(outputDir, u.FileName)
		tmp, err := stageFile(outputDir, u.FileName, []byte(u.Content))
		if err != nil {
			cleanup()
			return err
		}
		stage = append(stage, staged{tmp: tmp, dest: dest})
	}

	if m != nil {
		data, err := m.JSON()
		if err != nil {
			cleanup()
			return fmt.Errorf("failed to encode manifest: %w", err)
		}
		tmp, err := stageFile(outputDir, ManifestFileName, data)
		if err != nil {
			cleanup()
			return err
		}
		stage = append(stage, staged{tmp: tmp, dest: filepath.Join(outputDir, ManifestFileName)})
	}

	for _, s := range stage {
		if err := os.Rename(s.tmp, s.dest); err != nil {
			cleanup()
			return fmt.Errorf("failed to commit %s: %w", s.dest, err)
		}
	}
	return nil
}

// stageFile writes content to a temporary file in the same directory as its
// destination, so the final rename is atomic on the same filesystem.
func stageFile(dir, name string, content []byte) (string, error) {
	f, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("failed to stage %s: %w", name, err)
	}
	tmp := f.Name()
	if _, err := f.Write(content); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to flush %s: %w", name, err)
	}
	return tmp, nil
}
