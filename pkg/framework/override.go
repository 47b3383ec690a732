package framework

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

const overrideHeader = "// ---- compiler override added by solext ----"

const backupSuffix = ".orig"

var templateFuncs = template.FuncMap{
	// js quotes a string as a JavaScript string literal.
	"js": func(s string) (string, error) {
		b, err := json.Marshal(s)
		return string(b), err
	},
}

func mustTemplate(name, text string) *template.Template {
	return template.Must(template.New(name).Funcs(templateFuncs).Parse(strings.TrimLeft(text, "\n")))
}

// writeOverride appends the rendered template to the pristine configuration
// file. The pristine file is saved next to it on first use, so repeated
// overrides replace each other instead of piling up.
func writeOverride(dir, configFile string, tmpl *template.Template, data any) error {
	path := filepath.Join(dir, configFile)
	backup := path + backupSuffix

	original, err := os.ReadFile(backup)
	if errors.Is(err, fs.ErrNotExist) {
		original, err = os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read configuration: %w", err)
		}
		if err := os.WriteFile(backup, original, 0o644); err != nil {
			return fmt.Errorf("failed to back up configuration: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("failed to read configuration backup: %w", err)
	}

	var b strings.Builder
	b.Write(original)
	if len(original) > 0 && original[len(original)-1] != '\n' {
		b.WriteByte('\n')
	}
	b.WriteString("\n" + overrideHeader + "\n")
	if err := tmpl.Execute(&b, data); err != nil {
		return fmt.Errorf("failed to render override: %w", err)
	}

	return os.WriteFile(path, []byte(b.String()), 0o644)
}
