package project

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

var lockFiles = []string{"package-lock.json", "yarn.lock", "pnpm-lock.yaml"}

// NeutralizePackageLock removes lock files, so dependencies are resolved
// again instead of pinning whatever the project shipped with.
func (p *Project) NeutralizePackageLock() error {
	for _, name := range lockFiles {
		err := os.Remove(filepath.Join(p.Dir, name))
		switch {
		case err == nil:
			p.logger().Debug("removed lock file", zap.String("file", name))
		case !os.IsNotExist(err):
			return fmt.Errorf("project: %w", err)
		}
	}
	return nil
}

var npmHooks = []string{"prepublish", "prepare", "preinstall", "postinstall"}

// NeutralizePackageJSONHooks removes npm lifecycle scripts that would run
// during installation, such as builds that use the project's pinned compiler.
func (p *Project) NeutralizePackageJSONHooks() error {
	return p.editPackageJSON(func(pkg *object) error {
		raw, ok := pkg.get("scripts")
		if !ok {
			return nil
		}

		var scripts object
		if err := scripts.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("scripts: %w", err)
		}
		for _, hook := range npmHooks {
			if scripts.delete(hook) {
				p.logger().Debug("removed npm hook", zap.String("hook", hook))
			}
		}

		return pkg.setValue("scripts", scripts)
	})
}

// ForceTruffleVersion pins the truffle dependency to the given version.
// The dependency is added to devDependencies if the project does not list it.
func (p *Project) ForceTruffleVersion(version string) error {
	return p.editPackageJSON(func(pkg *object) error {
		for _, section := range []string{"dependencies", "devDependencies"} {
			deps, err := pkg.getObject(section)
			if err != nil {
				return err
			}
			if _, ok := deps.get("truffle"); ok {
				if err := deps.setValue("truffle", version); err != nil {
					return err
				}
				return pkg.setValue(section, deps)
			}
		}

		deps, err := pkg.getObject("devDependencies")
		if err != nil {
			return err
		}
		if err := deps.setValue("truffle", version); err != nil {
			return err
		}
		return pkg.setValue("devDependencies", deps)
	})
}

var frameworkConfigRegexp = regexp.MustCompile(`^(truffle-config\.js|truffle\.js|hardhat\.config\.(js|ts|cjs|mjs))$`)

// NeutralizePackagedContracts removes framework configuration files and
// Hardhat build info shipped inside installed packages. Frameworks build every
// package that has a configuration, which is slow and does not use the compiler
// under test, and stale build info would be mistaken for fresh artifacts.
func (p *Project) NeutralizePackagedContracts() error {
	root := filepath.Join(p.Dir, "node_modules")
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		switch {
		case frameworkConfigRegexp.MatchString(d.Name()):
			p.logger().Debug("removing packaged framework config", zap.String("file", path))
		case isBuildInfo(path):
			p.logger().Debug("removing packaged build info", zap.String("file", path))
		default:
			return nil
		}
		return os.Remove(path)
	})
	if err != nil {
		return fmt.Errorf("project: failed to remove packaged contracts config: %w", err)
	}
	return nil
}

// isBuildInfo reports whether path is an artifacts/build-info/*.json file.
func isBuildInfo(path string) bool {
	dir := filepath.Dir(path)
	return filepath.Ext(path) == ".json" &&
		filepath.Base(dir) == "build-info" &&
		filepath.Base(filepath.Dir(dir)) == "artifacts"
}

var pragmaRegexp = regexp.MustCompile(`pragma\s+solidity\s+[^;]+;`)

const relaxedPragma = "pragma solidity >=0.0;"

// ReplaceVersionPragmas relaxes the version pragmas of every Solidity source
// in the given subdirectories of the project, so that any compiler version
// is accepted. With no subdirectories, the whole project is processed.
func (p *Project) ReplaceVersionPragmas(subdirs ...string) error {
	if len(subdirs) == 0 {
		subdirs = []string{"."}
	}

	var count int
	for _, sub := range subdirs {
		root := filepath.Join(p.Dir, sub)
		if _, err := os.Stat(root); os.IsNotExist(err) {
			p.logger().Warn("skipping missing source directory", zap.String("dir", sub))
			continue
		}

		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() && d.Name() == ".git" {
				return filepath.SkipDir
			}
			if !d.Type().IsRegular() || !strings.HasSuffix(d.Name(), ".sol") {
				return nil
			}

			content, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			replaced := pragmaRegexp.ReplaceAll(content, []byte(relaxedPragma))
			if bytes.Equal(replaced, content) {
				return nil
			}

			count++
			return os.WriteFile(path, replaced, 0o644)
		})
		if err != nil {
			return fmt.Errorf("project: failed to replace version pragmas in %s: %w", sub, err)
		}
	}

	p.logger().Info("replaced version pragmas", zap.Int("files", count))
	return nil
}

// ForceSolcModules replaces every solc-js package installed in the project
// with a symbolic link to solcjsDir.
func (p *Project) ForceSolcModules(solcjsDir string) error {
	root := filepath.Join(p.Dir, "node_modules")
	if _, err := os.Stat(root); err != nil {
		return fmt.Errorf("project: dependencies are not installed: %w", err)
	}

	target, err := filepath.Abs(solcjsDir)
	if err != nil {
		return fmt.Errorf("project: %w", err)
	}

	var modules []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() && d.Name() == "soljson.js" && filepath.Base(filepath.Dir(path)) == "solc" {
			modules = append(modules, filepath.Dir(path))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("project: failed to find solc modules: %w", err)
	}

	for _, module := range modules {
		p.logger().Info("replacing solc module", zap.String("module", module), zap.String("with", target))

		if err := os.RemoveAll(module); err != nil {
			return fmt.Errorf("project: %w", err)
		}
		if err := os.Symlink(target, module); err != nil {
			return fmt.Errorf("project: %w", err)
		}
	}

	return nil
}
