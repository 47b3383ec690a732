package framework_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tmaxmax/solext/pkg/command/commandtest"
	"github.com/tmaxmax/solext/pkg/framework"
)

func truffleArtifact(version string) string {
	return `{
  "contractName": "Token",
  "abi": [],
  "compiler": {
    "name": "solc",
    "version": "` + version + `"
  },
  "schemaVersion": "3.4.13"
}`
}

func buildInfo(short, long string) string {
	return `{"id":"b3c1","_format":"hh-sol-build-info-1","solcVersion":"` + short + `","solcLongVersion":"` + long + `","input":{},"output":{}}`
}

func TestTruffle_VerifyCompilerVersion(t *testing.T) {
	type test struct {
		name          string
		files         map[string]string
		expectErr     error
		expectedFiles []string
	}

	tests := []test{
		{
			name: "Match",
			files: map[string]string{
				"build/contracts/Token.json":   truffleArtifact(nativeCompiler.Version),
				"build/contracts/Ownable.json": truffleArtifact(nativeCompiler.Version),
			},
		},
		{
			name: "Mismatch",
			files: map[string]string{
				"build/contracts/Token.json":      truffleArtifact(nativeCompiler.Version),
				"build/contracts/Ownable.json":    truffleArtifact("0.8.19+commit.7dd6d404.Emscripten.clang"),
				"build/contracts/Migrations.json": truffleArtifact("0.5.16+commit.9c3226ce.Emscripten.clang"),
			},
			expectErr:     &framework.VersionMismatchError{},
			expectedFiles: []string{"build/contracts/Migrations.json", "build/contracts/Ownable.json"},
		},
		{
			name:      "NoArtifacts",
			files:     map[string]string{"build/contracts/README.md": ""},
			expectErr: framework.ErrNoArtifacts,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.files["truffle-config.js"] = ""
			f, _ := newFramework(t, "truffle", tt.files, &commandtest.Stub{})

			err := f.VerifyCompilerVersion(context.Background(), nativeCompiler)
			assertVerifyError(t, err, tt.expectErr, tt.expectedFiles)
		})
	}
}

func TestHardhat_VerifyCompilerVersion(t *testing.T) {
	type test struct {
		name          string
		files         map[string]string
		expectErr     error
		expectedFiles []string
	}

	tests := []test{
		{
			name: "Match",
			files: map[string]string{
				"artifacts/build-info/a.json": buildInfo("0.8.20", solcjsCompiler.Version),
				"artifacts/build-info/b.json": buildInfo("0.8.20", solcjsCompiler.Version),
			},
		},
		{
			name: "LongVersionMismatch",
			files: map[string]string{
				"artifacts/build-info/a.json": buildInfo("0.8.20", "0.8.20+commit.a1b79de6"),
			},
			expectErr:     &framework.VersionMismatchError{},
			expectedFiles: []string{"artifacts/build-info/a.json"},
		},
		{
			name: "ShortVersionMismatch",
			files: map[string]string{
				"artifacts/build-info/a.json": buildInfo("0.8.20", solcjsCompiler.Version),
				"artifacts/build-info/b.json": buildInfo("0.8.2", solcjsCompiler.Version),
			},
			expectErr:     &framework.VersionMismatchError{},
			expectedFiles: []string{"artifacts/build-info/b.json"},
		},
		{
			name:      "NoArtifacts",
			files:     map[string]string{},
			expectErr: framework.ErrNoArtifacts,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.files["hardhat.config.js"] = ""
			f, _ := newFramework(t, "hardhat", tt.files, &commandtest.Stub{})

			err := f.VerifyCompilerVersion(context.Background(), solcjsCompiler)
			assertVerifyError(t, err, tt.expectErr, tt.expectedFiles)
		})
	}
}

func assertVerifyError(tb testing.TB, err, expectErr error, expectedFiles []string) {
	tb.Helper()

	var mismatch *framework.VersionMismatchError

	switch expectErr.(type) {
	case nil:
		require.NoError(tb, err)
	case *framework.VersionMismatchError:
		require.True(tb, errors.As(err, &mismatch), "Expected *VersionMismatchError, got %v", err)
		require.Equal(tb, expectedFiles, mismatch.Files)
	default:
		require.ErrorIs(tb, err, expectErr)
	}
}

func TestVerifyCompilerVersion_Canceled(t *testing.T) {
	f, _ := newFramework(t, "hardhat", map[string]string{
		"hardhat.config.js":           "",
		"artifacts/build-info/a.json": buildInfo("0.8.20", solcjsCompiler.Version),
	}, &commandtest.Stub{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, f.VerifyCompilerVersion(ctx, solcjsCompiler), context.Canceled)
}
