package versioning

import (
	"testing"
)

var checkParseVersionTests = map[string]struct {
	version string
	wantErr bool
}{
	"v0.1.0":        {version: "v0.1.0"},
	"v1.2.3-rc.1":   {version: "v1.2.3-rc.1"},
	"no v prefix":   {version: "0.1.0", wantErr: true},
	"empty":         {version: "", wantErr: true},
	"not a version": {version: "vnext", wantErr: true},
}

func TestParseVersion(t *testing.T) {
	t.Parallel()
	for name, test := range checkParseVersionTests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			parsed, err := ParseVersion(test.version)
			if test.wantErr {
				if err == nil {
					t.Errorf("expected an error parsing %s, but got version %s", test.version, parsed)
				}
				return
			}
			if err != nil {
				t.Errorf("couldn't parse %s: %s", test.version, err)
				return
			}
			if got, want := "v"+parsed.String(), test.version; got != want {
				t.Errorf("got %s, want %s", got, want)
			}
		})
	}
}

var checkCompatibilityTests = map[string]struct {
	storeVersion    string
	toolVersion     string
	minStoreVersion string
	ignoreTool      bool
	wantErr         bool
}{
	"store matches tool": {
		storeVersion: "v0.2.0", toolVersion: "v0.2.0", minStoreVersion: "v0.1.0",
	},
	"store older than tool but supported": {
		storeVersion: "v0.1.0", toolVersion: "v0.2.0", minStoreVersion: "v0.1.0",
	},
	"store newer than tool": {
		storeVersion: "v0.3.0", toolVersion: "v0.2.0", minStoreVersion: "v0.1.0",
		wantErr: true,
	},
	"store newer than tool, ignored": {
		storeVersion: "v0.3.0", toolVersion: "v0.2.0", minStoreVersion: "v0.1.0",
		ignoreTool: true,
	},
	"store below minimum": {
		storeVersion: "v0.0.1", toolVersion: "v0.2.0", minStoreVersion: "v0.1.0",
		wantErr: true,
	},
	"store below minimum, tool ignored": {
		storeVersion: "v0.0.1", toolVersion: "v0.2.0", minStoreVersion: "v0.1.0",
		ignoreTool: true, wantErr: true,
	},
	"store without version": {
		storeVersion: "", toolVersion: "v0.2.0", minStoreVersion: "v0.1.0",
		wantErr: true,
	},
}

func TestCheckCompatibility(t *testing.T) {
	t.Parallel()
	for name, test := range checkCompatibilityTests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := CheckCompatibility(
				test.storeVersion, test.toolVersion, test.minStoreVersion, "/test/store",
				test.ignoreTool,
			)
			if test.wantErr && err == nil {
				t.Errorf(
					"expected a compatibility error for store %s with tool %s (min %s)",
					test.storeVersion, test.toolVersion, test.minStoreVersion,
				)
			}
			if !test.wantErr && err != nil {
				t.Errorf(
					"unexpected compatibility error for store %s with tool %s (min %s): %s",
					test.storeVersion, test.toolVersion, test.minStoreVersion, err,
				)
			}
		})
	}
}
