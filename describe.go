package main

import (
	"fmt"
	"os"

	"k8s.io/klog/v2"

	"github.com/rpcpool/minperf/artifactmeta"
)

// sidecarPath returns the artifactmeta manifest path conventionally
// associated with an artifact file: the same path with ".meta" appended.
func sidecarPath(artifactPath string) string {
	return artifactPath + ".meta"
}

// describeArtifact loads and prints the sidecar manifest for
// artifactPath, if one exists. Absence of a sidecar is not an error: most
// artifacts in the wild were built without one, so --describe degrades to
// a no-op note rather than failing the whole command.
func describeArtifact(artifactPath string) error {
	path := sidecarPath(artifactPath)
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		fmt.Printf("no sidecar manifest at %s\n", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading sidecar manifest %s: %w", path, err)
	}

	var m artifactmeta.Meta
	if err := m.UnmarshalBinary(b); err != nil {
		return fmt.Errorf("decoding sidecar manifest %s: %w", path, err)
	}
	klog.V(2).Infof("loaded sidecar manifest %s (%d entries)", path, len(m.KeyVals))

	fmt.Printf("manifest %s:\n", path)
	for _, kv := range m.KeyVals {
		fmt.Printf("  %s = %s\n", kv.Key, kv.Value)
	}
	return nil
}
