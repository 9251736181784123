//go:build !darwin

package permissions

import "testing"

func TestEnsureMicrophoneNoopOffDarwin(t *testing.T) {
	if err := EnsureMicrophone(); err != nil {
		t.Fatalf("EnsureMicrophone() = %v, want nil", err)
	}
}
